package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"novabyte-blog/models"
	"novabyte-blog/storage"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/rs/zerolog"
)

const MaxImageBytes = 5 << 20

var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type ImageService interface {
	Upload(ctx context.Context, uploaderID string, data io.Reader) (string, error)
}

type imageService struct {
	store storage.Storage
	now   func() time.Time
}

func NewImageService(store storage.Storage) ImageService {
	return &imageService{store: store, now: time.Now}
}

// Upload sniffs the content type rather than trusting the client, stores the
// image under images/<yyyy>/<mm>/<id><ext> and returns its URL.
func (s *imageService) Upload(ctx context.Context, uploaderID string, data io.Reader) (string, error) {
	body, err := io.ReadAll(io.LimitReader(data, MaxImageBytes+1))
	if err != nil {
		return "", err
	}

	contentType := http.DetectContentType(body)
	if err := validation.Validate(len(body), validation.Required, validation.Max(MaxImageBytes)); err != nil {
		return "", models.ErrorValidation{Err: validation.Errors{"file": err}}
	}
	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", models.ErrorValidation{Err: validation.Errors{"file": fmt.Errorf("unsupported image type %s", strings.Split(contentType, ";")[0])}}
	}

	now := s.now().UTC()
	key := path.Join("images", now.Format("2006"), now.Format("01"), models.NewID()+ext)
	url, err := s.store.Save(ctx, key, bytes.NewReader(body), contentType)
	if err != nil {
		return "", models.ErrorStoreFailure{Op: "save image", Err: err}
	}

	zerolog.Ctx(ctx).Info().Str("person_id", uploaderID).Str("key", key).Int("bytes", len(body)).Msg("image uploaded")
	return url, nil
}
