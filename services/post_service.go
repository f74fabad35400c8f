package services

import (
	"context"
	"fmt"
	"math/rand"

	"novabyte-blog/models"
	"novabyte-blog/repositories"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	draftsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_drafts_created_total",
		Help: "Drafts created, labelled by whether they started a new post.",
	}, []string{"new_post"})

	publications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_publications_total",
		Help: "Publish and unpublish operations that committed.",
	}, []string{"action"})
)

type PostService interface {
	CreateDraft(ctx context.Context, in models.CreateDraftInput, author models.Actor) (*models.Draft, error)
	GetDraft(ctx context.Context, draftID string) (*models.Draft, error)
	ViewDraft(ctx context.Context, draftID string, viewer models.Actor) (*models.Draft, error)
	GetPost(ctx context.Context, postID string) (*models.Post, error)
	GetPosts(ctx context.Context) ([]models.PostSummary, error)
	GetPostDrafts(ctx context.Context, postID string) ([]models.Draft, error)
	GetCurrentDraft(ctx context.Context, postID string) (*models.Draft, error)
	GetPublishedDraft(ctx context.Context, postID string) (*models.Draft, error)
	ListUnpublishedPosts(ctx context.Context) ([]string, error)
	ListCurrentDrafts(ctx context.Context) ([]models.Draft, error)
	Publish(ctx context.Context, draftID string) (*models.Draft, error)
	Unpublish(ctx context.Context, draftID string) (*models.Draft, error)
	ListPublished(ctx context.Context) ([]models.Draft, error)
	PickRandomPublished(ctx context.Context) (*models.Draft, error)
}

type postService struct {
	tx        repositories.Transactor
	postRepo  repositories.PostRepository
	draftRepo repositories.DraftRepository
	visitRepo repositories.VisitRepository
	intn      func(n int) int
}

type PostServiceOption func(*postService)

// WithRandom replaces the source used by PickRandomPublished.
func WithRandom(intn func(n int) int) PostServiceOption {
	return func(s *postService) {
		s.intn = intn
	}
}

func NewPostService(
	tx repositories.Transactor,
	postRepo repositories.PostRepository,
	draftRepo repositories.DraftRepository,
	visitRepo repositories.VisitRepository,
	opts ...PostServiceOption,
) PostService {
	s := &postService{
		tx:        tx,
		postRepo:  postRepo,
		draftRepo: draftRepo,
		visitRepo: visitRepo,
		intn:      rand.Intn,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateDraft adds a draft to an existing post, or creates the post and its
// first draft together so no post is ever visible without a draft. Only the
// post's creator or an admin may add drafts to an existing post.
// A draft created already published takes the publication over from its
// siblings in the same unit of work.
func (s *postService) CreateDraft(ctx context.Context, in models.CreateDraftInput, author models.Actor) (*models.Draft, error) {
	if err := in.Validate(); err != nil {
		return nil, models.ErrorValidation{Err: err}
	}
	log := zerolog.Ctx(ctx)

	if in.PostID == nil {
		var created *models.Draft
		err := s.tx.Do(ctx, func(ctx context.Context) error {
			post, err := s.postRepo.Create(ctx, author.ID)
			if err != nil {
				return err
			}
			created, err = s.draftRepo.Create(ctx, newDraft(post, in, author.ID))
			return err
		})
		if err != nil {
			log.Error().Err(err).Str("author_id", author.ID).Msg("create post with first draft failed")
			return nil, err
		}
		draftsCreated.WithLabelValues("true").Inc()
		log.Info().Str("post_id", created.PostID).Str("draft_id", created.ID).Msg("post created")
		return created, nil
	}

	post, err := s.postRepo.GetByID(ctx, *in.PostID)
	if err != nil {
		return nil, err
	}
	if !author.CanManage(post.Meta.CreatedBy) {
		return nil, models.ErrorForbidden{Message: "only the post's creator or an admin may add drafts"}
	}

	var created *models.Draft
	if in.Published {
		err = s.tx.Do(ctx, func(ctx context.Context) error {
			if err := s.postRepo.LockForUpdate(ctx, post.ID); err != nil {
				return err
			}
			if err := s.draftRepo.UnpublishAllForPost(ctx, post.ID); err != nil {
				return err
			}
			created, err = s.draftRepo.Create(ctx, newDraft(post, in, author.ID))
			return err
		})
	} else {
		created, err = s.draftRepo.Create(ctx, newDraft(post, in, author.ID))
	}
	if err != nil {
		log.Error().Err(err).Str("post_id", post.ID).Msg("create draft failed")
		return nil, err
	}
	draftsCreated.WithLabelValues("false").Inc()
	return created, nil
}

func newDraft(post *models.Post, in models.CreateDraftInput, authorID string) *models.Draft {
	return &models.Draft{
		PostID:    post.ID,
		AuthorID:  authorID,
		Title:     in.Title,
		Body:      models.CompressedText(in.Body),
		Image:     in.Image,
		Published: in.Published,
		MetaID:    post.MetaID,
	}
}

func (s *postService) GetDraft(ctx context.Context, draftID string) (*models.Draft, error) {
	return s.draftRepo.GetByID(ctx, draftID)
}

// ViewDraft is GetDraft for readers: it counts the visit. Unpublished drafts
// are only visible to the post's creator and admins; everyone else gets
// NotFound.
func (s *postService) ViewDraft(ctx context.Context, draftID string, viewer models.Actor) (*models.Draft, error) {
	draft, err := s.draftRepo.GetByID(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if !draft.Published && !viewer.CanManage(draft.Meta.CreatedBy) {
		return nil, models.ErrorNotFound{Resource: "draft", ID: draftID}
	}
	n, err := s.visitRepo.Increment(ctx, draftID)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("draft_id", draftID).Msg("visit not counted")
		return draft, nil
	}
	draft.Visits = n
	return draft, nil
}

func (s *postService) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, postID)
}

func (s *postService) GetPosts(ctx context.Context) ([]models.PostSummary, error) {
	return s.postRepo.ListWithWorkingTitle(ctx)
}

func (s *postService) GetPostDrafts(ctx context.Context, postID string) ([]models.Draft, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	drafts, err := s.draftRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	s.attachVisits(ctx, drafts)
	return drafts, nil
}

func (s *postService) GetCurrentDraft(ctx context.Context, postID string) (*models.Draft, error) {
	return s.draftRepo.GetCurrent(ctx, postID)
}

func (s *postService) GetPublishedDraft(ctx context.Context, postID string) (*models.Draft, error) {
	return s.draftRepo.GetLatestPublished(ctx, postID)
}

func (s *postService) ListUnpublishedPosts(ctx context.Context) ([]string, error) {
	return s.draftRepo.ListUnpublishedPostIDs(ctx)
}

// ListCurrentDrafts returns the current draft of every post that has never
// been published, or has been unpublished since.
func (s *postService) ListCurrentDrafts(ctx context.Context) ([]models.Draft, error) {
	ids, err := s.draftRepo.ListUnpublishedPostIDs(ctx)
	if err != nil {
		return nil, err
	}

	drafts := make([]models.Draft, 0, len(ids))
	for _, postID := range ids {
		draft, err := s.draftRepo.GetCurrent(ctx, postID)
		if err != nil {
			if models.IsNotFound(err) {
				// published between the two reads
				continue
			}
			return nil, err
		}
		drafts = append(drafts, *draft)
	}
	return drafts, nil
}

// Publish makes draftID the only published draft of its post. Clearing the
// siblings and setting the flag commit together under a lock on the post row;
// concurrent publishes on the same post leave whichever committed last.
func (s *postService) Publish(ctx context.Context, draftID string) (*models.Draft, error) {
	postID, err := s.draftRepo.GetPostID(ctx, draftID)
	if err != nil {
		return nil, err
	}

	var published *models.Draft
	err = s.tx.Do(ctx, func(ctx context.Context) error {
		if err := s.postRepo.LockForUpdate(ctx, postID); err != nil {
			return err
		}
		if err := s.draftRepo.UnpublishAllForPost(ctx, postID); err != nil {
			return err
		}
		draft, err := s.draftRepo.SetPublished(ctx, draftID, true)
		if err != nil {
			if models.IsNotFound(err) {
				return models.ErrorInvariantViolation{Message: fmt.Sprintf("draft %s vanished while publishing", draftID)}
			}
			return err
		}
		if !draft.Published {
			return models.ErrorInvariantViolation{Message: fmt.Sprintf("draft %s not published after update", draftID)}
		}
		published = draft
		return nil
	})
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("draft_id", draftID).Str("post_id", postID).Msg("publish failed")
		return nil, err
	}

	publications.WithLabelValues("publish").Inc()
	zerolog.Ctx(ctx).Info().Str("draft_id", draftID).Str("post_id", postID).Msg("draft published")
	return published, nil
}

// Unpublish clears the flag on one draft. It is idempotent and leaves
// sibling drafts alone.
func (s *postService) Unpublish(ctx context.Context, draftID string) (*models.Draft, error) {
	draft, err := s.draftRepo.SetPublished(ctx, draftID, false)
	if err != nil {
		return nil, err
	}
	publications.WithLabelValues("unpublish").Inc()
	return draft, nil
}

func (s *postService) ListPublished(ctx context.Context) ([]models.Draft, error) {
	drafts, err := s.draftRepo.ListPublished(ctx)
	if err != nil {
		return nil, err
	}
	s.attachVisits(ctx, drafts)
	return drafts, nil
}

func (s *postService) PickRandomPublished(ctx context.Context) (*models.Draft, error) {
	drafts, err := s.draftRepo.ListPublished(ctx)
	if err != nil {
		return nil, err
	}
	if len(drafts) == 0 {
		return nil, models.ErrorNotFound{Resource: "published post"}
	}

	picked := drafts[s.intn(len(drafts))]
	if n, err := s.visitRepo.Increment(ctx, picked.ID); err == nil {
		picked.Visits = n
	} else {
		zerolog.Ctx(ctx).Warn().Err(err).Str("draft_id", picked.ID).Msg("visit not counted")
	}
	return &picked, nil
}

// attachVisits fills Visits from the counter. A counter outage leaves the
// counts at zero rather than failing the read.
func (s *postService) attachVisits(ctx context.Context, drafts []models.Draft) {
	if len(drafts) == 0 {
		return
	}
	ids := make([]string, len(drafts))
	for i := range drafts {
		ids[i] = drafts[i].ID
	}
	counts, err := s.visitRepo.Counts(ctx, ids...)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("visit counts unavailable")
		return
	}
	for i := range drafts {
		drafts[i].Visits = counts[drafts[i].ID]
	}
}
