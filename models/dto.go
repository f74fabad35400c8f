package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

type SignUpRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LogInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type AuthResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	Person       Person    `json:"person"`
}

type CreateDraftRequest struct {
	PostID    *string `json:"post_id" validate:"omitempty,max=36"`
	Title     string  `json:"title" validate:"required,min=1,max=255"`
	Body      string  `json:"body"`
	Image     string  `json:"image" validate:"omitempty,max=1024"`
	Published bool    `json:"published"`
}

type ImageResponse struct {
	URL string `json:"url"`
}

// SignUpInput is what the auth service accepts once the transport layer has
// decoded a request.
type SignUpInput struct {
	Username string
	Email    string
	Password string
}

func (in SignUpInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Username, validation.Required, validation.Length(3, 50)),
		validation.Field(&in.Email, validation.Required, is.EmailFormat),
		validation.Field(&in.Password, validation.Required, validation.Length(8, 72)),
	)
}

// CreateDraftInput starts a new post when PostID is nil, otherwise adds a
// draft to that post.
type CreateDraftInput struct {
	PostID    *string
	Title     string
	Body      string
	Image     string
	Published bool
}

func (in CreateDraftInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.PostID, validation.NilOrNotEmpty),
		validation.Field(&in.Title, validation.Required, validation.Length(1, MaxTitleLength)),
		validation.Field(&in.Image, validation.Length(0, MaxImageLength)),
	)
}

func (r CreateDraftRequest) Input() CreateDraftInput {
	return CreateDraftInput{
		PostID:    r.PostID,
		Title:     r.Title,
		Body:      r.Body,
		Image:     r.Image,
		Published: r.Published,
	}
}
