package repositories

import (
	"context"

	"novabyte-blog/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TokenRepository interface {
	Create(ctx context.Context, personID string) (*models.RefreshToken, error)
	GetByID(ctx context.Context, id string) (*models.RefreshToken, error)
	SoftDelete(ctx context.Context, tokenID string, deletedBy string) (bool, error)
	SoftDeleteAllForPerson(ctx context.Context, personID string, deletedBy string) (int64, error)
}

type tokenRepository struct {
	db   *gorm.DB
	uow  Transactor
	meta MetaRepository
}

func NewTokenRepository(db *gorm.DB, uow Transactor, meta MetaRepository) TokenRepository {
	return &tokenRepository{db: db, uow: uow, meta: meta}
}

func (r *tokenRepository) Create(ctx context.Context, personID string) (*models.RefreshToken, error) {
	var created *models.RefreshToken
	err := r.uow.Do(ctx, func(ctx context.Context) error {
		meta, err := r.meta.Create(ctx, personID)
		if err != nil {
			return err
		}

		token := &models.RefreshToken{PersonID: personID, MetaID: meta.ID}
		if err := conn(ctx, r.db).Omit(clause.Associations).Create(token).Error; err != nil {
			return translateError(ctx, "insert refresh token", err)
		}

		created, err = r.GetByID(ctx, token.ID)
		return readBackMissing(err, "refresh token", token.ID)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetByID returns the token whether or not it has been revoked; callers
// check RefreshToken.Valid.
func (r *tokenRepository) GetByID(ctx context.Context, id string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := conn(ctx, r.db).Preload("Meta").Take(&token, "id = ?", id).Error; err != nil {
		return nil, translateLookup(ctx, "refresh token", id, err)
	}
	return &token, nil
}

// SoftDelete revokes one token. It reports false when the token was already
// revoked, which lets two concurrent refreshes of the same token race safely.
func (r *tokenRepository) SoftDelete(ctx context.Context, tokenID string, deletedBy string) (bool, error) {
	token, err := r.GetByID(ctx, tokenID)
	if err != nil {
		return false, err
	}
	n, err := r.meta.SoftDelete(ctx, []string{token.MetaID}, deletedBy)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *tokenRepository) SoftDeleteAllForPerson(ctx context.Context, personID string, deletedBy string) (int64, error) {
	var metaIDs []string
	err := conn(ctx, r.db).
		Model(&models.RefreshToken{}).
		Where("person_id = ?", personID).
		Pluck("meta_id", &metaIDs).Error
	if err != nil {
		return 0, translateError(ctx, "select refresh tokens", err)
	}
	return r.meta.SoftDelete(ctx, metaIDs, deletedBy)
}
