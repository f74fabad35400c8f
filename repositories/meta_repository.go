package repositories

import (
	"context"

	"novabyte-blog/models"

	"gorm.io/gorm"
)

// MetaRepository is the only writer of audit records. Rows change only to
// stamp a soft delete.
type MetaRepository interface {
	Create(ctx context.Context, createdBy string) (*models.Meta, error)
	GetByID(ctx context.Context, id string) (*models.Meta, error)
	SoftDelete(ctx context.Context, ids []string, deletedBy string) (int64, error)
}

type metaRepository struct {
	db  *gorm.DB
	now Clock
}

func NewMetaRepository(db *gorm.DB, clock Clock) MetaRepository {
	if clock == nil {
		clock = SystemClock
	}
	return &metaRepository{db: db, now: clock}
}

func (r *metaRepository) Create(ctx context.Context, createdBy string) (*models.Meta, error) {
	meta := &models.Meta{
		CreatedBy: createdBy,
		CreatedOn: r.now(),
	}
	if err := conn(ctx, r.db).Create(meta).Error; err != nil {
		return nil, translateError(ctx, "insert meta", err)
	}

	created, err := r.GetByID(ctx, meta.ID)
	if err != nil {
		return nil, readBackMissing(err, "meta", meta.ID)
	}
	return created, nil
}

func (r *metaRepository) GetByID(ctx context.Context, id string) (*models.Meta, error) {
	var meta models.Meta
	if err := conn(ctx, r.db).Take(&meta, "id = ?", id).Error; err != nil {
		return nil, translateLookup(ctx, "meta", id, err)
	}
	return &meta, nil
}

// SoftDelete stamps deleted_on/deleted_by on the given rows that are not
// already deleted and reports how many it stamped.
func (r *metaRepository) SoftDelete(ctx context.Context, ids []string, deletedBy string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := conn(ctx, r.db).
		Model(&models.Meta{}).
		Where("id IN ? AND deleted_on IS NULL", ids).
		Updates(map[string]interface{}{
			"deleted_on": r.now(),
			"deleted_by": deletedBy,
		})
	if res.Error != nil {
		return 0, translateError(ctx, "soft delete meta", res.Error)
	}
	return res.RowsAffected, nil
}
