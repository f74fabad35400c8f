package repositories

import (
	"context"

	"novabyte-blog/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DraftRepository interface {
	Create(ctx context.Context, draft *models.Draft) (*models.Draft, error)
	GetByID(ctx context.Context, id string) (*models.Draft, error)
	GetPostID(ctx context.Context, draftID string) (string, error)
	ListByPost(ctx context.Context, postID string) ([]models.Draft, error)
	GetCurrent(ctx context.Context, postID string) (*models.Draft, error)
	GetLatestPublished(ctx context.Context, postID string) (*models.Draft, error)
	ListUnpublishedPostIDs(ctx context.Context) ([]string, error)
	ListPublished(ctx context.Context) ([]models.Draft, error)
	UnpublishAllForPost(ctx context.Context, postID string) error
	SetPublished(ctx context.Context, draftID string, published bool) (*models.Draft, error)
}

type draftRepository struct {
	db  *gorm.DB
	now Clock
}

func NewDraftRepository(db *gorm.DB, clock Clock) DraftRepository {
	if clock == nil {
		clock = SystemClock
	}
	return &draftRepository{db: db, now: clock}
}

// newestFirst orders drafts by creation time; ids are time ordered so they
// break ties the same way.
const newestFirst = "drafts.created_at DESC, drafts.id DESC"

// liveMeta keeps list projections to posts whose meta is not soft-deleted.
const liveMeta = "JOIN meta ON meta.id = drafts.meta_id AND meta.deleted_on IS NULL"

func (r *draftRepository) Create(ctx context.Context, draft *models.Draft) (*models.Draft, error) {
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = r.now()
	}
	if err := conn(ctx, r.db).Omit(clause.Associations).Create(draft).Error; err != nil {
		return nil, translateError(ctx, "insert draft", err)
	}

	created, err := r.GetByID(ctx, draft.ID)
	if err != nil {
		return nil, readBackMissing(err, "draft", draft.ID)
	}
	return created, nil
}

func (r *draftRepository) GetByID(ctx context.Context, id string) (*models.Draft, error) {
	var draft models.Draft
	if err := conn(ctx, r.db).Preload("Meta").Take(&draft, "id = ?", id).Error; err != nil {
		return nil, translateLookup(ctx, "draft", id, err)
	}
	return &draft, nil
}

func (r *draftRepository) GetPostID(ctx context.Context, draftID string) (string, error) {
	var draft models.Draft
	err := conn(ctx, r.db).Select("id", "post_id").Take(&draft, "id = ?", draftID).Error
	if err != nil {
		return "", translateLookup(ctx, "draft", draftID, err)
	}
	return draft.PostID, nil
}

func (r *draftRepository) ListByPost(ctx context.Context, postID string) ([]models.Draft, error) {
	var drafts []models.Draft
	err := conn(ctx, r.db).
		Preload("Meta").
		Where("post_id = ?", postID).
		Order(newestFirst).
		Find(&drafts).Error
	if err != nil {
		return nil, translateError(ctx, "select drafts", err)
	}
	return drafts, nil
}

// GetCurrent returns the newest unpublished draft of a post.
func (r *draftRepository) GetCurrent(ctx context.Context, postID string) (*models.Draft, error) {
	return r.newestWhere(ctx, postID, false)
}

// GetLatestPublished returns the newest published draft of a post.
func (r *draftRepository) GetLatestPublished(ctx context.Context, postID string) (*models.Draft, error) {
	return r.newestWhere(ctx, postID, true)
}

func (r *draftRepository) newestWhere(ctx context.Context, postID string, published bool) (*models.Draft, error) {
	var draft models.Draft
	err := conn(ctx, r.db).
		Preload("Meta").
		Where("post_id = ? AND published = ?", postID, published).
		Order(newestFirst).
		Limit(1).
		Take(&draft).Error
	if err != nil {
		resource := "current draft of post"
		if published {
			resource = "published draft of post"
		}
		return nil, translateLookup(ctx, resource, postID, err)
	}
	return &draft, nil
}

// ListUnpublishedPostIDs returns posts that have drafts but none published,
// most recently drafted first.
func (r *draftRepository) ListUnpublishedPostIDs(ctx context.Context) ([]string, error) {
	published := conn(ctx, r.db).
		Model(&models.Draft{}).
		Select("post_id").
		Where("published = ?", true)

	var ids []string
	err := conn(ctx, r.db).
		Model(&models.Draft{}).
		Joins(liveMeta).
		Where("drafts.post_id NOT IN (?)", published).
		Group("drafts.post_id").
		Order("MAX(drafts.created_at) DESC").
		Pluck("drafts.post_id", &ids).Error
	if err != nil {
		return nil, translateError(ctx, "select unpublished posts", err)
	}
	return ids, nil
}

func (r *draftRepository) ListPublished(ctx context.Context) ([]models.Draft, error) {
	var drafts []models.Draft
	err := conn(ctx, r.db).
		Preload("Meta").
		Joins(liveMeta).
		Where("drafts.published = ?", true).
		Order(newestFirst).
		Find(&drafts).Error
	if err != nil {
		return nil, translateError(ctx, "select published drafts", err)
	}
	return drafts, nil
}

func (r *draftRepository) UnpublishAllForPost(ctx context.Context, postID string) error {
	err := conn(ctx, r.db).
		Model(&models.Draft{}).
		Where("post_id = ?", postID).
		Update("published", false).Error
	if err != nil {
		return translateError(ctx, "unpublish drafts", err)
	}
	return nil
}

// SetPublished writes the flag on exactly one draft and reads the row back.
// Affected-row counts are not trusted since MySQL reports zero for a no-op
// update.
func (r *draftRepository) SetPublished(ctx context.Context, draftID string, published bool) (*models.Draft, error) {
	err := conn(ctx, r.db).
		Model(&models.Draft{}).
		Where("id = ?", draftID).
		Update("published", published).Error
	if err != nil {
		return nil, translateError(ctx, "update draft", err)
	}
	return r.GetByID(ctx, draftID)
}
