package repositories

import (
	"context"
	"time"

	"novabyte-blog/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostRepository interface {
	Create(ctx context.Context, createdBy string) (*models.Post, error)
	GetByID(ctx context.Context, id string) (*models.Post, error)
	LockForUpdate(ctx context.Context, id string) error
	ListWithWorkingTitle(ctx context.Context) ([]models.PostSummary, error)
}

type postRepository struct {
	db   *gorm.DB
	uow  Transactor
	meta MetaRepository
}

func NewPostRepository(db *gorm.DB, uow Transactor, meta MetaRepository) PostRepository {
	return &postRepository{db: db, uow: uow, meta: meta}
}

// Create inserts the post's meta and the post in one unit of work, joining
// the caller's if ctx carries one.
func (r *postRepository) Create(ctx context.Context, createdBy string) (*models.Post, error) {
	var created *models.Post
	err := r.uow.Do(ctx, func(ctx context.Context) error {
		meta, err := r.meta.Create(ctx, createdBy)
		if err != nil {
			return err
		}

		post := &models.Post{MetaID: meta.ID}
		if err := conn(ctx, r.db).Omit(clause.Associations).Create(post).Error; err != nil {
			return translateError(ctx, "insert post", err)
		}

		created, err = r.GetByID(ctx, post.ID)
		return readBackMissing(err, "post", post.ID)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// LockForUpdate takes a row lock on the post until the unit of work on ctx
// ends, serializing writers that change which of its drafts is published.
// SQLite has no row locks; its single writer already serializes them.
func (r *postRepository) LockForUpdate(ctx context.Context, id string) error {
	q := conn(ctx, r.db)
	if q.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var post models.Post
	if err := q.Select("id").Take(&post, "id = ?", id).Error; err != nil {
		return translateLookup(ctx, "post", id, err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := conn(ctx, r.db).Preload("Meta").Take(&post, "id = ?", id).Error; err != nil {
		return nil, translateLookup(ctx, "post", id, err)
	}
	return &post, nil
}

type postSummaryRow struct {
	ID           string
	WorkingTitle *string
	MetaID       string
	CreatedBy    string
	CreatedOn    time.Time
	ModifiedBy   *string
	ModifiedOn   *time.Time
	DeletedBy    *string
	DeletedOn    *time.Time
}

// ListWithWorkingTitle returns every live post with the title of its newest
// draft, newest post first. The title is computed here and never stored.
func (r *postRepository) ListWithWorkingTitle(ctx context.Context) ([]models.PostSummary, error) {
	var rows []postSummaryRow
	err := conn(ctx, r.db).Raw(`
		SELECT p.id AS id,
			(SELECT d.title FROM drafts d
				WHERE d.post_id = p.id
				ORDER BY d.created_at DESC, d.id DESC
				LIMIT 1) AS working_title,
			m.id AS meta_id,
			m.created_by AS created_by,
			m.created_on AS created_on,
			m.modified_by AS modified_by,
			m.modified_on AS modified_on,
			m.deleted_by AS deleted_by,
			m.deleted_on AS deleted_on
		FROM posts p
		JOIN meta m ON m.id = p.meta_id
		WHERE m.deleted_on IS NULL
		ORDER BY m.created_on DESC, p.id DESC`).Scan(&rows).Error
	if err != nil {
		return nil, translateError(ctx, "select posts", err)
	}

	summaries := make([]models.PostSummary, 0, len(rows))
	for _, row := range rows {
		summary := models.PostSummary{
			ID: row.ID,
			Meta: models.Meta{
				ID:         row.MetaID,
				CreatedBy:  row.CreatedBy,
				CreatedOn:  row.CreatedOn,
				ModifiedBy: row.ModifiedBy,
				ModifiedOn: row.ModifiedOn,
				DeletedBy:  row.DeletedBy,
				DeletedOn:  row.DeletedOn,
			},
		}
		if row.WorkingTitle != nil {
			summary.WorkingTitle = *row.WorkingTitle
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}
