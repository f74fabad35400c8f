package repositories

import (
	"context"

	"novabyte-blog/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PersonRepository interface {
	Create(ctx context.Context, person *models.Person, createdBy string) (*models.Person, error)
	GetByID(ctx context.Context, id string) (*models.Person, error)
	GetByEmail(ctx context.Context, email string) (*models.Person, error)
	List(ctx context.Context) ([]models.Person, error)
}

type personRepository struct {
	db   *gorm.DB
	uow  Transactor
	meta MetaRepository
}

func NewPersonRepository(db *gorm.DB, uow Transactor, meta MetaRepository) PersonRepository {
	return &personRepository{db: db, uow: uow, meta: meta}
}

func (r *personRepository) Create(ctx context.Context, person *models.Person, createdBy string) (*models.Person, error) {
	var created *models.Person
	err := r.uow.Do(ctx, func(ctx context.Context) error {
		meta, err := r.meta.Create(ctx, createdBy)
		if err != nil {
			return err
		}

		person.MetaID = meta.ID
		if err := conn(ctx, r.db).Omit(clause.Associations).Create(person).Error; err != nil {
			return translateError(ctx, "insert person", err)
		}

		created, err = r.GetByID(ctx, person.ID)
		return readBackMissing(err, "person", person.ID)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *personRepository) GetByID(ctx context.Context, id string) (*models.Person, error) {
	return r.takeLive(ctx, "id", id)
}

func (r *personRepository) GetByEmail(ctx context.Context, email string) (*models.Person, error) {
	return r.takeLive(ctx, "email", email)
}

func (r *personRepository) takeLive(ctx context.Context, column, value string) (*models.Person, error) {
	var person models.Person
	err := conn(ctx, r.db).
		Joins("JOIN meta ON meta.id = persons.meta_id AND meta.deleted_on IS NULL").
		Preload("Meta").
		Where("persons."+column+" = ?", value).
		Take(&person).Error
	if err != nil {
		return nil, translateLookup(ctx, "person", value, err)
	}
	return &person, nil
}

func (r *personRepository) List(ctx context.Context) ([]models.Person, error) {
	var persons []models.Person
	err := conn(ctx, r.db).
		Joins("JOIN meta ON meta.id = persons.meta_id AND meta.deleted_on IS NULL").
		Preload("Meta").
		Order("persons.username ASC").
		Find(&persons).Error
	if err != nil {
		return nil, translateError(ctx, "select persons", err)
	}
	return persons, nil
}
