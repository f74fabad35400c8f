package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Meta is the audit record shared by every aggregate. Rows are never
// hard-deleted; DeletedOn marks them logically gone.
type Meta struct {
	ID         string     `json:"id" gorm:"primarykey;size:36"`
	CreatedBy  string     `json:"created_by" gorm:"size:64;not null"`
	CreatedOn  time.Time  `json:"created_on" gorm:"not null;index"`
	ModifiedBy *string    `json:"modified_by"`
	ModifiedOn *time.Time `json:"modified_on"`
	DeletedBy  *string    `json:"deleted_by"`
	DeletedOn  *time.Time `json:"deleted_on"`
}

func (Meta) TableName() string {
	return "meta"
}

func (m *Meta) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = NewID()
	}
	return nil
}

func (m Meta) IsDeleted() bool {
	return m.DeletedOn != nil
}

// NewID returns a time-ordered identifier, so ids sort in creation order.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
