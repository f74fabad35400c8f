package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	MaxTitleLength = 255
	MaxImageLength = 1024
)

// Post is the stable identity behind a series of drafts. It has no
// content of its own.
type Post struct {
	ID     string `json:"id" gorm:"primarykey;size:36"`
	MetaID string `json:"-" gorm:"size:36;not null;index"`
	Meta   Meta   `json:"meta" gorm:"foreignKey:MetaID"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = NewID()
	}
	return nil
}

// PostSummary is a read-side projection: the post plus the title of its
// newest draft, whatever that draft's publication state.
type PostSummary struct {
	ID           string `json:"id"`
	WorkingTitle string `json:"working_title"`
	Meta         Meta   `json:"meta"`
}

// Draft is one immutable-content version of a post.
type Draft struct {
	ID        string         `json:"id" gorm:"primarykey;size:36"`
	PostID    string         `json:"post_id" gorm:"size:36;not null;index:idx_drafts_post_created,priority:1"`
	Post      *Post          `json:"-" gorm:"foreignKey:PostID"`
	AuthorID  string         `json:"author_id" gorm:"size:36;not null;index"`
	Title     string         `json:"title" gorm:"size:255;not null"`
	Body      CompressedText `json:"body"`
	Image     string         `json:"image" gorm:"size:1024"`
	Published bool           `json:"published" gorm:"not null;index"`
	CreatedAt time.Time      `json:"created_at" gorm:"not null;index:idx_drafts_post_created,priority:2"`
	MetaID    string         `json:"-" gorm:"size:36;not null"`
	Meta      Meta           `json:"meta" gorm:"foreignKey:MetaID"`
	Visits    int64          `json:"visits" gorm:"-"`
}

func (d *Draft) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = NewID()
	}
	return nil
}
