package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type Person struct {
	ID       string `json:"id" gorm:"primarykey;size:36"`
	Username string `json:"username" gorm:"size:50;uniqueIndex;not null"`
	Email    string `json:"email" gorm:"size:255;uniqueIndex;not null"`
	PassHash string `json:"-" gorm:"not null"`
	IsAdmin  bool   `json:"is_admin" gorm:"not null"`
	MetaID   string `json:"-" gorm:"size:36;not null"`
	Meta     Meta   `json:"meta" gorm:"foreignKey:MetaID"`
}

func (Person) TableName() string {
	return "persons"
}

func (p *Person) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = NewID()
	}
	return nil
}

// RefreshToken is an opaque session handle. It is revoked by soft-deleting
// its meta row.
type RefreshToken struct {
	ID       string `json:"id" gorm:"primarykey;size:36"`
	PersonID string `json:"person_id" gorm:"size:36;not null;index"`
	MetaID   string `json:"-" gorm:"size:36;not null"`
	Meta     Meta   `json:"meta" gorm:"foreignKey:MetaID"`
}

func (t *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = NewID()
	}
	return nil
}

// Valid reports whether the token is neither revoked nor older than ttl.
func (t RefreshToken) Valid(now time.Time, ttl time.Duration) bool {
	if t.Meta.IsDeleted() {
		return false
	}
	return now.Before(t.Meta.CreatedOn.Add(ttl))
}

// Actor is the authenticated caller of a service operation. The zero value
// is an anonymous reader.
type Actor struct {
	ID      string
	IsAdmin bool
}

// CanManage reports whether the actor may change content created by ownerID.
func (a Actor) CanManage(ownerID string) bool {
	if a.IsAdmin {
		return true
	}
	return a.ID != "" && a.ID == ownerID
}

// Claims are carried by every access token.
type Claims struct {
	PersonID string `json:"person_id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// All lists every persisted model in dependency order.
func All() []interface{} {
	return []interface{}{
		&Meta{},
		&Person{},
		&RefreshToken{},
		&Post{},
		&Draft{},
	}
}
