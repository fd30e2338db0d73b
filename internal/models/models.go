// Package models declares the records kept by the entity store.
package models

import (
	"strings"
	"time"
)

// Entity is a stored record addressable by table and primary key.
type Entity interface {
	TableName() string
	PrimaryKey() int64
}

// User is a Telegram user. ID is the Telegram user id and is never generated.
type User struct {
	ID        int64     `db:"id"`
	CreatedAt time.Time `db:"created_at"`
}

// TableName implements Entity.
func (User) TableName() string { return "users" }

// PrimaryKey implements Entity.
func (u User) PrimaryKey() int64 { return u.ID }

// Rubric is a user-owned category of links. Links is populated only when
// the fetch asked for related records; it is ordered by url.
type Rubric struct {
	ID          int64     `db:"id"`
	Name        string    `db:"name"`
	Description *string   `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
	UserID      int64     `db:"user_id"`

	Links []Link `db:"-"`
}

// TableName implements Entity.
func (Rubric) TableName() string { return "rubrics" }

// PrimaryKey implements Entity.
func (r Rubric) PrimaryKey() int64 { return r.ID }

// Link is a bookmarked url. A nil RubricID marks a non-rubric link. Rubric
// is populated only when the fetch asked for related records.
type Link struct {
	ID          int64     `db:"id"`
	URL         string    `db:"url"`
	Description *string   `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
	UserID      int64     `db:"user_id"`
	RubricID    *int64    `db:"rubric_id"`

	Rubric *Rubric `db:"-"`
}

// TableName implements Entity.
func (Link) TableName() string { return "links" }

// PrimaryKey implements Entity.
func (l Link) PrimaryKey() int64 { return l.ID }

// ShortURL strips the scheme and a leading www. for compact listings.
func (l Link) ShortURL() string {
	u := l.URL
	for _, prefix := range []string{"https://", "http://", "www."} {
		u = strings.TrimPrefix(u, prefix)
	}
	return u
}

// Bug is a user-submitted problem report. Shown flips once an admin has listed it.
type Bug struct {
	ID        int64     `db:"id"`
	Message   string    `db:"message"`
	CreatedAt time.Time `db:"created_at"`
	Shown     bool      `db:"is_shown"`
	UserID    int64     `db:"user_id"`
}

// TableName implements Entity.
func (Bug) TableName() string { return "bugs" }

// PrimaryKey implements Entity.
func (b Bug) PrimaryKey() int64 { return b.ID }

// RubricLinks pairs a rubric with its links for grouped listings. A nil
// Rubric holds the non-rubric links.
type RubricLinks struct {
	Rubric *Rubric
	Links  []Link
}
