package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Author struct {
	bun.BaseModel `bun:"table:authors,alias:a"`

	ID          int        `bun:",pk,nullzero" json:"id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	FirstName   string     `bun:",notnull" json:"first_name"`
	LastName    string     `bun:",notnull" json:"last_name"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	DateOfDeath *time.Time `json:"date_of_death"`

	Books []*Book `bun:"rel:has-many,join:id=author_id" json:"books,omitempty"`
}

// String returns the name the way the catalog lists authors: "Last, First".
func (a *Author) String() string {
	return a.LastName + ", " + a.FirstName
}
