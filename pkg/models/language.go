package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Language is the natural language a book is written in. The name is optional
// so that a language row can exist before anyone has typed it in.
type Language struct {
	bun.BaseModel `bun:"table:languages,alias:l"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      *string   `json:"name"`
}

func (l *Language) String() string {
	if l.Name == nil {
		return ""
	}
	return *l.Name
}
