package models

import (
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/uptrace/bun"
)

// displayGenreLimit is how many genre names DisplayGenre includes.
const displayGenreLimit = 3

type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID         int             `bun:",pk,nullzero" json:"id"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	Title      string          `bun:",notnull" json:"title"`
	AuthorID   *int            `json:"author_id"`
	Author     *Author         `bun:"rel:belongs-to,join:author_id=id" json:"author,omitempty"`
	Summary    string          `bun:",notnull" json:"summary"`
	ISBN       string          `bun:"isbn,notnull" json:"isbn"`
	LanguageID *int            `json:"language_id"`
	Language   *Language       `bun:"rel:belongs-to,join:language_id=id" json:"language,omitempty"`
	Genres     []*BookGenre    `bun:"rel:has-many,join:id=book_id" json:"genres,omitempty"`
	Instances  []*BookInstance `bun:"rel:has-many,join:id=book_id" json:"instances,omitempty"`
}

// GenreNames returns the names of the loaded genres, in load order.
func (b *Book) GenreNames() []string {
	genres := lo.Filter(b.Genres, func(bg *BookGenre, _ int) bool {
		return bg.Genre != nil
	})
	return lo.Map(genres, func(bg *BookGenre, _ int) string {
		return bg.Genre.Name
	})
}

// DisplayGenre is the short genre summary shown in listings: the first three
// genre names joined with ", ".
func (b *Book) DisplayGenre() string {
	names := b.GenreNames()
	if len(names) > displayGenreLimit {
		names = names[:displayGenreLimit]
	}
	return strings.Join(names, ", ")
}
