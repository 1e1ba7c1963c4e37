package books

import (
	"github.com/locallibrary/catalog/pkg/models"
)

type ListBooksQuery struct {
	Limit      int     `query:"limit" json:"limit,omitempty" default:"24" validate:"min=1,max=100"`
	Offset     int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	AuthorID   *int    `query:"author_id" json:"author_id,omitempty" validate:"omitempty,min=1"`
	GenreID    *int    `query:"genre_id" json:"genre_id,omitempty" validate:"omitempty,min=1"`
	LanguageID *int    `query:"language_id" json:"language_id,omitempty" validate:"omitempty,min=1"`
	Search     *string `query:"search" json:"search,omitempty" validate:"omitempty,max=100"`
}

// CreateBookPayload is shared by the JSON API and the HTML book form.
type CreateBookPayload struct {
	Title      string `json:"title" form:"title" mod:"trim" validate:"required,max=200"`
	AuthorID   *int   `json:"author_id" form:"author_id" validate:"omitempty,min=1"`
	Summary    string `json:"summary" form:"summary" mod:"trim" validate:"max=1000"`
	ISBN       string `json:"isbn" form:"isbn" mod:"trim,isbn" validate:"required,isbn13"`
	LanguageID *int   `json:"language_id" form:"language_id" validate:"omitempty,min=1"`
	GenreIDs   []int  `json:"genre_ids" form:"genre_ids" validate:"dive,min=1"`
}

// Apply copies the payload onto book and returns the columns it set.
func (p CreateBookPayload) Apply(book *models.Book) []string {
	book.Title = p.Title
	book.AuthorID = p.AuthorID
	book.Summary = p.Summary
	book.ISBN = p.ISBN
	book.LanguageID = p.LanguageID
	return []string{"title", "author_id", "summary", "isbn", "language_id"}
}

// UpdateBookPayload only touches the fields that are present. Setting
// clear_author or clear_language detaches the book.
type UpdateBookPayload struct {
	Title         *string `json:"title,omitempty" mod:"trim" validate:"omitempty,min=1,max=200"`
	AuthorID      *int    `json:"author_id,omitempty" validate:"omitempty,min=1"`
	ClearAuthor   bool    `json:"clear_author,omitempty"`
	Summary       *string `json:"summary,omitempty" mod:"trim" validate:"omitempty,max=1000"`
	ISBN          *string `json:"isbn,omitempty" mod:"trim,isbn" validate:"omitempty,isbn13"`
	LanguageID    *int    `json:"language_id,omitempty" validate:"omitempty,min=1"`
	ClearLanguage bool    `json:"clear_language,omitempty"`
	GenreIDs      *[]int  `json:"genre_ids,omitempty"`
}

// Apply copies the present fields onto book and returns the columns that
// changed.
func (p UpdateBookPayload) Apply(book *models.Book) []string {
	columns := []string{}

	if p.Title != nil && *p.Title != book.Title {
		book.Title = *p.Title
		columns = append(columns, "title")
	}
	if p.ClearAuthor {
		book.AuthorID = nil
		columns = append(columns, "author_id")
	} else if p.AuthorID != nil {
		book.AuthorID = p.AuthorID
		columns = append(columns, "author_id")
	}
	if p.Summary != nil && *p.Summary != book.Summary {
		book.Summary = *p.Summary
		columns = append(columns, "summary")
	}
	if p.ISBN != nil && *p.ISBN != book.ISBN {
		book.ISBN = *p.ISBN
		columns = append(columns, "isbn")
	}
	if p.ClearLanguage {
		book.LanguageID = nil
		columns = append(columns, "language_id")
	} else if p.LanguageID != nil {
		book.LanguageID = p.LanguageID
		columns = append(columns, "language_id")
	}

	return columns
}
