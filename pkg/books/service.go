package books

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/uptrace/bun"
)

type RetrieveBookOptions struct {
	ID               *int
	ISBN             *string
	IncludeInstances bool
}

type ListBooksOptions struct {
	Limit      *int
	Offset     *int
	AuthorID   *int
	GenreID    *int
	LanguageID *int
	Search     *string

	includeTotal bool
}

type UpdateBookOptions struct {
	Columns []string
	// GenreIDs replaces the book's genres when set.
	GenreIDs *[]int
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// checkReferences makes sure the author, language and genres a book points
// at exist.
func checkReferences(ctx context.Context, db bun.IDB, book *models.Book, genreIDs []int) error {
	if book.AuthorID != nil {
		exists, err := db.NewSelect().Model((*models.Author)(nil)).Where("id = ?", *book.AuthorID).Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if !exists {
			return errcodes.ValidationError(fmt.Sprintf("Author %d doesn't exist", *book.AuthorID))
		}
	}
	if book.LanguageID != nil {
		exists, err := db.NewSelect().Model((*models.Language)(nil)).Where("id = ?", *book.LanguageID).Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if !exists {
			return errcodes.ValidationError(fmt.Sprintf("Language %d doesn't exist", *book.LanguageID))
		}
	}
	if len(genreIDs) > 0 {
		var found []int
		err := db.NewSelect().
			Model((*models.Genre)(nil)).
			Column("id").
			Where("id IN (?)", bun.In(genreIDs)).
			Scan(ctx, &found)
		if err != nil {
			return errors.WithStack(err)
		}
		if missing, _ := lo.Difference(genreIDs, found); len(missing) > 0 {
			return errcodes.ValidationError(fmt.Sprintf("Genre %d doesn't exist", missing[0]))
		}
	}
	return nil
}

func (svc *Service) checkISBN(ctx context.Context, db bun.IDB, isbn string, excludeID int) error {
	exists, err := db.NewSelect().
		Model((*models.Book)(nil)).
		Where("isbn = ?", isbn).
		Where("id != ?", excludeID).
		Exists(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if exists {
		return errcodes.Conflict("A book with ISBN " + isbn + " already exists")
	}
	return nil
}

func setGenres(ctx context.Context, tx bun.Tx, bookID int, genreIDs []int) error {
	_, err := tx.NewDelete().
		Model((*models.BookGenre)(nil)).
		Where("book_id = ?", bookID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	genreIDs = lo.Uniq(genreIDs)
	if len(genreIDs) == 0 {
		return nil
	}
	rows := lo.Map(genreIDs, func(id int, _ int) *models.BookGenre {
		return &models.BookGenre{BookID: bookID, GenreID: id}
	})
	_, err = tx.NewInsert().Model(&rows).Exec(ctx)
	return errors.WithStack(err)
}

// CreateBook inserts a book and tags it with genreIDs.
func (svc *Service) CreateBook(ctx context.Context, book *models.Book, genreIDs []int) error {
	now := time.Now()
	if book.CreatedAt.IsZero() {
		book.CreatedAt = now
	}
	book.UpdatedAt = book.CreatedAt

	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := svc.checkISBN(ctx, tx, book.ISBN, 0); err != nil {
			return err
		}
		if err := checkReferences(ctx, tx, book, genreIDs); err != nil {
			return err
		}

		_, err := tx.
			NewInsert().
			Model(book).
			Returning("*").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		return setGenres(ctx, tx, book.ID, genreIDs)
	})
}

func (svc *Service) RetrieveBook(ctx context.Context, opts RetrieveBookOptions) (*models.Book, error) {
	book := &models.Book{}

	q := svc.db.
		NewSelect().
		Model(book).
		Relation("Author").
		Relation("Language").
		Relation("Genres", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Order("bg.id ASC")
		}).
		Relation("Genres.Genre")

	if opts.IncludeInstances {
		q = q.Relation("Instances", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.OrderExpr("bi.due_back IS NULL, bi.due_back ASC, bi.id ASC")
		})
	}
	if opts.ID != nil {
		q = q.Where("b.id = ?", *opts.ID)
	}
	if opts.ISBN != nil {
		q = q.Where("b.isbn = ?", *opts.ISBN)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}

	return book, nil
}

func (svc *Service) ListBooks(ctx context.Context, opts ListBooksOptions) ([]*models.Book, error) {
	b, _, err := svc.listBooksWithTotal(ctx, opts)
	return b, errors.WithStack(err)
}

func (svc *Service) ListBooksWithTotal(ctx context.Context, opts ListBooksOptions) ([]*models.Book, int, error) {
	opts.includeTotal = true
	return svc.listBooksWithTotal(ctx, opts)
}

func (svc *Service) listBooksWithTotal(ctx context.Context, opts ListBooksOptions) ([]*models.Book, int, error) {
	books := []*models.Book{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&books).
		Relation("Author").
		Relation("Language").
		Relation("Genres", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Order("bg.id ASC")
		}).
		Relation("Genres.Genre").
		Order("b.title ASC", "b.id ASC")

	if opts.AuthorID != nil {
		q = q.Where("b.author_id = ?", *opts.AuthorID)
	}
	if opts.LanguageID != nil {
		q = q.Where("b.language_id = ?", *opts.LanguageID)
	}
	if opts.GenreID != nil {
		q = q.Where("b.id IN (SELECT book_id FROM book_genres WHERE genre_id = ?)", *opts.GenreID)
	}
	if opts.Search != nil {
		if ftsQuery := buildFTSPrefixQuery(*opts.Search); ftsQuery != "" {
			q = q.Where("b.id IN (SELECT book_id FROM books_fts WHERE books_fts MATCH ?)", ftsQuery)
		}
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return books, total, nil
}

func (svc *Service) UpdateBook(ctx context.Context, book *models.Book, opts UpdateBookOptions) error {
	if len(opts.Columns) == 0 && opts.GenreIDs == nil {
		return nil
	}

	var genreIDs []int
	if opts.GenreIDs != nil {
		genreIDs = *opts.GenreIDs
	}

	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if lo.Contains(opts.Columns, "isbn") {
			if err := svc.checkISBN(ctx, tx, book.ISBN, book.ID); err != nil {
				return err
			}
		}
		if err := checkReferences(ctx, tx, book, genreIDs); err != nil {
			return err
		}

		book.UpdatedAt = time.Now()
		columns := append(opts.Columns, "updated_at")
		res, err := tx.
			NewUpdate().
			Model(book).
			Column(columns...).
			WherePK().
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errcodes.NotFound("Book")
		}

		if opts.GenreIDs != nil {
			return setGenres(ctx, tx, book.ID, genreIDs)
		}
		return nil
	})
}

// DeleteBook deletes a book and its genre tags. A book that still has copies
// can't be deleted.
func (svc *Service) DeleteBook(ctx context.Context, bookID int) error {
	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		copies, err := tx.NewSelect().
			Model((*models.BookInstance)(nil)).
			Where("book_id = ?", bookID).
			Count(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if copies > 0 {
			return errcodes.Conflict(fmt.Sprintf("Book has %d %s; delete them first", copies, lo.Ternary(copies == 1, "copy", "copies")))
		}

		_, err = tx.NewDelete().
			Model((*models.BookGenre)(nil)).
			Where("book_id = ?", bookID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		res, err := tx.NewDelete().
			Model((*models.Book)(nil)).
			Where("id = ?", bookID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errcodes.NotFound("Book")
		}
		return nil
	})
}

// buildFTSPrefixQuery builds an FTS5 query for prefix/typeahead search. Each
// word must prefix-match a word of the title or summary.
func buildFTSPrefixQuery(input string) string {
	const maxQueryLength = 100

	input = strings.TrimSpace(input)
	if runes := []rune(input); len(runes) > maxQueryLength {
		input = string(runes[:maxQueryLength])
	}

	terms := lo.Map(strings.Fields(input), func(word string, _ int) string {
		return `"` + strings.ReplaceAll(word, `"`, `""`) + `"*`
	})
	return strings.Join(terms, " ")
}
