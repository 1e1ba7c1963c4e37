package genres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type RetrieveGenreOptions struct {
	ID   *int
	Name *string
}

type ListGenresOptions struct {
	Limit  *int
	Offset *int
	Search *string

	includeTotal bool
}

type UpdateGenreOptions struct {
	Columns []string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// withBookCount selects every genre column plus the number of books tagged
// with it.
func withBookCount(q *bun.SelectQuery) *bun.SelectQuery {
	return q.
		ColumnExpr("g.*").
		ColumnExpr("(SELECT COUNT(*) FROM book_genres AS bgc WHERE bgc.genre_id = g.id) AS book_count")
}

func (svc *Service) CreateGenre(ctx context.Context, genre *models.Genre) error {
	genre.Name = strings.TrimSpace(genre.Name)
	if genre.Name == "" {
		return errcodes.ValidationError("Genre name cannot be empty")
	}

	name := genre.Name
	_, err := svc.RetrieveGenre(ctx, RetrieveGenreOptions{Name: &name})
	if err == nil {
		return errcodes.Conflict("A genre named " + name + " already exists")
	}
	if !errors.Is(err, errcodes.NotFound("Genre")) {
		return err
	}

	now := time.Now()
	if genre.CreatedAt.IsZero() {
		genre.CreatedAt = now
	}
	genre.UpdatedAt = genre.CreatedAt

	_, err = svc.db.
		NewInsert().
		Model(genre).
		Returning("*").
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) RetrieveGenre(ctx context.Context, opts RetrieveGenreOptions) (*models.Genre, error) {
	genre := &models.Genre{}

	q := withBookCount(svc.db.NewSelect().Model(genre))

	if opts.ID != nil {
		q = q.Where("g.id = ?", *opts.ID)
	}
	if opts.Name != nil {
		q = q.Where("g.name = ? COLLATE NOCASE", strings.TrimSpace(*opts.Name))
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Genre")
		}
		return nil, errors.WithStack(err)
	}

	return genre, nil
}

func (svc *Service) ListGenres(ctx context.Context, opts ListGenresOptions) ([]*models.Genre, error) {
	g, _, err := svc.listGenresWithTotal(ctx, opts)
	return g, errors.WithStack(err)
}

func (svc *Service) ListGenresWithTotal(ctx context.Context, opts ListGenresOptions) ([]*models.Genre, int, error) {
	opts.includeTotal = true
	return svc.listGenresWithTotal(ctx, opts)
}

func (svc *Service) listGenresWithTotal(ctx context.Context, opts ListGenresOptions) ([]*models.Genre, int, error) {
	var genres []*models.Genre
	var total int
	var err error

	q := withBookCount(svc.db.NewSelect().Model(&genres)).
		OrderExpr("g.name COLLATE NOCASE ASC")

	if opts.Search != nil && strings.TrimSpace(*opts.Search) != "" {
		q = q.Where("g.name LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.TrimSpace(*opts.Search))+"%")
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

	return genres, total, nil
}

func (svc *Service) UpdateGenre(ctx context.Context, genre *models.Genre, opts UpdateGenreOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	now := time.Now()
	genre.UpdatedAt = now
	columns := append(opts.Columns, "updated_at")

	res, err := svc.db.
		NewUpdate().
		Model(genre).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errcodes.NotFound("Genre")
	}
	return nil
}

// RenameGenre renames a genre. When another genre already carries the new
// name the two are merged and the surviving genre is returned.
func (svc *Service) RenameGenre(ctx context.Context, genre *models.Genre, name string) (*models.Genre, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errcodes.ValidationError("Genre name cannot be empty")
	}
	if name == genre.Name {
		return genre, nil
	}

	existing, err := svc.RetrieveGenre(ctx, RetrieveGenreOptions{Name: &name})
	switch {
	case err == nil && existing.ID != genre.ID:
		if err := svc.MergeGenres(ctx, existing.ID, genre.ID); err != nil {
			return nil, err
		}
		return svc.RetrieveGenre(ctx, RetrieveGenreOptions{ID: &existing.ID})
	case err != nil && !errors.Is(err, errcodes.NotFound("Genre")):
		return nil, err
	}

	// Simple rename, possibly only changing case.
	genre.Name = name
	if err := svc.UpdateGenre(ctx, genre, UpdateGenreOptions{Columns: []string{"name"}}); err != nil {
		return nil, err
	}
	return svc.RetrieveGenre(ctx, RetrieveGenreOptions{ID: &genre.ID})
}

// DeleteGenre deletes a genre and all book associations.
func (svc *Service) DeleteGenre(ctx context.Context, genreID int) error {
	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*models.BookGenre)(nil)).
			Where("genre_id = ?", genreID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		res, err := tx.NewDelete().
			Model((*models.Genre)(nil)).
			Where("id = ?", genreID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errcodes.NotFound("Genre")
		}
		return nil
	})
}

// GetBooks returns all books with this genre.
func (svc *Service) GetBooks(ctx context.Context, genreID int) ([]*models.Book, error) {
	var books []*models.Book

	err := svc.db.NewSelect().
		Model(&books).
		Relation("Author").
		Join("INNER JOIN book_genres bg ON bg.book_id = b.id").
		Where("bg.genre_id = ?", genreID).
		Order("b.title ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return books, nil
}

// MergeGenres merges sourceGenre into targetGenre (moves all associations, deletes source).
func (svc *Service) MergeGenres(ctx context.Context, targetID, sourceID int) error {
	if targetID == sourceID {
		return errcodes.ValidationError("A genre can't be merged into itself")
	}
	for _, id := range []int{targetID, sourceID} {
		id := id
		if _, err := svc.RetrieveGenre(ctx, RetrieveGenreOptions{ID: &id}); err != nil {
			return err
		}
	}

	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		// Move the source's books that aren't already tagged with the target
		// so the unique (book_id, genre_id) index holds.
		_, err := tx.NewRaw(`
			UPDATE book_genres
			SET genre_id = ?
			WHERE genre_id = ?
			AND book_id NOT IN (SELECT book_id FROM book_genres WHERE genre_id = ?)
		`, targetID, sourceID, targetID).Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = tx.NewDelete().
			Model((*models.BookGenre)(nil)).
			Where("genre_id = ?", sourceID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = tx.NewDelete().
			Model((*models.Genre)(nil)).
			Where("id = ?", sourceID).
			Exec(ctx)
		return errors.WithStack(err)
	})
}

// CleanupOrphanedGenres deletes genres with no book associations.
func (svc *Service) CleanupOrphanedGenres(ctx context.Context) (int, error) {
	result, err := svc.db.NewDelete().
		Model((*models.Genre)(nil)).
		Where("id NOT IN (SELECT DISTINCT genre_id FROM book_genres)").
		Exec(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	n, _ := result.RowsAffected()
	return int(n), nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
