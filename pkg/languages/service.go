package languages

import (
	"context"
	"database/sql"
	"time"

	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type ListLanguagesOptions struct {
	Limit  *int
	Offset *int

	includeTotal bool
}

type UpdateLanguageOptions struct {
	Columns []string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) CreateLanguage(ctx context.Context, lang *models.Language) error {
	now := time.Now()
	if lang.CreatedAt.IsZero() {
		lang.CreatedAt = now
	}
	lang.UpdatedAt = lang.CreatedAt

	_, err := svc.db.
		NewInsert().
		Model(lang).
		Returning("*").
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) RetrieveLanguage(ctx context.Context, id int) (*models.Language, error) {
	lang := &models.Language{}
	err := svc.db.
		NewSelect().
		Model(lang).
		Where("l.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Language")
		}
		return nil, errors.WithStack(err)
	}
	return lang, nil
}

func (svc *Service) ListLanguages(ctx context.Context, opts ListLanguagesOptions) ([]*models.Language, error) {
	l, _, err := svc.listLanguagesWithTotal(ctx, opts)
	return l, errors.WithStack(err)
}

func (svc *Service) ListLanguagesWithTotal(ctx context.Context, opts ListLanguagesOptions) ([]*models.Language, int, error) {
	opts.includeTotal = true
	return svc.listLanguagesWithTotal(ctx, opts)
}

func (svc *Service) listLanguagesWithTotal(ctx context.Context, opts ListLanguagesOptions) ([]*models.Language, int, error) {
	var langs []*models.Language
	var total int
	var err error

	// Unnamed languages sort last.
	q := svc.db.
		NewSelect().
		Model(&langs).
		OrderExpr("l.name IS NULL, l.name COLLATE NOCASE ASC, l.id ASC")

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

	return langs, total, nil
}

func (svc *Service) UpdateLanguage(ctx context.Context, lang *models.Language, opts UpdateLanguageOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	lang.UpdatedAt = time.Now()
	columns := append(opts.Columns, "updated_at")

	res, err := svc.db.
		NewUpdate().
		Model(lang).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errcodes.NotFound("Language")
	}
	return nil
}

// DeleteLanguage deletes a language. Books written in it keep existing with
// no language.
func (svc *Service) DeleteLanguage(ctx context.Context, id int) error {
	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewUpdate().
			Model((*models.Book)(nil)).
			Set("language_id = NULL").
			Set("updated_at = ?", time.Now()).
			Where("language_id = ?", id).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		res, err := tx.NewDelete().
			Model((*models.Language)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errcodes.NotFound("Language")
		}
		return nil
	})
}
