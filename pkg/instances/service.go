package instances

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/uptrace/bun"
)

type RetrieveInstanceOptions struct {
	ID string
}

type ListInstancesOptions struct {
	Limit       *int
	Offset      *int
	BookID      *int
	BorrowerID  *int
	Statuses    []string
	DueBackFrom *time.Time
	DueBackTo   *time.Time

	includeTotal bool
}

type UpdateInstanceOptions struct {
	Columns []string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// normalizeLoan enforces that a copy has a borrower exactly when it is on
// loan. Copies in any other state lose their borrower.
func normalizeLoan(instance *models.BookInstance) error {
	if instance.Status != models.LoanStatusOnLoan {
		instance.BorrowerID = nil
		return nil
	}
	if instance.BorrowerID == nil {
		return errcodes.ValidationError("A copy on loan needs a borrower")
	}
	return nil
}

func checkBook(ctx context.Context, db bun.IDB, bookID int) error {
	exists, err := db.NewSelect().Model((*models.Book)(nil)).Where("id = ?", bookID).Exists(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if !exists {
		return errcodes.ValidationError(fmt.Sprintf("Book %d doesn't exist", bookID))
	}
	return nil
}

// checkBorrower makes sure a borrower being assigned is an active user.
// Existing loans keep their borrower after deactivation, so this only runs
// when borrower_id is written with a new value.
func checkBorrower(ctx context.Context, db bun.IDB, borrowerID *int) error {
	if borrowerID == nil {
		return nil
	}
	exists, err := db.NewSelect().
		Model((*models.User)(nil)).
		Where("id = ?", *borrowerID).
		Where("is_active = ?", true).
		Exists(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if !exists {
		return errcodes.ValidationError(fmt.Sprintf("User %d doesn't exist", *borrowerID))
	}
	return nil
}

// CreateInstance inserts a new copy. The ID is generated unless one is set.
func (svc *Service) CreateInstance(ctx context.Context, instance *models.BookInstance) error {
	if instance.ID == "" {
		instance.ID = uuid.NewString()
	}
	if instance.Status == "" {
		instance.Status = models.LoanStatusMaintenance
	}
	if err := normalizeLoan(instance); err != nil {
		return err
	}
	if err := checkBook(ctx, svc.db, instance.BookID); err != nil {
		return err
	}
	if err := checkBorrower(ctx, svc.db, instance.BorrowerID); err != nil {
		return err
	}

	now := time.Now()
	if instance.CreatedAt.IsZero() {
		instance.CreatedAt = now
	}
	instance.UpdatedAt = instance.CreatedAt

	_, err := svc.db.
		NewInsert().
		Model(instance).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func (svc *Service) RetrieveInstance(ctx context.Context, opts RetrieveInstanceOptions) (*models.BookInstance, error) {
	if _, err := uuid.Parse(opts.ID); err != nil {
		return nil, errcodes.NotFound("Book instance")
	}

	instance := &models.BookInstance{}
	err := svc.db.
		NewSelect().
		Model(instance).
		Relation("Book").
		Relation("Book.Author").
		Relation("Borrower").
		Where("bi.id = ?", opts.ID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book instance")
		}
		return nil, errors.WithStack(err)
	}

	return instance, nil
}

func (svc *Service) ListInstances(ctx context.Context, opts ListInstancesOptions) ([]*models.BookInstance, error) {
	i, _, err := svc.listInstancesWithTotal(ctx, opts)
	return i, errors.WithStack(err)
}

func (svc *Service) ListInstancesWithTotal(ctx context.Context, opts ListInstancesOptions) ([]*models.BookInstance, int, error) {
	opts.includeTotal = true
	return svc.listInstancesWithTotal(ctx, opts)
}

func (svc *Service) listInstancesWithTotal(ctx context.Context, opts ListInstancesOptions) ([]*models.BookInstance, int, error) {
	instances := []*models.BookInstance{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&instances).
		Relation("Book").
		Relation("Book.Author").
		Relation("Borrower").
		OrderExpr("bi.due_back IS NULL, bi.due_back ASC, bi.id ASC")

	if opts.BookID != nil {
		q = q.Where("bi.book_id = ?", *opts.BookID)
	}
	if opts.BorrowerID != nil {
		q = q.Where("bi.borrower_id = ?", *opts.BorrowerID)
	}
	if len(opts.Statuses) > 0 {
		q = q.Where("bi.status IN (?)", bun.In(opts.Statuses))
	}
	if opts.DueBackFrom != nil {
		q = q.Where("bi.due_back >= ?", models.Day(*opts.DueBackFrom))
	}
	if opts.DueBackTo != nil {
		q = q.Where("bi.due_back <= ?", models.Day(*opts.DueBackTo))
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

	return instances, total, nil
}

// UpdateInstance writes the given columns. Status and borrower are always
// written together so the loan state stays consistent.
func (svc *Service) UpdateInstance(ctx context.Context, instance *models.BookInstance, opts UpdateInstanceOptions) error {
	return svc.updateInstance(ctx, svc.db, instance, opts)
}

func (svc *Service) updateInstance(ctx context.Context, db bun.IDB, instance *models.BookInstance, opts UpdateInstanceOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	if lo.Contains(opts.Columns, "book_id") {
		if err := checkBook(ctx, db, instance.BookID); err != nil {
			return err
		}
	}

	columns := opts.Columns
	if lo.Contains(columns, "status") || lo.Contains(columns, "borrower_id") {
		if err := normalizeLoan(instance); err != nil {
			return err
		}
		columns = lo.Uniq(append(columns, "status", "borrower_id"))
	}
	if lo.Contains(opts.Columns, "borrower_id") {
		if err := checkBorrower(ctx, db, instance.BorrowerID); err != nil {
			return err
		}
	}

	instance.UpdatedAt = time.Now()
	columns = append(columns, "updated_at")

	res, err := db.
		NewUpdate().
		Model(instance).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errcodes.NotFound("Book instance")
	}

	return nil
}

func (svc *Service) DeleteInstance(ctx context.Context, id string) error {
	res, err := svc.db.
		NewDelete().
		Model((*models.BookInstance)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errcodes.NotFound("Book instance")
	}
	return nil
}

// UpdateInstanceTx is UpdateInstance inside the caller's transaction.
func (svc *Service) UpdateInstanceTx(ctx context.Context, tx bun.Tx, instance *models.BookInstance, opts UpdateInstanceOptions) error {
	return svc.updateInstance(ctx, tx, instance, opts)
}
