package loans

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/locallibrary/catalog/pkg/config"
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/instances"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

const (
	errRenewalInPast     = "Invalid date - renewal in past"
	errRenewalTooFarFmt  = "Invalid date - renewal more than %d weeks ahead"
	errNotAvailable      = "Book instance is not available"
	errNotOnLoan         = "Book instance is not on loan"
	defaultLoanWeeks     = 3
	defaultRenewalWeeks  = 4
	defaultLoansPageSize = 10
)

// Policy holds the loan rules.
type Policy struct {
	// LoanWeeks is the default length of a loan and of a proposed renewal.
	LoanWeeks int
	// MaxWeeks is how far ahead a due date may be set.
	MaxWeeks int
	// PageSize is how many loans a page of "my loans" shows.
	PageSize int
}

// PolicyFromConfig reads the loan policy from cfg, falling back to the
// defaults for unset values.
func PolicyFromConfig(cfg *config.Config) Policy {
	p := Policy{LoanWeeks: defaultLoanWeeks, MaxWeeks: defaultRenewalWeeks, PageSize: defaultLoansPageSize}
	if cfg == nil {
		return p
	}
	if cfg.LoanPeriodWeeks > 0 {
		p.LoanWeeks = cfg.LoanPeriodWeeks
	}
	if cfg.MaxRenewalWeeks > 0 {
		p.MaxWeeks = cfg.MaxRenewalWeeks
	}
	if cfg.LoansPageSize > 0 {
		p.PageSize = cfg.LoansPageSize
	}
	return p
}

type Service struct {
	db              *bun.DB
	instanceService *instances.Service
	policy          Policy
	now             func() time.Time
}

func NewService(db *bun.DB, policy Policy) *Service {
	return &Service{
		db:              db,
		instanceService: instances.NewService(db),
		policy:          policy,
		now:             time.Now,
	}
}

// WithClock replaces the clock used to decide what "today" is.
func (svc *Service) WithClock(now func() time.Time) *Service {
	svc.now = now
	return svc
}

func (svc *Service) Policy() Policy {
	return svc.policy
}

// Today is the current date in UTC, truncated to midnight.
func (svc *Service) Today() time.Time {
	return models.Day(svc.now().UTC())
}

// ProposedRenewalDate is the date the renewal form starts with.
func (svc *Service) ProposedRenewalDate() time.Time {
	return svc.Today().AddDate(0, 0, 7*svc.policy.LoanWeeks)
}

// ValidateDueDate checks that date is neither in the past nor further ahead
// than the policy allows.
func (svc *Service) ValidateDueDate(date time.Time) error {
	today := svc.Today()
	date = models.Day(date)
	if date.Before(today) {
		return errcodes.ValidationError(errRenewalInPast)
	}
	if date.After(today.AddDate(0, 0, 7*svc.policy.MaxWeeks)) {
		return errcodes.ValidationError(fmt.Sprintf(errRenewalTooFarFmt, svc.policy.MaxWeeks))
	}
	return nil
}

// Page is one page of a paginated list.
type Page struct {
	Number int
	Size   int
	Total  int
}

func (p Page) NumPages() int {
	if p.Total == 0 {
		return 1
	}
	return (p.Total + p.Size - 1) / p.Size
}

func (p Page) HasPrevious() bool { return p.Number > 1 }
func (p Page) HasNext() bool     { return p.Number < p.NumPages() }
func (p Page) Previous() int     { return p.Number - 1 }
func (p Page) Next() int         { return p.Number + 1 }

// ListUserLoans returns a page of the copies userID has on loan, soonest due
// first. Pages start at 1; a page past the end is a 404.
func (svc *Service) ListUserLoans(ctx context.Context, userID int, page int) ([]*models.BookInstance, Page, error) {
	if page < 1 {
		return nil, Page{}, errcodes.NotFound("Page")
	}

	size := svc.policy.PageSize
	offset := (page - 1) * size
	loans, total, err := svc.instanceService.ListInstancesWithTotal(ctx, instances.ListInstancesOptions{
		Limit:      &size,
		Offset:     &offset,
		BorrowerID: &userID,
		Statuses:   []string{models.LoanStatusOnLoan},
	})
	if err != nil {
		return nil, Page{}, errors.WithStack(err)
	}

	p := Page{Number: page, Size: size, Total: total}
	if page > p.NumPages() {
		return nil, Page{}, errcodes.NotFound("Page")
	}
	return loans, p, nil
}

// ListBorrowed returns every copy on loan, soonest due first, with its
// borrower.
func (svc *Service) ListBorrowed(ctx context.Context, limit, offset *int) ([]*models.BookInstance, int, error) {
	loans, total, err := svc.instanceService.ListInstancesWithTotal(ctx, instances.ListInstancesOptions{
		Limit:    limit,
		Offset:   offset,
		Statuses: []string{models.LoanStatusOnLoan},
	})
	return loans, total, errors.WithStack(err)
}

func (svc *Service) RetrieveInstance(ctx context.Context, id string) (*models.BookInstance, error) {
	return svc.instanceService.RetrieveInstance(ctx, instances.RetrieveInstanceOptions{ID: id})
}

// Renew moves the due date of a copy to renewalDate.
func (svc *Service) Renew(ctx context.Context, id string, renewalDate time.Time) (*models.BookInstance, error) {
	instance, err := svc.RetrieveInstance(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := svc.ValidateDueDate(renewalDate); err != nil {
		return nil, err
	}

	due := models.Day(renewalDate)
	instance.DueBack = &due
	err = svc.instanceService.UpdateInstance(ctx, instance, instances.UpdateInstanceOptions{Columns: []string{"due_back"}})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return instance, nil
}

// Checkout lends an available copy to borrowerID. A nil dueBack means the
// default loan period.
func (svc *Service) Checkout(ctx context.Context, id string, borrowerID int, dueBack *time.Time) (*models.BookInstance, error) {
	due := svc.ProposedRenewalDate()
	if dueBack != nil {
		due = models.Day(*dueBack)
	}
	if err := svc.ValidateDueDate(due); err != nil {
		return nil, err
	}

	instance, err := svc.RetrieveInstance(ctx, id)
	if err != nil {
		return nil, err
	}

	err = svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		// Re-read the status inside the transaction so two checkouts can't
		// both succeed.
		var status string
		err := tx.NewSelect().
			Model((*models.BookInstance)(nil)).
			Column("status").
			Where("id = ?", instance.ID).
			Scan(ctx, &status)
		if err != nil {
			return errors.WithStack(err)
		}
		if status != models.LoanStatusAvailable {
			return errcodes.Conflict(errNotAvailable)
		}

		instance.Status = models.LoanStatusOnLoan
		instance.BorrowerID = &borrowerID
		instance.DueBack = &due
		return svc.instanceService.UpdateInstanceTx(ctx, tx, instance, instances.UpdateInstanceOptions{
			Columns: []string{"status", "borrower_id", "due_back"},
		})
	})
	if err != nil {
		return nil, err
	}

	return svc.RetrieveInstance(ctx, id)
}

// Return marks a copy on loan as returned: it becomes available again and
// loses its borrower and due date.
func (svc *Service) Return(ctx context.Context, id string) (*models.BookInstance, error) {
	instance, err := svc.RetrieveInstance(ctx, id)
	if err != nil {
		return nil, err
	}

	err = svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var status string
		err := tx.NewSelect().
			Model((*models.BookInstance)(nil)).
			Column("status").
			Where("id = ?", instance.ID).
			Scan(ctx, &status)
		if err != nil {
			return errors.WithStack(err)
		}
		if status != models.LoanStatusOnLoan {
			return errcodes.Conflict(errNotOnLoan)
		}

		instance.Status = models.LoanStatusAvailable
		instance.DueBack = nil
		return svc.instanceService.UpdateInstanceTx(ctx, tx, instance, instances.UpdateInstanceOptions{
			Columns: []string{"status", "due_back"},
		})
	})
	if err != nil {
		return nil, err
	}

	instance.Borrower = nil
	return instance, nil
}
