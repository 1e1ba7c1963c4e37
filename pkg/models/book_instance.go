package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Loan statuses of a book instance.
const (
	LoanStatusMaintenance = "m"
	LoanStatusOnLoan      = "o"
	LoanStatusAvailable   = "a"
	LoanStatusReserved    = "r"
)

// LoanStatuses lists every valid status in display order.
var LoanStatuses = []string{
	LoanStatusMaintenance,
	LoanStatusOnLoan,
	LoanStatusAvailable,
	LoanStatusReserved,
}

var loanStatusLabels = map[string]string{
	LoanStatusMaintenance: "Maintenance",
	LoanStatusOnLoan:      "On loan",
	LoanStatusAvailable:   "Available",
	LoanStatusReserved:    "Reserved",
}

// LoanStatusLabel returns the human readable label of a status code.
func LoanStatusLabel(status string) string {
	if label, ok := loanStatusLabels[status]; ok {
		return label
	}
	return status
}

// BookInstance is a specific physical copy of a book that can be borrowed.
type BookInstance struct {
	bun.BaseModel `bun:"table:book_instances,alias:bi"`

	ID         string     `bun:",pk" json:"id"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	BookID     int        `bun:",notnull" json:"book_id"`
	Book       *Book      `bun:"rel:belongs-to,join:book_id=id" json:"book,omitempty"`
	Imprint    string     `bun:",notnull" json:"imprint"`
	DueBack    *time.Time `json:"due_back"`
	Status     string     `bun:",notnull" json:"status"`
	BorrowerID *int       `json:"borrower_id"`
	Borrower   *User      `bun:"rel:belongs-to,join:borrower_id=id" json:"borrower,omitempty"`
}

// IsOverdue reports whether the copy should already have been returned on
// the given day.
func (bi *BookInstance) IsOverdue(today time.Time) bool {
	if bi.DueBack == nil {
		return false
	}
	return Day(today).After(Day(*bi.DueBack))
}

func (bi *BookInstance) StatusLabel() string {
	return LoanStatusLabel(bi.Status)
}

// Day returns midnight UTC of t's calendar day in t's own location. Dates
// (due back, birth and death dates) are always stored in this form; convert
// instants with UTC() first.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateLayout is how dates travel in payloads, query strings and forms.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string. The empty string yields nil.
func ParseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FormatDate formats a date as YYYY-MM-DD. A nil date yields "".
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}
