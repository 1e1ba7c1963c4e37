package loans

import (
	"time"

	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
)

type ListUserLoansQuery struct {
	Page int `query:"page" json:"page,omitempty" default:"1" validate:"min=1"`
}

type ListBorrowedQuery struct {
	Limit  int `query:"limit" json:"limit,omitempty" default:"50" validate:"min=1,max=200"`
	Offset int `query:"offset" json:"offset,omitempty" validate:"min=0"`
}

// RenewLoanPayload is shared by the JSON API and the renewal form.
type RenewLoanPayload struct {
	RenewalDate string `json:"renewal_date" form:"renewal_date" mod:"trim" validate:"required,date"`
}

func (p RenewLoanPayload) Date() (time.Time, error) {
	d, err := models.ParseDate(p.RenewalDate)
	if err != nil || d == nil {
		return time.Time{}, errcodes.ValidationError("Invalid date")
	}
	return *d, nil
}

type CheckoutPayload struct {
	BorrowerID int    `json:"borrower_id" validate:"required,min=1"`
	DueBack    string `json:"due_back" mod:"trim" validate:"date"`
}

type RenewalResponse struct {
	Instance            *models.BookInstance `json:"instance"`
	ProposedRenewalDate string               `json:"proposed_renewal_date"`
}

type UserLoansResponse struct {
	Items    []*models.BookInstance `json:"items"`
	Total    int                    `json:"total"`
	Page     int                    `json:"page"`
	NumPages int                    `json:"num_pages"`
}
