package instances

import (
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
)

type ListInstancesQuery struct {
	Limit       int     `query:"limit" json:"limit,omitempty" default:"50" validate:"min=1,max=200"`
	Offset      int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	BookID      *int    `query:"book_id" json:"book_id,omitempty" validate:"omitempty,min=1"`
	BorrowerID  *int    `query:"borrower_id" json:"borrower_id,omitempty" validate:"omitempty,min=1"`
	Status      *string `query:"status" json:"status,omitempty" validate:"omitempty,loan_status"`
	DueBackFrom string  `query:"due_back_from" json:"due_back_from,omitempty" validate:"date"`
	DueBackTo   string  `query:"due_back_to" json:"due_back_to,omitempty" validate:"date"`
}

type CreateInstancePayload struct {
	BookID     int    `json:"book_id" validate:"required,min=1"`
	Imprint    string `json:"imprint" mod:"trim" validate:"required,max=200"`
	Status     string `json:"status" default:"m" validate:"loan_status"`
	DueBack    string `json:"due_back" mod:"trim" validate:"date"`
	BorrowerID *int   `json:"borrower_id" validate:"omitempty,min=1"`
}

// Apply copies the payload onto instance.
func (p CreateInstancePayload) Apply(instance *models.BookInstance) error {
	dueBack, err := models.ParseDate(p.DueBack)
	if err != nil {
		return errcodes.ValidationError("Invalid due back date")
	}

	instance.BookID = p.BookID
	instance.Imprint = p.Imprint
	instance.Status = p.Status
	instance.DueBack = dueBack
	instance.BorrowerID = p.BorrowerID
	return nil
}

// UpdateInstancePayload only touches the fields that are present. An empty
// due_back clears it.
type UpdateInstancePayload struct {
	BookID        *int    `json:"book_id,omitempty" validate:"omitempty,min=1"`
	Imprint       *string `json:"imprint,omitempty" mod:"trim" validate:"omitempty,min=1,max=200"`
	Status        *string `json:"status,omitempty" validate:"omitempty,loan_status"`
	DueBack       *string `json:"due_back,omitempty" mod:"trim" validate:"omitempty,date"`
	BorrowerID    *int    `json:"borrower_id,omitempty" validate:"omitempty,min=1"`
	ClearBorrower bool    `json:"clear_borrower,omitempty"`
}

// Apply copies the present fields onto instance and returns the columns that
// changed.
func (p UpdateInstancePayload) Apply(instance *models.BookInstance) ([]string, error) {
	columns := []string{}

	if p.BookID != nil && *p.BookID != instance.BookID {
		instance.BookID = *p.BookID
		columns = append(columns, "book_id")
	}
	if p.Imprint != nil && *p.Imprint != instance.Imprint {
		instance.Imprint = *p.Imprint
		columns = append(columns, "imprint")
	}
	if p.Status != nil && *p.Status != instance.Status {
		instance.Status = *p.Status
		columns = append(columns, "status")
	}
	if p.DueBack != nil {
		d, err := models.ParseDate(*p.DueBack)
		if err != nil {
			return nil, errcodes.ValidationError("Invalid due back date")
		}
		instance.DueBack = d
		columns = append(columns, "due_back")
	}
	if p.ClearBorrower {
		instance.BorrowerID = nil
		columns = append(columns, "borrower_id")
	} else if p.BorrowerID != nil && (instance.BorrowerID == nil || *instance.BorrowerID != *p.BorrowerID) {
		instance.BorrowerID = p.BorrowerID
		columns = append(columns, "borrower_id")
	}

	return columns, nil
}
