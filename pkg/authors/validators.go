package authors

import (
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
)

type ListAuthorsQuery struct {
	Limit  int     `query:"limit" json:"limit,omitempty" default:"50" validate:"min=1,max=200"`
	Offset int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Search *string `query:"search" json:"search,omitempty" validate:"omitempty,max=100"`
}

// CreateAuthorPayload is shared by the JSON API and the HTML author form.
type CreateAuthorPayload struct {
	FirstName   string `json:"first_name" form:"first_name" mod:"trim" validate:"required,max=100"`
	LastName    string `json:"last_name" form:"last_name" mod:"trim" validate:"required,max=100"`
	DateOfBirth string `json:"date_of_birth" form:"date_of_birth" mod:"trim" validate:"date"`
	DateOfDeath string `json:"date_of_death" form:"date_of_death" mod:"trim" validate:"date"`
}

// UpdateAuthorPayload only touches the fields that are present. An empty date
// clears it.
type UpdateAuthorPayload struct {
	FirstName   *string `json:"first_name,omitempty" mod:"trim" validate:"omitempty,min=1,max=100"`
	LastName    *string `json:"last_name,omitempty" mod:"trim" validate:"omitempty,min=1,max=100"`
	DateOfBirth *string `json:"date_of_birth,omitempty" mod:"trim" validate:"omitempty,date"`
	DateOfDeath *string `json:"date_of_death,omitempty" mod:"trim" validate:"omitempty,date"`
}

// Apply copies the payload onto author and returns the columns it set.
func (p CreateAuthorPayload) Apply(author *models.Author) ([]string, error) {
	birth, err := models.ParseDate(p.DateOfBirth)
	if err != nil {
		return nil, errcodes.ValidationError("Invalid date of birth")
	}
	death, err := models.ParseDate(p.DateOfDeath)
	if err != nil {
		return nil, errcodes.ValidationError("Invalid date of death")
	}

	author.FirstName = p.FirstName
	author.LastName = p.LastName
	author.DateOfBirth = birth
	author.DateOfDeath = death
	return []string{"first_name", "last_name", "date_of_birth", "date_of_death"}, nil
}

// Apply copies the present fields onto author and returns the columns that
// changed.
func (p UpdateAuthorPayload) Apply(author *models.Author) ([]string, error) {
	columns := []string{}

	if p.FirstName != nil && *p.FirstName != author.FirstName {
		author.FirstName = *p.FirstName
		columns = append(columns, "first_name")
	}
	if p.LastName != nil && *p.LastName != author.LastName {
		author.LastName = *p.LastName
		columns = append(columns, "last_name")
	}
	if p.DateOfBirth != nil {
		d, err := models.ParseDate(*p.DateOfBirth)
		if err != nil {
			return nil, errcodes.ValidationError("Invalid date of birth")
		}
		author.DateOfBirth = d
		columns = append(columns, "date_of_birth")
	}
	if p.DateOfDeath != nil {
		d, err := models.ParseDate(*p.DateOfDeath)
		if err != nil {
			return nil, errcodes.ValidationError("Invalid date of death")
		}
		author.DateOfDeath = d
		columns = append(columns, "date_of_death")
	}

	return columns, nil
}
