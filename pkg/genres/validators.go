package genres

type ListGenresQuery struct {
	Limit  int     `query:"limit" json:"limit,omitempty" default:"50" validate:"min=1,max=200"`
	Offset int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Search *string `query:"search" json:"search,omitempty" validate:"omitempty,max=100"`
}

type CreateGenrePayload struct {
	Name string `json:"name" form:"name" mod:"trim" validate:"required,max=200"`
}

type UpdateGenrePayload struct {
	Name *string `json:"name,omitempty" mod:"trim" validate:"omitempty,min=1,max=200"`
}

type MergeGenresPayload struct {
	SourceID int `json:"source_id" validate:"required"`
}

type DeleteOrphansResponse struct {
	Deleted int `json:"deleted"`
}
