package pages

type LoginForm struct {
	Username string `json:"username" form:"username" mod:"trim" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
	Next     string `json:"next" form:"next" query:"next"`
}

type PageQuery struct {
	Page int `query:"page" json:"page,omitempty" default:"1" validate:"min=1"`
}
