package languages

type ListLanguagesQuery struct {
	Limit  int `query:"limit" json:"limit,omitempty" default:"50" validate:"min=1,max=200"`
	Offset int `query:"offset" json:"offset,omitempty" validate:"min=0"`
}

// LanguagePayload creates or renames a language. A missing or blank name
// stores a language without one.
type LanguagePayload struct {
	Name *string `json:"name" mod:"trim" validate:"omitempty,max=200"`
}

func (p LanguagePayload) name() *string {
	if p.Name == nil || *p.Name == "" {
		return nil
	}
	return p.Name
}
