package material

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ptemanager/core"
	"github.com/trezcool/ptemanager/core/files"
)

// Types
const (
	TypeGrammar  = "grammar"
	TypeTemplate = "template"
	TypeTips     = "tips"
)

// Languages
const (
	LangEnglish  = "english"
	LangGujarati = "gujarati"
	LangBoth     = "both"
)

type Material struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Type        string             `json:"type"`
	Language    string             `json:"language"`
	Description string             `json:"description"`
	Content     string             `json:"content"`
	Files       []files.Descriptor `json:"files"`
	UploadedBy  string             `json:"uploadedBy"`
	IsActive    bool               `json:"isActive"`
	CreatedAt   time.Time          `json:"createdAt"` // UTC
	UpdatedAt   time.Time          `json:"updatedAt"` // UTC
}

// Input is the data needed to create a Material or to fully replace a Material's mutable fields.
type Input struct {
	Title       string             `json:"title" validate:"required"`
	Type        string             `json:"type" validate:"required,oneof=grammar template tips"`
	Language    string             `json:"language" validate:"oneof=english gujarati both"`
	Description string             `json:"description"`
	Content     string             `json:"content"`
	Files       []files.Descriptor `json:"files"`
}

// HasRequired reports whether title and type were provided.
func (in Input) HasRequired() bool {
	return core.CleanString(in.Title) != "" && core.CleanString(in.Type) != ""
}

func (in *Input) Clean() {
	in.Title = core.CleanString(in.Title)
	in.Type = core.CleanString(in.Type, true /* lower */)
	in.Language = core.CleanString(in.Language, true /* lower */)
	if in.Language == "" {
		in.Language = LangEnglish
	}
	in.Description = core.CleanString(in.Description)
	if in.Files == nil {
		in.Files = []files.Descriptor{}
	}
}

func (in *Input) Validate(validate *validator.Validate) error {
	in.Clean()
	return validate.Struct(in)
}
