package task

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ptemanager/core"
)

var (
	taskTypeTag  = "tasktype"
	taskTypeText = "{0} must be a known PTE task type"
)

// InitValidators registers the task validation rules.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(taskTypeTag, func(fl validator.FieldLevel) bool {
		return IsValidType(fl.Field().String())
	})
	core.RegisterCustomTranslation(validate, translator, taskTypeTag, taskTypeText)
}
