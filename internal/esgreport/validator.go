package esgreport

import (
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/editor/edtypes"
)

const maxTitleLength = 200

type RequestValidator struct {
	validator *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New()
	if err := v.RegisterValidation("docTitle", docTitleValidator); err != nil {
		return nil
	}
	if err := v.RegisterValidation("blockType", blockTypeValidator); err != nil {
		return nil
	}
	return &RequestValidator{v}
}

func (rv *RequestValidator) Validate(i interface{}) error {
	if err := rv.validator.Struct(i); err != nil {
		_, ok := err.(validator.ValidationErrors)
		if !ok {
			return nil
		}
		return err
	}
	return nil
}

func docTitleValidator(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())
	n := utf8.RuneCountInString(value)
	return n >= 1 && n <= maxTitleLength
}

// Пустое значение допустимо, вид блока тогда выбирается по умолчанию.
func blockTypeValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	_, ok := edtypes.ParseBlockType(value)
	return ok
}
