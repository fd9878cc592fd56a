// Package validation wraps go-playground/validator for the input forms.
// Field names come from the `label` struct tag so messages read in
// Portuguese.
package validation

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/ukydev/fleet-trips/internal/apperr"
)

// Validator checks form structs and reports the first failure as a
// validation error.
type Validator struct {
	v *validator.Validate
}

// New creates a Validator that names fields by their label tag.
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if label := fld.Tag.Get("label"); label != "" {
			return label
		}
		return fld.Name
	})
	return &Validator{v: v}
}

// Struct validates form. The error is nil or an *apperr.Error.
func (v *Validator) Struct(form any) error {
	if err := v.v.Struct(form); err != nil {
		return Translate(err)
	}
	return nil
}

// Translate turns the first validator failure into a user-facing error
// naming the field.
func Translate(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Unknown(err)
	}
	fe := verrs[0]
	field := fe.Field()
	var msg string
	switch fe.Tag() {
	case "required":
		msg = fmt.Sprintf("O campo %s é obrigatório.", field)
	case "alphanum":
		msg = fmt.Sprintf("O campo %s deve conter apenas letras e números.", field)
	case "datetime":
		msg = fmt.Sprintf("O campo %s deve ser uma data no formato AAAA-MM-DD.", field)
	case "numeric":
		msg = fmt.Sprintf("O campo %s deve ser um número.", field)
	case "email":
		msg = fmt.Sprintf("O campo %s deve ser um e-mail válido.", field)
	default:
		msg = fmt.Sprintf("O campo %s é inválido.", field)
	}
	return &apperr.Error{Kind: apperr.KindValidation, Field: field, Message: msg, Err: err}
}
