package restfulapi

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kamari/service/errors"
)

// Validator plugs struct-tag validation into echo.
type Validator struct {
	v *validator.Validate
}

// NewValidator 创建请求校验器
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(jsonName)
	return &Validator{v: v}
}

// Validate returns a ValidationFailed error naming every offending field.
func (p *Validator) Validate(i interface{}) error {
	err := p.v.Struct(i)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Wrap(errors.ValidationFailed, err, "invalid payload")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return errors.New(errors.ValidationFailed, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}

func jsonName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}
