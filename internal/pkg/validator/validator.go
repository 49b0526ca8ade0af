package validator

import (
	"errors"
	"sync"

	"clinicbook/internal/domain"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	registerOnce sync.Once
)

func init() {
	validate = validator.New()
	registerSlotTags(validate)
}

// Validate struct fields
func Validate(v interface{}) map[string]string {
	fields, err := FieldErrors(validate.Struct(v))
	if err != nil {
		return map[string]string{"_": err.Error()}
	}
	return fields
}

// FieldErrors maps each failed field to the rule it broke. err is returned
// unchanged when it is not a validation failure.
func FieldErrors(err error) (map[string]string, error) {
	if err == nil {
		return nil, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return fields, nil
}

// RegisterGinValidators makes the slotdate and slottime tags usable in
// binding:"..." struct tags.
func RegisterGinValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			registerSlotTags(v)
		}
	})
}

func registerSlotTags(v *validator.Validate) {
	_ = v.RegisterValidation("slotdate", func(fl validator.FieldLevel) bool {
		return domain.ValidSlotDate(fl.Field().String())
	})
	_ = v.RegisterValidation("slottime", func(fl validator.FieldLevel) bool {
		return domain.ValidSlotTime(fl.Field().String())
	})
}
