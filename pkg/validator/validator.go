package validator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator"

	"eventhub/internal/model"
)

var global *validator.Validate

const (
	ErrInvalidFormat      = "Invalid format"
	ErrFieldRequired      = "Field is required"
	ErrFieldExceedsMaxLen = "Field exceeds maximum length"
	ErrFieldBelowMinLen   = "Field is below minimum length"
	ErrFieldExceedsMaxVal = "Field exceeds maximum value"
	ErrFieldBelowMinVal   = "Field is below minimum value"
	ErrUnknownValidation  = "Unknown validation error"
)

func init() {
	SetValidator(New())
}

func New() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("category", validateCategory)
	_ = v.RegisterValidation("eventstatus", validateEventStatus)
	_ = v.RegisterValidation("future", validateFutureDate)
	_ = v.RegisterValidation("positive", validatePositiveInt)
	return v
}

func SetValidator(v *validator.Validate) {
	global = v
}

func Validator() *validator.Validate {
	return global
}

func validateCategory(fl validator.FieldLevel) bool {
	return model.ValidEventType(fl.Field().String())
}

func validateEventStatus(fl validator.FieldLevel) bool {
	return model.ValidEventStatus(fl.Field().String())
}

func validateFutureDate(fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(time.Time)
	return ok && t.After(time.Now())
}

func validatePositiveInt(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(int)
	return ok && val > 0
}

func Validate(ctx context.Context, structure any) error {
	return parseValidationErrors(Validator().StructCtx(ctx, structure))
}

// parseValidationErrors flattens every violation into one error so the
// caller can report all bad fields at once.
func parseValidationErrors(err error) error {
	if err == nil {
		return nil
	}
	vErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		// Not field violations but a broken validation call (nil or
		// non-struct input); surface it instead of passing the input.
		return err
	}
	if len(vErrors) == 0 {
		return nil
	}

	msgs := make([]string, 0, len(vErrors))
	for _, ve := range vErrors {
		var msg string
		switch ve.Tag() {
		case "required":
			msg = ErrFieldRequired
		case "max":
			msg = ErrFieldExceedsMaxLen
		case "min":
			msg = ErrFieldBelowMinLen
		case "lt", "lte":
			msg = ErrFieldExceedsMaxVal
		case "gt", "gte":
			msg = ErrFieldBelowMinVal
		case "gtefield":
			msg = "Value must not be below the paired field"
		case "email":
			msg = ErrInvalidFormat
		case "category":
			msg = "Unknown event category"
		case "eventstatus":
			msg = "Unknown event status"
		case "future":
			msg = "Date must be in the future"
		case "positive":
			msg = "Value must be positive"
		default:
			msg = ErrUnknownValidation
		}
		msgs = append(msgs, msg+": "+ve.Namespace())
	}
	return errors.New(strings.Join(msgs, "; "))
}
