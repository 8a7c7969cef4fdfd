package validator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventForm struct {
	Name        string    `validate:"required,max=255"`
	Type        string    `validate:"required,category"`
	Date        time.Time `validate:"required,future"`
	Status      string    `validate:"omitempty,eventstatus"`
	MinCapacity int       `validate:"gte=0"`
	MaxCapacity int       `validate:"required,positive,gtefield=MinCapacity"`
}

func validForm() eventForm {
	return eventForm{
		Name:        "Spring Career Fair",
		Type:        "CAREER_FAIR",
		Date:        time.Now().Add(48 * time.Hour),
		Status:      "PUBLISHED",
		MinCapacity: 10,
		MaxCapacity: 100,
	}
}

func TestValidateAcceptsValidForm(t *testing.T) {
	assert.NoError(t, Validate(context.Background(), validForm()))
}

func TestValidateRejectsUnknownCategory(t *testing.T) {
	form := validForm()
	form.Type = "BIRTHDAY"

	err := Validate(context.Background(), form)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unknown event category")
}

func TestValidateRejectsUnknownStatus(t *testing.T) {
	form := validForm()
	form.Status = "ARCHIVED"

	err := Validate(context.Background(), form)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unknown event status")
}

func TestValidateRejectsPastDate(t *testing.T) {
	form := validForm()
	form.Date = time.Now().Add(-time.Hour)

	err := Validate(context.Background(), form)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Date must be in the future")
}

func TestValidateRejectsNonPositiveCapacity(t *testing.T) {
	form := validForm()
	form.MinCapacity = 0
	form.MaxCapacity = -1

	err := Validate(context.Background(), form)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Value must be positive")
}

func TestValidateRejectsMaxBelowMin(t *testing.T) {
	form := validForm()
	form.MinCapacity = 50
	form.MaxCapacity = 10

	err := Validate(context.Background(), form)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Value must not be below the paired field")
}

func TestValidateRejectsNonStructInput(t *testing.T) {
	assert.Error(t, Validate(context.Background(), "not a struct"))
	assert.Error(t, Validate(context.Background(), nil))
}

func TestValidateReportsEveryViolation(t *testing.T) {
	form := validForm()
	form.Name = ""
	form.Type = "BIRTHDAY"
	form.Date = time.Now().Add(-time.Hour)

	err := Validate(context.Background(), form)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Field is required")
	assert.Contains(t, err.Error(), "Unknown event category")
	assert.Contains(t, err.Error(), "Date must be in the future")
}
