package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"imovia/pkg/logger"
	"imovia/pkg/model"
)

const (
	// SlotWindowDays bounds how far ahead a visit slot may be proposed.
	SlotWindowDays = 14
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type RequestValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
	now      func() time.Time
}

func NewRequestValidator(log *logger.Logger) *RequestValidator {
	return &RequestValidator{
		validate: validator.New(),
		logger:   log,
		now:      time.Now,
	}
}

// SlotWindow returns the half-open interval of acceptable visit slots:
// from the start of tomorrow up to, but not including, the start of the
// day SlotWindowDays after that. Same-day slots are never acceptable.
func (v *RequestValidator) SlotWindow() (time.Time, time.Time) {
	now := v.now()
	year, month, day := now.Date()
	windowStart := time.Date(year, month, day, 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	windowEnd := windowStart.AddDate(0, 0, SlotWindowDays)
	return windowStart, windowEnd
}

func (v *RequestValidator) ValidateVisit(request *model.VisitRequest) error {
	if err := v.validate.Struct(request); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	windowStart, windowEnd := v.SlotWindow()
	for i, slot := range request.RequestedSlots {
		if slot.Before(windowStart) || !slot.Before(windowEnd) {
			return ValidationErrors{
				ValidationError{
					Field: "RequestedSlots",
					Message: fmt.Sprintf("slot %d (%s) is outside the acceptable window [%s, %s)",
						i, slot.Format(time.RFC3339), windowStart.Format(time.RFC3339), windowEnd.Format(time.RFC3339)),
				},
			}
		}
	}

	return nil
}

func (v *RequestValidator) ValidateReservation(request *model.ReservationRequest) error {
	if err := v.validate.Struct(request); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	return nil
}

func (v *RequestValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
