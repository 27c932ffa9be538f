package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"consultly/pkg/logger"
	"consultly/pkg/model"

	"github.com/go-playground/validator/v10"
)

// Party ids become part of lock keys, so the separator is never allowed.
var partyIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

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

// Details renders the errors as a field to message map for API responses.
func (v ValidationErrors) Details() map[string]any {
	details := make(map[string]any, len(v))
	for _, err := range v {
		details[err.Field] = err.Message
	}
	return details
}

type AppointmentValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewAppointmentValidator(log *logger.Logger) *AppointmentValidator {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)

	if err := v.RegisterValidation("party_id", validatePartyID); err != nil {
		log.Fatal("Failed to register 'party_id' validator",
			"error", err,
		)
	}

	log.Info("Appointment validator initialized successfully")

	return &AppointmentValidator{
		validate: v,
		logger:   log,
	}
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "" || name == "-" {
		return field.Name
	}
	return name
}

func validatePartyID(fl validator.FieldLevel) bool {
	return IsPartyID(fl.Field().String())
}

// IsPartyID reports whether id is safe to use as a party reference.
func IsPartyID(id string) bool {
	return partyIDRegex.MatchString(id)
}

func (v *AppointmentValidator) ValidateCreate(req *model.CreateAppointmentRequest) error {
	return v.validateStruct(req)
}

func (v *AppointmentValidator) ValidateLockSlot(req *model.LockSlotRequest) error {
	return v.validateStruct(req)
}

func (v *AppointmentValidator) validateStruct(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *AppointmentValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
		case "datetime":
			message = fmt.Sprintf("%s must be an ISO 8601 timestamp with offset (e.g., 2024-06-10T04:30:00.000Z)", err.Field())
		case "party_id":
			message = fmt.Sprintf("%s must be 1-64 letters, digits, '-' or '_'", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
