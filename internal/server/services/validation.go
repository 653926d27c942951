package services

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RegisterInput is the validated shape of a registration request.
type RegisterInput struct {
	Username        string `validate:"required,max=100"`
	Email           string `validate:"required,email,max=150"`
	Password        string `validate:"required,min=6,max=255"`
	ConfirmPassword string `validate:"required,eqfield=Password"`
}

// NoteInput is the validated shape of a note create/update request.
type NoteInput struct {
	Title   string `validate:"required,max=200"`
	Content string `validate:"required"`
}

// ValidationError aggregates field-level validation failures. It satisfies
// error so services can return it through their normal error path; handlers
// unwrap it with errors.As to render per-field messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var validate = validator.New()

// checkInput runs struct-tag validation and converts validator errors into a
// field->message map, evaluated before any store mutation.
func checkInput(input any) *ValidationError {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return &ValidationError{Fields: map[string]string{"": err.Error()}}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return &ValidationError{Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s cannot be longer than %s characters", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", fe.Field(), fe.Param())
	case "email":
		return "invalid email address"
	case "eqfield":
		return "password and confirm password do not match"
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
