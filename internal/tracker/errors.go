package tracker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/smarthow-source/ATS-design-concept/internal/pipeline"
	"github.com/smarthow-source/ATS-design-concept/internal/settings"
	"github.com/smarthow-source/ATS-design-concept/internal/store"
)

// ─── Sentinel errors ─────────────────────────────────────────────────────────

// ErrNotFound is returned when a candidate, job or setting does not exist.
var ErrNotFound = store.ErrNotFound

// ValidationError wraps a user-facing validation message.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

func invalidf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// translate folds the error vocabularies of the lower layers into
// ErrNotFound and *ValidationError. Anything else passes through.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var pve *pipeline.ValidationError
	if errors.As(err, &pve) {
		return &ValidationError{Msg: pve.Msg}
	}
	var fe validator.ValidationErrors
	if errors.As(err, &fe) {
		return fieldErrors(fe)
	}
	if errors.Is(err, settings.ErrNotFound) {
		return notFoundError{msg: err.Error()}
	}
	if errors.Is(err, settings.ErrInvalid) {
		return &ValidationError{Msg: strings.TrimPrefix(err.Error(), settings.ErrInvalid.Error()+": ")}
	}
	return err
}

// notFoundError keeps the message of a lower layer and matches ErrNotFound.
type notFoundError struct{ msg string }

func (e notFoundError) Error() string        { return e.msg }
func (e notFoundError) Is(target error) bool { return target == ErrNotFound }

func fieldErrors(fe validator.ValidationErrors) error {
	msgs := make([]string, 0, len(fe))
	for _, f := range fe {
		switch f.Tag() {
		case "required":
			msgs = append(msgs, f.Field()+" is required")
		case "email":
			msgs = append(msgs, f.Field()+" must be a valid email address")
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", f.Field(), f.Tag(), f.Param()))
		}
	}
	return &ValidationError{Msg: strings.Join(msgs, "; ")}
}
