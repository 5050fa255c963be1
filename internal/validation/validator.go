// Gustus - Taste-Based Home Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gustus

// Package validation provides struct validation using go-playground/validator
// v10 for API request payloads. The singleton validator caches struct info
// and is safe for concurrent use.
//
// The deep questionnaire invariants (conditional lifestyle answers, budget
// aliases) live in the recommendation core; this layer rejects structurally
// broken payloads before they reach it.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is a single field validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e FieldError) Error() string { return e.Message }

// RequestError is a collection of field validation failures for one payload.
type RequestError struct {
	fields []FieldError
}

// Fields returns the individual failures.
func (e *RequestError) Fields() []FieldError { return e.fields }

// Error implements the error interface.
func (e *RequestError) Error() string {
	if len(e.fields) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(e.fields))
	for i, f := range e.fields {
		messages[i] = f.Message
	}
	return strings.Join(messages, "; ")
}

// Get returns the singleton validator instance.
func Get() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Struct validates s with the singleton validator. Returns nil on success
// or a *RequestError listing every failed field.
func Struct(s any) *RequestError {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &RequestError{fields: []FieldError{{
			Field:   "unknown",
			Tag:     "unknown",
			Message: err.Error(),
		}}}
	}

	fields := make([]FieldError, len(verrs))
	for i, fe := range verrs {
		fields[i] = FieldError{
			Field:   fieldName(fe),
			Tag:     fe.Tag(),
			Message: translate(fe),
		}
	}
	return &RequestError{fields: fields}
}

// fieldName prefers the JSON name embedded in the namespace over the Go
// field name so error messages match the wire format.
func fieldName(fe validator.FieldError) string {
	return strings.ToLower(fe.Field())
}

var messageTemplates = map[string]string{
	"required": "%s is required",
	"min":      "%s must be at least %s",
	"max":      "%s must be at most %s",
	"gte":      "%s must be greater than or equal to %s",
	"lte":      "%s must be less than or equal to %s",
	"oneof":    "%s must be one of: %s",
	"dive":     "%s contains an invalid element",
}

// translate converts a validator.FieldError to a human-readable message.
func translate(fe validator.FieldError) string {
	field := fieldName(fe)
	template, ok := messageTemplates[fe.Tag()]
	if !ok {
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
	if strings.Count(template, "%s") == 2 {
		return fmt.Sprintf(template, field, fe.Param())
	}
	return fmt.Sprintf(template, field)
}
