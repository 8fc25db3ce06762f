package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
)

// Book payload field names as sent by api clients.
const (
	FieldID     = "id"
	FieldTitle  = "titulo"
	FieldAuthor = "autor"
	FieldYear   = "anio"
	FieldBody   = "body"
)

// maxBookPayloadSize bounds the request body read by book handlers.
const maxBookPayloadSize = 1 << 20

// BookPayload is the raw decoded content of a book creation or update request.
type BookPayload map[string]interface{}

type (
	missingFieldError string
	invalidFieldError struct {
		field  string
		reason string
	}
)

func (m missingFieldError) Error() string {
	return string(m) + " is required"
}

func (e invalidFieldError) Error() string {
	return e.field + " " + e.reason
}

// ValidationError reports every missing or invalid field of a request.
type ValidationError struct {
	problems []error
}

func (ve *ValidationError) add(err error) {
	ve.problems = append(ve.problems, err)
}

func (ve *ValidationError) empty() bool {
	return ve == nil || len(ve.problems) == 0
}

func (ve *ValidationError) Error() string {
	return strings.Join(ve.Messages(), "; ")
}

// Messages returns one human readable message per faulty field.
func (ve *ValidationError) Messages() []string {
	msgs := make([]string, 0, len(ve.problems))
	for _, p := range ve.problems {
		msgs = append(msgs, p.Error())
	}
	return msgs
}

// Fields returns the names of the faulty fields in detection order.
func (ve *ValidationError) Fields() []string {
	fields := make([]string, 0, len(ve.problems))
	for _, p := range ve.problems {
		switch e := p.(type) {
		case missingFieldError:
			fields = append(fields, string(e))
		case invalidFieldError:
			fields = append(fields, e.field)
		}
	}
	return fields
}

func newValidationError(errs ...error) *ValidationError {
	return &ValidationError{problems: errs}
}

// DecodeBookRequestBody reads the body of a book creation or update request.
// Any body which is not a single json object is reported as a validation error.
func DecodeBookRequestBody(r *http.Request) (BookPayload, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, newValidationError(missingFieldError(FieldBody))
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBookPayloadSize+1))
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	if len(data) > maxBookPayloadSize {
		return nil, newValidationError(invalidFieldError{FieldBody, "is too large"})
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, newValidationError(missingFieldError(FieldBody))
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var payload BookPayload
	if err = dec.Decode(&payload); err != nil || payload == nil {
		return nil, newValidationError(invalidFieldError{FieldBody, "must be a json object"})
	}
	if _, err = dec.Token(); !errors.Is(err, io.EOF) {
		return nil, newValidationError(invalidFieldError{FieldBody, "must contain a single json object"})
	}
	return payload, nil
}

// ValidateCreateBookPayload checks the content of a book creation request
// and returns the normalized fields. An id sent by the client is ignored
// since storage assigns it.
func ValidateCreateBookPayload(payload BookPayload) (BookInput, error) {
	var in BookInput
	ve := &ValidationError{}

	title, err := requiredString(payload, FieldTitle)
	if err != nil {
		ve.add(err)
	}
	author, err := requiredString(payload, FieldAuthor)
	if err != nil {
		ve.add(err)
	}
	year, err := requiredInteger(payload, FieldYear)
	if err != nil {
		ve.add(err)
	}

	if !ve.empty() {
		return in, ve
	}
	in.Title, in.Author, in.Year = title, author, year
	return in, nil
}

// ValidateUpdateBookPayload checks the content of a book update request
// addressed to the resource id. An id inside the body is optional but
// must match the resource id when present.
func ValidateUpdateBookPayload(payload BookPayload, id int64) (BookInput, error) {
	in, err := ValidateCreateBookPayload(payload)
	ve := &ValidationError{}
	if err != nil {
		if !errors.As(err, &ve) {
			return in, err
		}
	}

	if raw, ok := payload[FieldID]; ok && raw != nil {
		bodyID, ok := parseInteger(raw)
		switch {
		case !ok:
			ve.add(invalidFieldError{FieldID, "must be an integer"})
		case int64(bodyID) != id:
			ve.add(invalidFieldError{FieldID, "does not match the resource path"})
		}
	}

	if !ve.empty() {
		return BookInput{}, ve
	}
	return in, nil
}

// ParseBookID converts the id path segment into a positive book id.
func ParseBookID(raw string) (int64, error) {
	if raw == "" {
		return 0, missingFieldError(FieldID)
	}
	for _, c := range raw {
		if c < '0' || c > '9' {
			return 0, invalidFieldError{FieldID, "must be a positive integer"}
		}
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, invalidFieldError{FieldID, "must be a positive integer"}
	}
	return id, nil
}

func requiredString(payload BookPayload, field string) (string, error) {
	raw, ok := payload[field]
	if !ok || raw == nil {
		return "", missingFieldError(field)
	}
	s, ok := raw.(string)
	if !ok {
		return "", invalidFieldError{field, "must be a string"}
	}
	s = strings.TrimSpace(s)
	if len(s) == 0 {
		return "", missingFieldError(field)
	}
	return s, nil
}

func requiredInteger(payload BookPayload, field string) (int, error) {
	raw, ok := payload[field]
	if !ok || raw == nil {
		return 0, missingFieldError(field)
	}
	if s, ok := raw.(string); ok && strings.TrimSpace(s) == "" {
		return 0, missingFieldError(field)
	}
	n, ok := parseInteger(raw)
	if !ok {
		return 0, invalidFieldError{field, "must be an integer"}
	}
	return n, nil
}

// parseInteger accepts a json number without fractional part or a string
// holding a base 10 integer. Values must fit into 32 bits.
func parseInteger(raw interface{}) (int, bool) {
	switch v := raw.(type) {
	case json.Number:
		if n, err := strconv.ParseInt(v.String(), 10, 32); err == nil {
			return int(n), true
		}
		f, err := v.Float64()
		if err != nil || f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
			return 0, false
		}
		return int(f), true
	case float64:
		if v != math.Trunc(v) || v > math.MaxInt32 || v < math.MinInt32 {
			return 0, false
		}
		return int(v), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 32)
		if err != nil {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}
