package main

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeTestPayload(t *testing.T, body string) BookPayload {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/libro", strings.NewReader(body))
	payload, err := DecodeBookRequestBody(req)
	require.NoError(t, err)
	return payload
}

func validationMessages(t *testing.T, err error) []string {
	t.Helper()
	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "expected a validation error, got %v", err)
	return ve.Messages()
}

func TestDecodeBookRequestBody(t *testing.T) {
	testCases := []struct {
		name    string
		body    string
		message string
	}{
		{"empty body", "", "body is required"},
		{"blank body", "  \n\t ", "body is required"},
		{"json array", `[1, 2]`, "body must be a json object"},
		{"json null", `null`, "body must be a json object"},
		{"json string", `"Dune"`, "body must be a json object"},
		{"malformed json", `{"titulo": "Dune"`, "body must be a json object"},
		{"two objects", `{"titulo":"Dune"}{"titulo":"Emma"}`, "body must contain a single json object"},
		{"too large", `{"titulo":"` + strings.Repeat("a", maxBookPayloadSize) + `"}`, "body is too large"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/libro", strings.NewReader(tc.body))
			payload, err := DecodeBookRequestBody(req)
			assert.Nil(t, payload)
			assert.Equal(t, []string{tc.message}, validationMessages(t, err))
		})
	}

	t.Run("object with trailing spaces", func(t *testing.T) {
		payload := decodeTestPayload(t, "{\"titulo\":\"Dune\"}  \n")
		assert.Equal(t, "Dune", payload[FieldTitle])
	})
}

func TestValidateCreateBookPayload(t *testing.T) {
	t.Run("should pass: canonical payload", func(t *testing.T) {
		in, err := ValidateCreateBookPayload(decodeTestPayload(t, `{"titulo":"Dune","autor":"Herbert","anio":1965}`))
		require.NoError(t, err)
		assert.Equal(t, BookInput{Title: "Dune", Author: "Herbert", Year: 1965}, in)
	})

	t.Run("should pass: trimmed strings and string year", func(t *testing.T) {
		in, err := ValidateCreateBookPayload(decodeTestPayload(t, `{"titulo":"  Dune ","autor":"Herbert\n","anio":" 1965 "}`))
		require.NoError(t, err)
		assert.Equal(t, BookInput{Title: "Dune", Author: "Herbert", Year: 1965}, in)
	})

	t.Run("should pass: integral float year", func(t *testing.T) {
		in, err := ValidateCreateBookPayload(decodeTestPayload(t, `{"titulo":"Dune","autor":"Herbert","anio":1965.0}`))
		require.NoError(t, err)
		assert.Equal(t, 1965, in.Year)
	})

	t.Run("should pass: client id is ignored", func(t *testing.T) {
		in, err := ValidateCreateBookPayload(decodeTestPayload(t, `{"id":99,"titulo":"Dune","autor":"Herbert","anio":1965}`))
		require.NoError(t, err)
		assert.Equal(t, int64(7), in.WithID(7).ID)
	})

	testCases := []struct {
		name     string
		body     string
		messages []string
	}{
		{
			"empty object",
			`{}`,
			[]string{"titulo is required", "autor is required", "anio is required"},
		},
		{
			"blank title",
			`{"titulo":"   ","autor":"Herbert","anio":1965}`,
			[]string{"titulo is required"},
		},
		{
			"null author",
			`{"titulo":"Dune","autor":null,"anio":1965}`,
			[]string{"autor is required"},
		},
		{
			"numeric title",
			`{"titulo":42,"autor":"Herbert","anio":1965}`,
			[]string{"titulo must be a string"},
		},
		{
			"fractional year",
			`{"titulo":"Dune","autor":"Herbert","anio":1965.5}`,
			[]string{"anio must be an integer"},
		},
		{
			"textual year",
			`{"titulo":"Dune","autor":"Herbert","anio":"nineteen"}`,
			[]string{"anio must be an integer"},
		},
		{
			"boolean year",
			`{"titulo":"Dune","autor":"Herbert","anio":true}`,
			[]string{"anio must be an integer"},
		},
		{
			"blank year",
			`{"titulo":"Dune","autor":"Herbert","anio":""}`,
			[]string{"anio is required"},
		},
		{
			"year out of range",
			`{"titulo":"Dune","autor":"Herbert","anio":99999999999}`,
			[]string{"anio must be an integer"},
		},
	}

	for _, tc := range testCases {
		t.Run("should fail: "+tc.name, func(t *testing.T) {
			in, err := ValidateCreateBookPayload(decodeTestPayload(t, tc.body))
			assert.Equal(t, BookInput{}, in)
			assert.Equal(t, tc.messages, validationMessages(t, err))
		})
	}
}

func TestValidateUpdateBookPayload(t *testing.T) {
	t.Run("should pass: without body id", func(t *testing.T) {
		in, err := ValidateUpdateBookPayload(decodeTestPayload(t, `{"titulo":"Dune","autor":"Herbert","anio":1966}`), 1)
		require.NoError(t, err)
		assert.Equal(t, Book{ID: 1, Title: "Dune", Author: "Herbert", Year: 1966}, in.WithID(1))
	})

	t.Run("should pass: matching body id", func(t *testing.T) {
		_, err := ValidateUpdateBookPayload(decodeTestPayload(t, `{"id":1,"titulo":"Dune","autor":"Herbert","anio":1966}`), 1)
		assert.NoError(t, err)
		_, err = ValidateUpdateBookPayload(decodeTestPayload(t, `{"id":"1","titulo":"Dune","autor":"Herbert","anio":1966}`), 1)
		assert.NoError(t, err)
	})

	t.Run("should fail: mismatching body id", func(t *testing.T) {
		_, err := ValidateUpdateBookPayload(decodeTestPayload(t, `{"id":2,"titulo":"Dune","autor":"Herbert","anio":1966}`), 1)
		assert.Equal(t, []string{"id does not match the resource path"}, validationMessages(t, err))
	})

	t.Run("should fail: every problem reported", func(t *testing.T) {
		_, err := ValidateUpdateBookPayload(decodeTestPayload(t, `{"id":"x","autor":"Herbert","anio":1966}`), 1)
		var ve *ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, []string{"titulo is required", "id must be an integer"}, ve.Messages())
		assert.Equal(t, []string{FieldTitle, FieldID}, ve.Fields())
		assert.Equal(t, "titulo is required; id must be an integer", ve.Error())
	})
}

func TestParseBookID(t *testing.T) {
	testCases := []struct {
		raw   string
		id    int64
		valid bool
	}{
		{"1", 1, true},
		{"42", 42, true},
		{"0", 0, false},
		{"-1", 0, false},
		{"+1", 0, false},
		{"1.5", 0, false},
		{"abc", 0, false},
		{"1abc", 0, false},
		{"99999999999999999999", 0, false},
		{"", 0, false},
	}

	for _, tc := range testCases {
		t.Run("raw="+tc.raw, func(t *testing.T) {
			id, err := ParseBookID(tc.raw)
			assert.Equal(t, tc.id, id)
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
