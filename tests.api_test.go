package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doRequest(t *testing.T, router *httprouter.Router, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestBookLifecycle walks a single book through its whole lifecycle.
func TestBookLifecycle(t *testing.T) {
	_, router := newTestRouter(t, nil)

	w := doRequest(t, router, http.MethodPost, "/libro", `{"titulo":"Dune","autor":"Herbert","anio":1965}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":1,"titulo":"Dune","autor":"Herbert","anio":1965}`, w.Body.String())
	assert.Equal(t, "r:test", w.Header().Get("X-Request-ID"))

	w = doRequest(t, router, http.MethodGet, "/libro/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":1,"titulo":"Dune","autor":"Herbert","anio":1965}`, w.Body.String())

	w = doRequest(t, router, http.MethodPut, "/libro/1", `{"id":1,"titulo":"Dune","autor":"Herbert","anio":1966}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":1,"titulo":"Dune","autor":"Herbert","anio":1966}`, w.Body.String())

	w = doRequest(t, router, http.MethodGet, "/libro/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":1,"titulo":"Dune","autor":"Herbert","anio":1966}`, w.Body.String())

	w = doRequest(t, router, http.MethodDelete, "/libro/1", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, router, http.MethodGet, "/libro/1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, router, http.MethodDelete, "/libro/1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, router, http.MethodPut, "/libro/1", `{"titulo":"Dune","autor":"Herbert","anio":1966}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestListReflectsWrites ensures the list always mirrors the table content
// ordered by increasing ids.
func TestListReflectsWrites(t *testing.T) {
	_, router := newTestRouter(t, nil)

	w := doRequest(t, router, http.MethodGet, "/libro", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	titles := []string{"Dune", "Emma", "Ubik"}
	for _, title := range titles {
		w = doRequest(t, router, http.MethodPost, "/libro", `{"titulo":"`+title+`","autor":"Someone","anio":"1900"}`)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w = doRequest(t, router, http.MethodDelete, "/libro/2", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, router, http.MethodGet, "/libro", "")
	require.Equal(t, http.StatusOK, w.Code)
	var books []Book
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &books))
	require.Len(t, books, 2)
	assert.Equal(t, Book{ID: 1, Title: "Dune", Author: "Someone", Year: 1900}, books[0])
	assert.Equal(t, Book{ID: 3, Title: "Ubik", Author: "Someone", Year: 1900}, books[1])
}

// TestInvalidRequestsLeaveTableUntouched ensures rejected writes have no effect.
func TestInvalidRequestsLeaveTableUntouched(t *testing.T) {
	_, router := newTestRouter(t, nil)
	w := doRequest(t, router, http.MethodPost, "/libro", `{"titulo":"Dune","autor":"Herbert","anio":1965}`)
	require.Equal(t, http.StatusCreated, w.Code)

	bad := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodPost, "/libro", `{"titulo":"Emma","autor":"Austen"}`},
		{http.MethodPost, "/libro", `not json`},
		{http.MethodPost, "/libro", `{"titulo":"Emma","autor":"Austen","anio":"soon"}`},
		{http.MethodPut, "/libro/1", `{"id":2,"titulo":"Dune","autor":"Herbert","anio":2000}`},
		{http.MethodPut, "/libro/abc", `{"titulo":"Dune","autor":"Herbert","anio":2000}`},
		{http.MethodDelete, "/libro/-1", ""},
	}
	for _, b := range bad {
		w = doRequest(t, router, b.method, b.path, b.body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "%s %s", b.method, b.path)
		var apiErr APIError
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
		assert.Equal(t, http.StatusBadRequest, apiErr.Status)
		assert.Equal(t, "r:test", apiErr.RequestID)
	}

	w = doRequest(t, router, http.MethodGet, "/libro", "")
	assert.JSONEq(t, `[{"id":1,"titulo":"Dune","autor":"Herbert","anio":1965}]`, w.Body.String())
}

// TestMaintenanceModeFlow ensures ops endpoints stay reachable during maintenance.
func TestMaintenanceModeFlow(t *testing.T) {
	config := &Config{OpsEndpointsEnable: true, Server: ServerConfig{CORSOrigin: "*"}}
	api, router := newTestRouter(t, config)

	w := doRequest(t, router, http.MethodGet, "/ops/maintenance?status=enable&msg=backup", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, router, http.MethodGet, "/libro", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = doRequest(t, router, http.MethodGet, "/ops/stats", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, router, http.MethodGet, "/ops/maintenance?status=disable", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, router, http.MethodGet, "/libro", "")
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, uint64(5), api.stats.called)
	assert.Equal(t, uint64(1), api.stats.status[http.StatusServiceUnavailable])
}
