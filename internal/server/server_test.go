package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timini-print/internal/print"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakePrinter struct {
	requests []print.Request
	err      error
}

func (f *fakePrinter) Print(ctx context.Context, req print.Request) error {
	f.requests = append(f.requests, req)
	return f.err
}

func doRequest(t *testing.T, printer *fakePrinter, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	router := New(printer, 10*1024, zerolog.Nop()).Router()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPrintTextQuery(t *testing.T) {
	p := &fakePrinter{}
	w := doRequest(t, p, http.MethodGet, "/print?text=Hello", "")

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, p.requests, 1)
	assert.Equal(t, print.Request{Text: "Hello"}, p.requests[0])
}

func TestPrintTextAndQRQuery(t *testing.T) {
	p := &fakePrinter{}
	w := doRequest(t, p, http.MethodGet, "/print?text=Box+1&qr=http://x/box/1", "")

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, p.requests, 1)
	assert.Equal(t, print.Request{Text: "Box 1", QR: "http://x/box/1"}, p.requests[0])
}

func TestPrintQROnlyDefaultsText(t *testing.T) {
	p := &fakePrinter{}
	w := doRequest(t, p, http.MethodGet, "/print?qr=http://x/box/1", "")

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, p.requests, 1)
	assert.Equal(t, print.Request{Text: "http://x/box/1", QR: "http://x/box/1"}, p.requests[0])
}

func TestPrintTextOnlySelectsNoQR(t *testing.T) {
	p := &fakePrinter{}
	w := doRequest(t, p, http.MethodPost, "/print", `{"text":"Hello"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, p.requests, 1)
	assert.Empty(t, p.requests[0].QR, "absent qr key means text-only mode")
}

func TestPrintJSONBody(t *testing.T) {
	p := &fakePrinter{}
	w := doRequest(t, p, http.MethodPost, "/print", `{"text":"Hello","qr":"https://example.com"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, p.requests, 1)
	assert.Equal(t, print.Request{Text: "Hello", QR: "https://example.com"}, p.requests[0])
}

func TestPrintStructuredTextFlattens(t *testing.T) {
	p := &fakePrinter{}
	w := doRequest(t, p, http.MethodPost, "/print", `{"text":{"a":1,"b":2}}`)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, p.requests, 1)
	assert.Equal(t, "a: 1\nb: 2", p.requests[0].Text)
}

func TestPrintEmptyText(t *testing.T) {
	p := &fakePrinter{}

	w := doRequest(t, p, http.MethodGet, "/print?text=++", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, p, http.MethodPost, "/print", `{"text":"  "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Empty(t, p.requests, "coordinator must never see an empty request")
}

func TestPrintEmptyQRValue(t *testing.T) {
	p := &fakePrinter{}
	w := doRequest(t, p, http.MethodGet, "/print?text=x&qr=", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, p.requests)
}

func TestPrintMissingParams(t *testing.T) {
	p := &fakePrinter{}

	w := doRequest(t, p, http.MethodGet, "/print", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, p, http.MethodPost, "/print", `{"other":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPrintMalformedBody(t *testing.T) {
	p := &fakePrinter{}

	w := doRequest(t, p, http.MethodPost, "/print", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, p, http.MethodPost, "/print", `["array","not","object"]`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPrintBodyTooLarge(t *testing.T) {
	p := &fakePrinter{}
	router := New(p, 64, zerolog.Nop()).Router()

	body := `{"text":"` + strings.Repeat("x", 200) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/print", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Empty(t, p.requests)
}

func TestUnknownPath(t *testing.T) {
	w := doRequest(t, &fakePrinter{}, http.MethodGet, "/status", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPrinterFailureIsConverted(t *testing.T) {
	p := &fakePrinter{err: errors.New("scan blew up")}
	w := doRequest(t, p, http.MethodGet, "/print?text=Hello", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "scan blew up", "internal detail must not leak to the caller")
}

func TestHealthz(t *testing.T) {
	w := doRequest(t, &fakePrinter{}, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
