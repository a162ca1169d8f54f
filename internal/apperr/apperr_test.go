package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorRendering(t *testing.T) {
	cause := errors.New("pool timed out")

	tests := []struct {
		name    string
		err     *Error
		display string
		body    string
		source  bool
	}{
		{"empty", Empty(), "", "{}", false},
		{"simple deduplicates", New("bad input", "bad input"), "bad input", "", false},
		{"simple with detail", New("bad input", "field x"), "bad input. field x", "", false},
		{"wrapped", Wrap(cause).WithMsg("cannot load"), "cannot load", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.display, tt.err.Error())
			assert.Equal(t, tt.source, tt.err.HasSource())
			if tt.body != "" {
				assert.Equal(t, tt.body, string(tt.err.Body()))
			}
		})
	}
}

func TestEnvelope(t *testing.T) {
	var body map[string]any
	require.NoError(t, json.Unmarshal(New("nope", "internal").Body(), &body))

	assert.Equal(t, "nope", body["Message"])
	assert.Equal(t, "error", body["Object"])
	assert.Nil(t, body["ExceptionMessage"])
	model := body["ErrorModel"].(map[string]any)
	assert.Equal(t, "nope", model["Message"])
}

func TestChainingAndCodes(t *testing.T) {
	e := New("a", "b")
	assert.Equal(t, DefaultCode, e.Code())

	e = e.WithCode(http.StatusConflict).WithMsg("c").WithEvent(Event{Type: "2fa"})
	assert.Equal(t, http.StatusConflict, e.Code())
	assert.Equal(t, "c", e.Message())
	require.NotNil(t, e.Event())
	assert.Equal(t, "2fa", e.Event().Type)
}

func TestDebugFormatIncludesCause(t *testing.T) {
	cause := errors.New("connection refused")
	e := Wrap(cause).WithMsg("cannot connect")

	assert.Equal(t, "cannot connect.\n[CAUSE] connection refused", fmt.Sprintf("%+v", e))
	assert.Equal(t, "cannot connect", fmt.Sprintf("%v", e))
	assert.ErrorIs(t, e, cause)

	simple := New("x", "y")
	assert.Equal(t, "x. y", fmt.Sprintf("%+v", simple))
	assert.Nil(t, simple.Unwrap())
}

func TestMapAndFrom(t *testing.T) {
	assert.Nil(t, Map(nil, "ignored"))

	existing := New("kept", "")
	assert.Same(t, existing, From(fmt.Errorf("outer: %w", existing)))

	mapped := Map(errors.New("raw"), "friendly")
	assert.Equal(t, KindWrapped, mapped.Kind())
	assert.Equal(t, "friendly", mapped.Error())

	_, err := Require[int](nil, "missing value")
	assert.EqualError(t, err, "missing value")
}

func TestWrite(t *testing.T) {
	rr := httptest.NewRecorder()
	Write(rr, zerolog.Nop(), Storage(errors.New("disk full"), "Could not save"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "Could not save")
	assert.NotContains(t, rr.Body.String(), "disk full")

	rr = httptest.NewRecorder()
	Write(rr, zerolog.Nop(), Unauthorized())
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "{}", rr.Body.String())
}
