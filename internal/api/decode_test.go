package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}

	rec := httptest.NewRecorder()
	ok := DecodeJSON(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Room 4"}`)), &dst)
	assert.True(t, ok)
	assert.Equal(t, "Room 4", dst.Name)

	rec = httptest.NewRecorder()
	ok = DecodeJSON(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`)), &dst)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_FAILED")
}

func TestDecodeJSON_OversizedBodyRejected(t *testing.T) {
	var dst map[string]any
	body := `{"notes":"` + strings.Repeat("a", MaxJSONBody) + `"}`

	rec := httptest.NewRecorder()
	ok := DecodeJSON(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), &dst)

	assert.False(t, ok)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "BODY_TOO_LARGE")
}
