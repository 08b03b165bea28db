package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServerErrorHidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	cause := errors.New(`failed to connect to host=db user=simurgh: password authentication failed`)

	serverError(rec, "list orders", cause)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"list orders failed"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "password")
}
