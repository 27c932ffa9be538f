package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "consultly/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError_AppErrorStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"validation", apperrors.Validation("Invalid time range", nil), http.StatusUnprocessableEntity, apperrors.CodeValidation},
		{"forbidden", apperrors.Forbidden("Only clients can book"), http.StatusForbidden, apperrors.CodeForbidden},
		{"conflict", apperrors.Conflict("Slot already booked"), http.StatusConflict, apperrors.CodeConflict},
		{"lock expired", apperrors.LockExpired("Slot lock expired"), http.StatusConflict, apperrors.CodeLockExpired},
		{"unavailable", apperrors.Unavailable("Lock store"), http.StatusServiceUnavailable, apperrors.CodeUnavailable},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, apperrors.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			require.NoError(t, WriteError(w, tt.err))

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantBody, body.Code)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestWriteError_HidesInternalText(t *testing.T) {
	w := httptest.NewRecorder()
	require.NoError(t, WriteError(w, errors.New("mongo: connection string has password=secret")))
	assert.NotContains(t, w.Body.String(), "secret")
}

func TestWriteSuccess_Envelope(t *testing.T) {
	w := httptest.NewRecorder()
	require.NoError(t, WriteSuccess(w, []string{}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[]}`, w.Body.String())
}
