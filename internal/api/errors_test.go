package api

import (
	"encoding/json/v2"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/bookmate/bookmate-server/internal/errors"
	"github.com/bookmate/bookmate-server/internal/store"
)

func TestNewAPIError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		message string
		errs    []error
		want    int
		code    string
		wantMsg string
	}{
		{
			name:    "domain error wins over status",
			status:  http.StatusInternalServerError,
			message: "unexpected error occurred",
			errs:    []error{fmt.Errorf("edit: %w", domainerrors.Validation("pages read must be between 0 and total pages"))},
			want:    http.StatusBadRequest,
			code:    "VALIDATION",
			wantMsg: "pages read must be between 0 and total pages",
		},
		{
			name:    "store not found",
			status:  http.StatusInternalServerError,
			message: "unexpected error occurred",
			errs:    []error{fmt.Errorf("get: %w", store.ErrBookNotFound)},
			want:    http.StatusNotFound,
			code:    "NOT_FOUND",
			wantMsg: "get: book not found",
		},
		{
			name:    "invalid cursor",
			status:  http.StatusInternalServerError,
			message: "unexpected error occurred",
			errs:    []error{store.ErrInvalidCursor},
			want:    http.StatusBadRequest,
			code:    "VALIDATION",
			wantMsg: "invalid cursor",
		},
		{
			name:    "plain error keeps generic message",
			status:  http.StatusInternalServerError,
			message: "unexpected error occurred",
			errs:    []error{errors.New("disk on fire")},
			want:    http.StatusInternalServerError,
			code:    "INTERNAL",
			wantMsg: "unexpected error occurred",
		},
		{
			name:    "huma validation becomes 400",
			status:  http.StatusUnprocessableEntity,
			message: "validation failed",
			errs:    []error{&huma.ErrorDetail{Message: "expected required property email to be present", Location: "body"}},
			want:    http.StatusBadRequest,
			code:    "VALIDATION",
			wantMsg: "validation failed",
		},
		{
			name:    "unauthorized",
			status:  http.StatusUnauthorized,
			message: "Authentication required",
			want:    http.StatusUnauthorized,
			code:    "UNAUTHORIZED",
			wantMsg: "Authentication required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newAPIError(tt.status, tt.message, tt.errs...)
			assert.Equal(t, tt.want, err.GetStatus())

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.code, apiErr.Code)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
		})
	}
}

func TestEnvelopeTransformer_Success(t *testing.T) {
	result, err := EnvelopeTransformer(nil, "200", map[string]string{"id": "BS_US001_001"})
	require.NoError(t, err)

	out := marshalMap(t, result)
	assert.Equal(t, float64(EnvelopeVersion), out["v"])
	assert.Equal(t, true, out["success"])
	assert.Contains(t, out, "data")
	assert.NotContains(t, out, "error")
	assert.NotContains(t, out, "version")
}

func TestEnvelopeTransformer_Error(t *testing.T) {
	result, err := EnvelopeTransformer(nil, "409", &APIError{
		status:  http.StatusConflict,
		Code:    "ALREADY_EXISTS",
		Message: "'Dune' by Frank Herbert is already in your collection",
		Details: map[string]string{"book_id": "BS_US001_001"},
	})
	require.NoError(t, err)

	out := marshalMap(t, result)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "ALREADY_EXISTS", out["code"])
	assert.Equal(t, out["message"], out["error"])
	assert.Contains(t, out, "details")
	assert.NotContains(t, out, "data")
}

func TestEnvelopeTransformer_NilData(t *testing.T) {
	result, err := EnvelopeTransformer(nil, "204", nil)
	require.NoError(t, err)

	out := marshalMap(t, result)
	assert.Equal(t, true, out["success"])
	assert.NotContains(t, out, "data")
}

func marshalMap(t *testing.T, v any) map[string]any {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	return out
}
