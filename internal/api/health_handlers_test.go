package api

import (
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t, testOptions{})

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	env := decode[HealthResponse](t, resp.Body)
	assert.True(t, env.Success)
	assert.Equal(t, "healthy", env.Data.Status)
	assert.Equal(t, "healthy", env.Data.Components["database"].Status)
	assert.Equal(t, "healthy", env.Data.Components["search"].Status)
	assert.Equal(t, "0 documents", env.Data.Components["search"].Message)
}

func TestHealthCheck_DegradedWithoutDependencies(t *testing.T) {
	s := NewServer(nil, nil, &Services{}, Options{}, nil)
	api := humatest.Wrap(t, s.API())

	resp := api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	env := decode[HealthResponse](t, resp.Body)
	assert.Equal(t, "degraded", env.Data.Status)
	assert.Equal(t, "database not configured", env.Data.Components["database"].Message)
}

func TestFormatDocCount(t *testing.T) {
	assert.Equal(t, "0 documents", formatDocCount(0))
	assert.Equal(t, "1 document", formatDocCount(1))
	assert.Equal(t, "42 documents", formatDocCount(42))
}
