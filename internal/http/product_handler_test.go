package http

import (
	"net/http"
	"testing"

	"github.com/fjod/go_market/internal/backend"
	"github.com/fjod/go_market/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducts_List(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/products", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.Product](t, rec), 2)
}

func TestProducts_Get(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/products/1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	product := decode[domain.Product](t, rec)
	assert.Equal(t, "Apples", product.Name)
	assert.Equal(t, "2.5", product.Price.String())
}

func TestProducts_GetUnknown(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/products/42", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProducts_BreakerOpen(t *testing.T) {
	f := newFixture(t)
	f.catalog.err = backend.ErrUnavailable

	rec := f.do(t, http.MethodGet, "/api/v1/products", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "service_unavailable", decode[ErrorResponse](t, rec).Code)
}
