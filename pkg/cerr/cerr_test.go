package cerr_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadreammm/Helply/pkg/cerr"
	"github.com/sadreammm/Helply/pkg/clog"
	"github.com/sadreammm/Helply/pkg/models"
)

func TestCodeHTTP(t *testing.T) {
	tests := map[string]struct {
		code   cerr.Code
		status int
		name   string
	}{
		"not found":  {code: cerr.NotFound, status: 404, name: "not_found"},
		"invalid":    {code: cerr.InvalidArgument, status: 400, name: "invalid_argument"},
		"canceled":   {code: cerr.Canceled, status: 499, name: "canceled"},
		"limited":    {code: cerr.ResourceExhausted, status: 429, name: "resource_exhausted"},
		"internal":   {code: cerr.Internal, status: 500, name: "internal"},
		"unassigned": {code: cerr.Code(99), status: 500, name: "unknown"},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.status, test.code.HTTPCode())
			assert.Equal(t, test.name, test.code.String())
		})
	}
}

func TestNewErrorStack(t *testing.T) {
	assert.NotEmpty(t, cerr.NewError(cerr.Internal, "server error", nil).Stack)
	assert.Empty(t, cerr.NewError(cerr.NotFound, "task not found", nil).Stack)
}

func TestErrorWrapping(t *testing.T) {
	err := fmt.Errorf("handler: %w", cerr.NewError(cerr.NotFound, "task not found", models.ErrTaskNotFound))
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
	assert.False(t, cerr.IsCode(err, cerr.Internal))
	assert.True(t, errors.Is(err, models.ErrTaskNotFound))
	assert.Contains(t, err.Error(), "[not_found] task not found: task not found")
}

func TestWrapReadError(t *testing.T) {
	assert.True(t, cerr.IsCode(cerr.WrapReadError("employee", fmt.Errorf("x: %w", models.ErrEmployeeNotFound)), cerr.NotFound))
	assert.True(t, cerr.IsCode(cerr.WrapReadError("definition", models.ErrDefinitionNotFound), cerr.NotFound))
	assert.True(t, cerr.IsCode(cerr.WrapReadError("task", models.ErrNotValid), cerr.InvalidArgument))
	assert.True(t, cerr.IsCode(cerr.WrapReadError("task", errors.New("disk")), cerr.Internal))
	assert.True(t, cerr.IsCode(cerr.WrapWriteError("task", models.ErrTaskNotFound), cerr.NotFound))
	assert.True(t, cerr.IsCode(cerr.WrapWriteError("task", errors.New("disk")), cerr.Internal))
}

func serve(h http.HandlerFunc) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(clog.ContextWithSlog(req.Context()))
	cerr.NewJSONChiMiddleware()(h).ServeHTTP(rec, req)
	return rec
}

func TestMiddlewareResponse(t *testing.T) {
	rec := serve(func(w http.ResponseWriter, r *http.Request) {
		cerr.SetJSONResponse(r.Context(), map[string]string{"status": "healthy"})
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())

	rec = serve(func(w http.ResponseWriter, r *http.Request) {
		cerr.SetJSONResponseWithStatus(r.Context(), http.StatusCreated, map[string]string{"id": "t1"})
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestMiddlewareError(t *testing.T) {
	rec := serve(func(w http.ResponseWriter, r *http.Request) {
		cerr.SetNewJSONError(r.Context(), cerr.NotFound, "employee not found", models.ErrEmployeeNotFound)
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"code":"not_found","message":"employee not found"}`, rec.Body.String())

	rec = serve(func(w http.ResponseWriter, r *http.Request) {
		cerr.SetJSONError(r.Context(), errors.New("raw"))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"code":"unknown","message":"unknown error"}`, rec.Body.String())

	rec = serve(func(w http.ResponseWriter, r *http.Request) {
		cerr.SetJSONError(r.Context(), context.Canceled)
	})
	assert.Equal(t, 499, rec.Code)
}

func TestMiddlewarePassThrough(t *testing.T) {
	rec := serve(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, err := w.Write([]byte("metrics"))
		require.NoError(t, err)
	})
	assert.Equal(t, "metrics", rec.Body.String())
}
