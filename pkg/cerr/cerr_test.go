package cerr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kazz187/taskdash/pkg/storage"
)

func serve(h http.HandlerFunc) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	NewJSONResponseChiMiddleware()(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	return rec
}

func TestMiddleware_Response(t *testing.T) {
	rec := serve(func(w http.ResponseWriter, r *http.Request) {
		SetJSONResponseWithStatus(r.Context(), http.StatusCreated, map[string]int{"n": 1})
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"n":1}`, rec.Body.String())
}

func TestMiddleware_NoContent(t *testing.T) {
	rec := serve(func(w http.ResponseWriter, r *http.Request) {
		SetNoContent(r.Context())
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestMiddleware_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"validation", NewError(InvalidArgument, "title is required", nil), http.StatusBadRequest, `{"code":"invalid_argument","message":"title is required"}`},
		{"internal hides cause", NewError(Internal, "server error", errors.New("disk on fire")), http.StatusInternalServerError, `{"code":"internal","message":"server error"}`},
		{"redirect", NewRedirectError(Unauthenticated, "Please sign in to continue.", "/login"), http.StatusUnauthorized, `{"code":"unauthenticated","message":"Please sign in to continue.","redirect":"/login"}`},
		{"wrapped", fmt.Errorf("outer: %w", NewError(NotFound, "task not found", nil)), http.StatusNotFound, `{"code":"not_found","message":"task not found"}`},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, `{"code":"unknown","message":"unknown error"}`},
		{"canceled", context.Canceled, 499, `{"code":"canceled","message":"connection closed"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(func(w http.ResponseWriter, r *http.Request) {
				SetJSONError(r.Context(), tt.err)
			})
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestRespondError_WithoutMiddleware(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(context.Background(), rec, NewError(PermissionDenied, "nope", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"code":"permission_denied","message":"nope"}`, rec.Body.String())
}

func TestNewError_Stack(t *testing.T) {
	assert.NotEmpty(t, NewError(Internal, "server error", nil).Stack)
	assert.Empty(t, NewError(NotFound, "missing", nil).Stack)
}

func TestWrapStorageErrors(t *testing.T) {
	notFound := fmt.Errorf("x: %w", storage.ErrNotFound)
	conflict := fmt.Errorf("x: %w", storage.ErrConflict)

	assert.True(t, IsCode(WrapStorageReadError("task", notFound), NotFound))
	assert.True(t, IsCode(WrapStorageReadError("task", errors.New("io")), Internal))
	assert.True(t, IsCode(WrapStorageWriteError("task", conflict), AlreadyExists))
	assert.True(t, IsCode(WrapStorageWriteError("task", notFound), NotFound))
	assert.True(t, IsCode(WrapStorageDeleteError("task", notFound), NotFound))

	var cErr *Error
	assert.ErrorAs(t, WrapStorageReadError("project", notFound), &cErr)
	assert.Equal(t, "project not found", cErr.Msg)
}

func TestCode(t *testing.T) {
	assert.Equal(t, "invalid_argument", InvalidArgument.String())
	assert.Equal(t, InvalidArgument, ParseCode("invalid_argument"))
	assert.Equal(t, Unknown, ParseCode("nonsense"))
	assert.Equal(t, http.StatusConflict, AlreadyExists.HTTPCode())
}
