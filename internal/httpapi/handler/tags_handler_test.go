package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"filmvault/internal/httpapi/apperr"
	"filmvault/internal/httpapi/dto"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTagService struct {
	mock.Mock
}

func (m *MockTagService) GetAll(ctx context.Context) ([]dto.TagResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dto.TagResponse), args.Error(1)
}

func (m *MockTagService) Create(ctx context.Context, name string) (*dto.TagResponse, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.TagResponse), args.Error(1)
}

func newTagRouter(svc *MockTagService, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// stand-in for the auth gate
	r.Use(func(c *gin.Context) {
		if role != "" {
			c.Set("role", role)
		}
		c.Next()
	})
	NewTagHandler(svc, false).RegisterRoutes(r.Group("/api/tags"))
	return r
}

func TestTagHandler_List(t *testing.T) {
	svc := new(MockTagService)
	r := newTagRouter(svc, "user")

	svc.On("GetAll", mock.Anything).Return([]dto.TagResponse{
		{ID: 1, Name: "thriller"},
	}, nil).Once()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tags", nil))

	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.True(t, env.Success)
}

func TestTagHandler_Create(t *testing.T) {
	t.Run("AdminCreates", func(t *testing.T) {
		svc := new(MockTagService)
		r := newTagRouter(svc, "admin")

		svc.On("Create", mock.Anything, "thriller").
			Return(&dto.TagResponse{ID: 1, Name: "thriller"}, nil).Once()

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/tags", strings.NewReader(`{"name":"thriller"}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
		env := decodeEnvelope(t, w)
		assert.True(t, env.Success)
		svc.AssertExpectations(t)
	})

	t.Run("NonAdminForbidden", func(t *testing.T) {
		svc := new(MockTagService)
		r := newTagRouter(svc, "user")

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/tags", strings.NewReader(`{"name":"thriller"}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("DuplicateMapsTo409", func(t *testing.T) {
		svc := new(MockTagService)
		r := newTagRouter(svc, "admin")

		svc.On("Create", mock.Anything, "thriller").
			Return(nil, apperr.Conflict("tag %q already exists", "thriller")).Once()

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/tags", strings.NewReader(`{"name":"thriller"}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		env := decodeEnvelope(t, w)
		assert.False(t, env.Success)
		assert.Contains(t, env.Error, "already exists")
	})

	t.Run("MissingNameRejected", func(t *testing.T) {
		svc := new(MockTagService)
		r := newTagRouter(svc, "admin")

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/tags", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}
