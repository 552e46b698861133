package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"filmvault/internal/httpapi/apperr"
	"filmvault/internal/httpapi/dto"
	"filmvault/internal/httpapi/response"
	"filmvault/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMovieService struct {
	mock.Mock
}

func (m *MockMovieService) Create(ctx context.Context, in dto.CreateMovieInput, files []storage.StoredFile) (*dto.MovieDetailResponse, error) {
	args := m.Called(ctx, in, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.MovieDetailResponse), args.Error(1)
}

func (m *MockMovieService) GetAll(ctx context.Context, f dto.MovieFilters) ([]dto.MovieListItemResponse, dto.Pagination, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]dto.MovieListItemResponse), args.Get(1).(dto.Pagination), args.Error(2)
}

func (m *MockMovieService) GetByID(ctx context.Context, id int64) (*dto.MovieDetailResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.MovieDetailResponse), args.Error(1)
}

func (m *MockMovieService) Update(ctx context.Context, id int64, in dto.UpdateMovieDTO) (*dto.MovieDetailResponse, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.MovieDetailResponse), args.Error(1)
}

func (m *MockMovieService) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockMovieService) AddImages(ctx context.Context, movieID int64, files []storage.StoredFile, setCover bool) error {
	args := m.Called(ctx, movieID, files, setCover)
	return args.Error(0)
}

func (m *MockMovieService) DeleteImage(ctx context.Context, movieID, imageID int64) error {
	args := m.Called(ctx, movieID, imageID)
	return args.Error(0)
}

type MockFileStore struct {
	mock.Mock
}

func (m *MockFileStore) Delete(rel string) {
	m.Called(rel)
}

func (m *MockFileStore) DeleteMany(rels []string) {
	m.Called(rels)
}

// stubUploads plays the role of the multipart boundary, handing pre-stored
// file descriptors to the handler.
func stubUploads(files []storage.StoredFile) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("uploads", files)
		c.Next()
	}
}

func newMovieRouter(svc *MockMovieService, files *MockFileStore, uploads []storage.StoredFile) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewMovieHandler(svc, files, false)
	h.RegisterRoutes(r.Group("/api/movies"), stubUploads(uploads))
	return r
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestMovieHandler_List(t *testing.T) {
	t.Run("ParsesFiltersAndReturnsPaginatedEnvelope", func(t *testing.T) {
		svc := new(MockMovieService)
		r := newMovieRouter(svc, new(MockFileStore), nil)

		svc.On("GetAll", mock.Anything, mock.MatchedBy(func(f dto.MovieFilters) bool {
			return f.Page == 2 && f.Limit == 5 &&
				f.MediaType == "movie" && f.Keyword == "incep" &&
				f.SortBy == "rating" && f.Order == "asc" &&
				len(f.TagIDs) == 2 && f.TagIDs[0] == 1 && f.TagIDs[1] == 3 &&
				f.MinRating != nil && *f.MinRating == 7.5 &&
				f.MaxYear != nil && *f.MaxYear == 2020
		})).Return([]dto.MovieListItemResponse{{ID: 1, Title: "Inception"}},
			dto.Pagination{Page: 2, Limit: 5, Total: 6, TotalPages: 2}, nil).Once()

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet,
			"/api/movies?page=2&limit=5&media_type=movie&keyword=incep&sort_by=rating&order=asc&tag_ids=1,3&min_rating=7.5&max_year=2020", nil)
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		env := decodeEnvelope(t, w)
		assert.True(t, env.Success)
		require.NotNil(t, env.Pagination)
		assert.Equal(t, int64(6), env.Pagination.Total)
		assert.Equal(t, int64(2), env.Pagination.TotalPages)
		svc.AssertExpectations(t)
	})

	t.Run("RejectsBadQueryParams", func(t *testing.T) {
		svc := new(MockMovieService)
		r := newMovieRouter(svc, new(MockFileStore), nil)

		for _, q := range []string{"page=0", "limit=x", "tag_ids=1,abc", "min_rating=high", "min_year=x"} {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/movies?"+q, nil)
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code, "query %q", q)
			env := decodeEnvelope(t, w)
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Error)
		}
		svc.AssertNotCalled(t, "GetAll", mock.Anything, mock.Anything)
	})
}

func TestMovieHandler_Get(t *testing.T) {
	t.Run("NotFoundMapsTo404", func(t *testing.T) {
		svc := new(MockMovieService)
		r := newMovieRouter(svc, new(MockFileStore), nil)

		svc.On("GetByID", mock.Anything, int64(9)).
			Return(nil, apperr.NotFound("movie %d not found", 9)).Once()

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/movies/9", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
		env := decodeEnvelope(t, w)
		assert.False(t, env.Success)
	})

	t.Run("NonNumericIDMapsTo400", func(t *testing.T) {
		svc := new(MockMovieService)
		r := newMovieRouter(svc, new(MockFileStore), nil)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/movies/abc", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})
}

func multipartBody(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestMovieHandler_Create(t *testing.T) {
	stored := []storage.StoredFile{{RelPath: "movies/a.jpg"}, {RelPath: "movies/b.jpg"}}

	t.Run("Success", func(t *testing.T) {
		svc := new(MockMovieService)
		r := newMovieRouter(svc, new(MockFileStore), stored)

		svc.On("Create", mock.Anything, mock.MatchedBy(func(in dto.CreateMovieInput) bool {
			return in.Title == "Inception" && in.MediaType == "movie" &&
				in.Rating != nil && *in.Rating == 8.8 &&
				len(in.TagIDs) == 2 && in.CoverIndex == 1
		}), stored).Return(&dto.MovieDetailResponse{ID: 1, Title: "Inception"}, nil).Once()

		body, contentType := multipartBody(t, map[string]string{
			"title":       "Inception",
			"media_type":  "movie",
			"rating":      "8.8",
			"tag_ids":     "[1,2]",
			"cover_index": "1",
		})
		req := httptest.NewRequest(http.MethodPost, "/api/movies", body)
		req.Header.Set("Content-Type", contentType)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
		env := decodeEnvelope(t, w)
		assert.True(t, env.Success)
		svc.AssertExpectations(t)
	})

	t.Run("MissingTitleDiscardsStoredFiles", func(t *testing.T) {
		svc := new(MockMovieService)
		files := new(MockFileStore)
		r := newMovieRouter(svc, files, stored)

		files.On("DeleteMany", []string{"movies/a.jpg", "movies/b.jpg"}).Return().Once()

		body, contentType := multipartBody(t, map[string]string{"media_type": "movie"})
		req := httptest.NewRequest(http.MethodPost, "/api/movies", body)
		req.Header.Set("Content-Type", contentType)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		files.AssertExpectations(t)
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("MalformedTagIDsDiscardsStoredFiles", func(t *testing.T) {
		svc := new(MockMovieService)
		files := new(MockFileStore)
		r := newMovieRouter(svc, files, stored)

		files.On("DeleteMany", mock.Anything).Return().Once()

		body, contentType := multipartBody(t, map[string]string{
			"title":      "Inception",
			"media_type": "movie",
			"tag_ids":    "1,2", // CSV, not a JSON array
		})
		req := httptest.NewRequest(http.MethodPost, "/api/movies", body)
		req.Header.Set("Content-Type", contentType)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		files.AssertExpectations(t)
	})
}

func TestMovieHandler_Update(t *testing.T) {
	svc := new(MockMovieService)
	r := newMovieRouter(svc, new(MockFileStore), nil)

	svc.On("Update", mock.Anything, int64(4), mock.MatchedBy(func(in dto.UpdateMovieDTO) bool {
		return in.Title != nil && *in.Title == "Renamed" &&
			in.TagIDs != nil && len(*in.TagIDs) == 0
	})).Return(&dto.MovieDetailResponse{ID: 4, Title: "Renamed"}, nil).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/movies/4",
		strings.NewReader(`{"title":"Renamed","tag_ids":[]}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestMovieHandler_Delete(t *testing.T) {
	svc := new(MockMovieService)
	r := newMovieRouter(svc, new(MockFileStore), nil)

	svc.On("Delete", mock.Anything, int64(4)).Return(nil).Once()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/movies/4", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.True(t, env.Success)
}

func TestMovieHandler_AddImages(t *testing.T) {
	stored := []storage.StoredFile{{RelPath: "movies/new.jpg"}}

	t.Run("PassesSetCoverThrough", func(t *testing.T) {
		svc := new(MockMovieService)
		r := newMovieRouter(svc, new(MockFileStore), stored)

		svc.On("AddImages", mock.Anything, int64(7), stored, true).Return(nil).Once()

		body, contentType := multipartBody(t, map[string]string{"set_cover": "true"})
		req := httptest.NewRequest(http.MethodPost, "/api/movies/7/images", body)
		req.Header.Set("Content-Type", contentType)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("UnparsableSetCoverRejectedAndFilesDiscarded", func(t *testing.T) {
		svc := new(MockMovieService)
		files := new(MockFileStore)
		r := newMovieRouter(svc, files, stored)

		files.On("DeleteMany", []string{"movies/new.jpg"}).Return().Once()

		body, contentType := multipartBody(t, map[string]string{"set_cover": "yes"})
		req := httptest.NewRequest(http.MethodPost, "/api/movies/7/images", body)
		req.Header.Set("Content-Type", contentType)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decodeEnvelope(t, w)
		assert.False(t, env.Success)
		assert.Contains(t, env.Error, "set_cover")
		files.AssertExpectations(t)
		svc.AssertNotCalled(t, "AddImages", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("OmittedSetCoverDefaultsFalse", func(t *testing.T) {
		svc := new(MockMovieService)
		r := newMovieRouter(svc, new(MockFileStore), stored)

		svc.On("AddImages", mock.Anything, int64(7), stored, false).Return(nil).Once()

		body, contentType := multipartBody(t, map[string]string{})
		req := httptest.NewRequest(http.MethodPost, "/api/movies/7/images", body)
		req.Header.Set("Content-Type", contentType)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})
}

func TestMovieHandler_DeleteImage(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc := new(MockMovieService)
		r := newMovieRouter(svc, new(MockFileStore), nil)

		svc.On("DeleteImage", mock.Anything, int64(7), int64(3)).Return(nil).Once()

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/movies/7/images/3", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("BadImageID", func(t *testing.T) {
		svc := new(MockMovieService)
		r := newMovieRouter(svc, new(MockFileStore), nil)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/movies/7/images/-1", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "DeleteImage", mock.Anything, mock.Anything, mock.Anything)
	})
}
