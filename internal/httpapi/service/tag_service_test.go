package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"filmvault/internal/httpapi/apperr"
	"filmvault/internal/httpapi/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type MockTagVocabulary struct {
	mock.Mock
}

func (m *MockTagVocabulary) GetAll(ctx context.Context) ([]models.Tag, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Tag), args.Error(1)
}

func (m *MockTagVocabulary) Create(ctx context.Context, t *models.Tag) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTagVocabulary) FindByName(ctx context.Context, name string) (*models.Tag, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tag), args.Error(1)
}

// cache is nil throughout: the service must work with caching disabled.
func newTagService(repo *MockTagVocabulary) TagService {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewTagService(repo, nil, time.Hour, logger)
}

func TestTagService_GetAll(t *testing.T) {
	repo := new(MockTagVocabulary)
	svc := newTagService(repo)

	repo.On("GetAll", mock.Anything).Return([]models.Tag{
		{ID: 1, Name: "thriller"},
		{ID: 2, Name: "scifi"},
	}, nil).Once()

	list, err := svc.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "thriller", list[0].Name)
	assert.Equal(t, int64(2), list[1].ID)
}

func TestTagService_Create(t *testing.T) {
	t.Run("TrimsName", func(t *testing.T) {
		repo := new(MockTagVocabulary)
		svc := newTagService(repo)

		repo.On("FindByName", mock.Anything, "thriller").Return(nil, gorm.ErrRecordNotFound).Once()
		repo.On("Create", mock.Anything, mock.MatchedBy(func(tag *models.Tag) bool {
			return tag.Name == "thriller"
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*models.Tag).ID = 3
		}).Return(nil).Once()

		created, err := svc.Create(context.Background(), "  thriller  ")
		require.NoError(t, err)
		assert.Equal(t, int64(3), created.ID)
		assert.Equal(t, "thriller", created.Name)
	})

	t.Run("EmptyNameRejected", func(t *testing.T) {
		repo := new(MockTagVocabulary)
		svc := newTagService(repo)

		_, err := svc.Create(context.Background(), "   ")
		assert.True(t, apperr.IsValidation(err))
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("ExistingNameIsConflict", func(t *testing.T) {
		repo := new(MockTagVocabulary)
		svc := newTagService(repo)

		repo.On("FindByName", mock.Anything, "thriller").
			Return(&models.Tag{ID: 1, Name: "thriller"}, nil).Once()

		_, err := svc.Create(context.Background(), "thriller")
		assert.True(t, apperr.IsConflict(err))
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("DuplicateKeyRaceIsConflict", func(t *testing.T) {
		repo := new(MockTagVocabulary)
		svc := newTagService(repo)

		repo.On("FindByName", mock.Anything, "thriller").Return(nil, gorm.ErrRecordNotFound).Once()
		repo.On("Create", mock.Anything, mock.Anything).Return(gorm.ErrDuplicatedKey).Once()

		_, err := svc.Create(context.Background(), "thriller")
		assert.True(t, apperr.IsConflict(err))
	})

	t.Run("LookupFailureIsInternal", func(t *testing.T) {
		repo := new(MockTagVocabulary)
		svc := newTagService(repo)

		repo.On("FindByName", mock.Anything, "thriller").
			Return(nil, errors.New("db down")).Once()

		_, err := svc.Create(context.Background(), "thriller")
		require.Error(t, err)
		assert.False(t, apperr.IsConflict(err))
		assert.False(t, apperr.IsValidation(err))
	})
}
