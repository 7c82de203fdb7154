package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kabaddi-league/scorekeeper/models"
	"github.com/kabaddi-league/scorekeeper/repositories"
)

type MockGalleryRepository struct {
	mock.Mock
}

func (m *MockGalleryRepository) Create(ctx context.Context, image *models.GalleryImage) error {
	return m.Called(ctx, image).Error(0)
}

func (m *MockGalleryRepository) GetByID(ctx context.Context, id int) (*models.GalleryImage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GalleryImage), args.Error(1)
}

func (m *MockGalleryRepository) List(ctx context.Context) ([]*models.GalleryImage, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.GalleryImage), args.Error(1)
}

func (m *MockGalleryRepository) Delete(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func TestGalleryService_UploadImage(t *testing.T) {
	ctx := context.Background()

	t.Run("stores the key and returns a public URL", func(t *testing.T) {
		repo := new(MockGalleryRepository)
		uploader := &fakeUploader{}
		service := NewGalleryService(repo, uploader, testLogger())

		caption := "Final day crowd"
		repo.On("Create", ctx, mock.MatchedBy(func(img *models.GalleryImage) bool {
			return img.Caption != nil && *img.Caption == caption && strings.HasPrefix(img.ImageKey, "gallery/image-")
		})).Return(nil)

		image, err := service.UploadImage(ctx, &caption, strings.NewReader("jpeg-bytes"), "image/jpeg")
		require.NoError(t, err)
		require.Len(t, uploader.uploaded, 1)
		assert.True(t, strings.HasSuffix(image.ImageKey, ".jpg"))
		require.NotNil(t, image.ImageURL)
		assert.Equal(t, "https://cdn.test/"+image.ImageKey, *image.ImageURL)
	})

	t.Run("deletes the upload when the insert fails", func(t *testing.T) {
		repo := new(MockGalleryRepository)
		uploader := &fakeUploader{}
		service := NewGalleryService(repo, uploader, testLogger())
		repo.On("Create", ctx, mock.Anything).Return(errors.New("pq: insert failed"))

		_, err := service.UploadImage(ctx, nil, strings.NewReader("jpeg-bytes"), "image/jpeg")
		require.Error(t, err)
		require.Len(t, uploader.uploaded, 1)
		assert.Equal(t, uploader.uploaded, uploader.deleted)
	})
}

func TestGalleryService_DeleteImage(t *testing.T) {
	ctx := context.Background()

	t.Run("missing image", func(t *testing.T) {
		repo := new(MockGalleryRepository)
		service := NewGalleryService(repo, &fakeUploader{}, testLogger())
		repo.On("GetByID", ctx, 9).Return(nil, repositories.ErrGalleryImageNotFound)

		err := service.DeleteImage(ctx, 9)
		assert.ErrorIs(t, err, ErrGalleryNotFound)
	})

	t.Run("removes the row then the stored file", func(t *testing.T) {
		repo := new(MockGalleryRepository)
		uploader := &fakeUploader{}
		service := NewGalleryService(repo, uploader, testLogger())
		repo.On("GetByID", ctx, 3).Return(&models.GalleryImage{ID: 3, ImageKey: "gallery/image-1.jpg"}, nil)
		repo.On("Delete", ctx, 3).Return(nil)

		require.NoError(t, service.DeleteImage(ctx, 3))
		assert.Equal(t, []string{"gallery/image-1.jpg"}, uploader.deleted)
	})
}
