package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"time"

	"github.com/kabaddi-league/scorekeeper/models"
	"github.com/kabaddi-league/scorekeeper/repositories"
	"github.com/kabaddi-league/scorekeeper/storage"
)

type GalleryService interface {
	UploadImage(ctx context.Context, caption *string, file io.Reader, contentType string) (*models.GalleryImage, error)
	ListImages(ctx context.Context) ([]*models.GalleryImage, error)
	DeleteImage(ctx context.Context, imageID int) error
}

type galleryService struct {
	galleryRepo repositories.GalleryRepository
	uploader    storage.FileUploader
	logger      *slog.Logger
}

func NewGalleryService(galleryRepo repositories.GalleryRepository, uploader storage.FileUploader, logger *slog.Logger) GalleryService {
	return &galleryService{
		galleryRepo: galleryRepo,
		uploader:    uploader,
		logger:      logger,
	}
}

func (s *galleryService) UploadImage(ctx context.Context, caption *string, file io.Reader, contentType string) (*models.GalleryImage, error) {
	key := galleryImageKey(contentType)
	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("upload gallery image: %w", err)
	}

	image := &models.GalleryImage{
		Caption:  caption,
		ImageKey: key,
	}
	if err := s.galleryRepo.Create(ctx, image); err != nil {
		if derr := s.uploader.Delete(ctx, key); derr != nil {
			s.logger.Error("failed to delete orphaned gallery image",
				slog.String("key", key), slog.Any("error", derr))
		}
		return nil, fmt.Errorf("create gallery image: %w", err)
	}

	image.ImageURL = publicURLOrNil(&image.ImageKey, s.uploader)
	return image, nil
}

func (s *galleryService) ListImages(ctx context.Context) ([]*models.GalleryImage, error) {
	images, err := s.galleryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list gallery images: %w", err)
	}
	for _, img := range images {
		img.ImageURL = publicURLOrNil(&img.ImageKey, s.uploader)
	}
	return images, nil
}

func (s *galleryService) DeleteImage(ctx context.Context, imageID int) error {
	image, err := s.galleryRepo.GetByID(ctx, imageID)
	if err != nil {
		if errors.Is(err, repositories.ErrGalleryImageNotFound) {
			return ErrGalleryNotFound
		}
		return fmt.Errorf("get gallery image: %w", err)
	}

	if err := s.galleryRepo.Delete(ctx, imageID); err != nil {
		if errors.Is(err, repositories.ErrGalleryImageNotFound) {
			return ErrGalleryNotFound
		}
		return fmt.Errorf("delete gallery image: %w", err)
	}

	if err := s.uploader.Delete(ctx, image.ImageKey); err != nil {
		s.logger.Error("failed to delete stored gallery image",
			slog.String("key", image.ImageKey), slog.Any("error", err))
	}
	return nil
}

func galleryImageKey(contentType string) string {
	return path.Join("gallery",
		fmt.Sprintf("image-%d%s", time.Now().UnixNano(), extensionFor(contentType)))
}
