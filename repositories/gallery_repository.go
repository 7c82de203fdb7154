package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/kabaddi-league/scorekeeper/models"
)

var ErrGalleryImageNotFound = errors.New("gallery image not found")

type GalleryRepository interface {
	Create(ctx context.Context, image *models.GalleryImage) error
	GetByID(ctx context.Context, id int) (*models.GalleryImage, error)
	List(ctx context.Context) ([]*models.GalleryImage, error)
	Delete(ctx context.Context, id int) error
}

type postgresGalleryRepository struct {
	db *sql.DB
}

func NewPostgresGalleryRepository(db *sql.DB) GalleryRepository {
	return &postgresGalleryRepository{db: db}
}

func (r *postgresGalleryRepository) Create(ctx context.Context, image *models.GalleryImage) error {
	query := `
		INSERT INTO gallery (image_key, caption)
		VALUES ($1, $2)
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query, image.ImageKey, image.Caption).
		Scan(&image.ID, &image.CreatedAt)
}

func (r *postgresGalleryRepository) GetByID(ctx context.Context, id int) (*models.GalleryImage, error) {
	query := `SELECT id, image_key, caption, created_at FROM gallery WHERE id = $1`

	image := &models.GalleryImage{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&image.ID, &image.ImageKey, &image.Caption, &image.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGalleryImageNotFound
		}
		return nil, err
	}
	return image, nil
}

func (r *postgresGalleryRepository) List(ctx context.Context) ([]*models.GalleryImage, error) {
	query := `SELECT id, image_key, caption, created_at FROM gallery ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	images := make([]*models.GalleryImage, 0)
	for rows.Next() {
		image := &models.GalleryImage{}
		if err := rows.Scan(&image.ID, &image.ImageKey, &image.Caption, &image.CreatedAt); err != nil {
			return nil, err
		}
		images = append(images, image)
	}
	return images, rows.Err()
}

func (r *postgresGalleryRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM gallery WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGalleryImageNotFound)
}
