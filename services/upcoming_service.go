package services

import (
	"context"
	"errors"
	"strings"

	"storefront/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UpcomingService struct {
	db *gorm.DB
}

func NewUpcomingService(db *gorm.DB) *UpcomingService {
	return &UpcomingService{db: db}
}

func (s *UpcomingService) List(ctx context.Context) ([]models.UpcomingRelease, error) {
	var releases []models.UpcomingRelease
	if err := s.db.WithContext(ctx).Order("position ASC").Find(&releases).Error; err != nil {
		return nil, err
	}
	return releases, nil
}

// Create prepends release. The release date defaults to TBA.
func (s *UpcomingService) Create(ctx context.Context, release *models.UpcomingRelease) error {
	release.Title = strings.TrimSpace(release.Title)
	if release.Title == "" {
		return FieldErrors{"title": "title is required"}
	}
	if release.ID == "" {
		release.ID = "up-" + uuid.NewString()
	}
	if strings.TrimSpace(release.ReleaseDate) == "" {
		release.ReleaseDate = "TBA"
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var first int64
		if err := tx.Model(&models.UpcomingRelease{}).Select("COALESCE(MIN(position), 0)").Scan(&first).Error; err != nil {
			return err
		}
		release.Position = first - 1
		return tx.Create(release).Error
	})
}

// Update overwrites the title, date and image of an existing release.
func (s *UpcomingService) Update(ctx context.Context, id string, release *models.UpcomingRelease) error {
	existing := &models.UpcomingRelease{}
	if err := s.db.WithContext(ctx).First(existing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUpcomingNotFound
		}
		return err
	}
	if strings.TrimSpace(release.Title) == "" {
		return FieldErrors{"title": "title is required"}
	}

	existing.Title = strings.TrimSpace(release.Title)
	existing.ReleaseDate = release.ReleaseDate
	if existing.ReleaseDate == "" {
		existing.ReleaseDate = "TBA"
	}
	existing.Image = release.Image
	if err := s.db.WithContext(ctx).Save(existing).Error; err != nil {
		return err
	}
	*release = *existing
	return nil
}

func (s *UpcomingService) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&models.UpcomingRelease{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUpcomingNotFound
	}
	return nil
}

func (s *UpcomingService) Seed(ctx context.Context, releases []models.UpcomingRelease) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.UpcomingRelease{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 || len(releases) == 0 {
		return nil
	}
	for i := range releases {
		releases[i].Position = int64(i)
	}
	return s.db.WithContext(ctx).Create(&releases).Error
}
