package store

import (
	"context"
	"fmt"
	"time"

	"github.com/zefparis/pub/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var forward = map[string]string{
	models.StatusScraped:   models.StatusProcessed,
	models.StatusProcessed: models.StatusPosted,
}

// InsertVideoIfAbsent inserts v unless (platform, video_id) already exists.
// An existing row is left untouched and reported as inserted=false.
func (s *Store) InsertVideoIfAbsent(ctx context.Context, v *models.Video) (bool, error) {
	if v.Status == "" {
		v.Status = models.StatusScraped
	}
	res := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "platform"}, {Name: "video_id"}},
			DoNothing: true,
		}).
		Create(v)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListVideosByStatus returns up to limit videos at status. Videos with fewer
// recorded failures come first, then the oldest. maxAttempts > 0 leaves out
// videos that have failed that many times.
func (s *Store) ListVideosByStatus(ctx context.Context, status string, limit, maxAttempts int) ([]models.Video, error) {
	var videos []models.Video
	if limit <= 0 {
		return videos, nil
	}
	q := s.DB.WithContext(ctx).Where("status = ?", status)
	if maxAttempts > 0 {
		q = q.Where("attempts < ?", maxAttempts)
	}
	err := q.Order("attempts asc, created_at asc, id asc").
		Limit(limit).
		Find(&videos).Error
	return videos, err
}

// RecordVideoFailure counts a failed attempt on a video and keeps the reason.
func (s *Store) RecordVideoFailure(ctx context.Context, id uint, reason string) error {
	res := s.DB.WithContext(ctx).
		Model(&models.Video{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"attempts":        gorm.Expr("attempts + ?", 1),
			"last_attempt_at": time.Now(),
			"last_error":      reason,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) GetVideo(ctx context.Context, id uint) (*models.Video, error) {
	var v models.Video
	if err := s.DB.WithContext(ctx).First(&v, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &v, nil
}

// FindVideo looks a video up by its natural key.
func (s *Store) FindVideo(ctx context.Context, platform, externalID string) (*models.Video, error) {
	var v models.Video
	err := s.DB.WithContext(ctx).
		Where("platform = ? AND video_id = ?", platform, externalID).
		First(&v).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &v, nil
}

// TransitionVideo moves a video one step forward. The update is conditional
// on the current status, so a concurrent or repeated transition affects no
// row and returns ErrInvalidTransition.
func (s *Store) TransitionVideo(ctx context.Context, id uint, from, to string, processedPath *string) error {
	if forward[from] != to {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	updates := map[string]interface{}{"status": to}
	if processedPath != nil {
		updates["processed_path"] = *processedPath
	}

	res := s.DB.WithContext(ctx).
		Model(&models.Video{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: video %d is not %s", ErrInvalidTransition, id, from)
	}
	return nil
}

// RecentVideos lists the most recently discovered videos.
func (s *Store) RecentVideos(ctx context.Context, limit int) ([]models.Video, error) {
	var videos []models.Video
	err := s.DB.WithContext(ctx).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&videos).Error
	return videos, err
}
