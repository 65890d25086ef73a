package store

import (
	"context"

	"github.com/zefparis/pub/models"
	"gorm.io/gorm"
)

// CreateSmartLink inserts l. A slug collision returns ErrSlugTaken so the
// caller can draw a new candidate.
func (s *Store) CreateSmartLink(ctx context.Context, l *models.SmartLink) error {
	if err := s.DB.WithContext(ctx).Omit("Video").Create(l).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrSlugTaken
		}
		return err
	}
	return nil
}

func (s *Store) SmartLinkBySlug(ctx context.Context, slug string) (*models.SmartLink, error) {
	var l models.SmartLink
	if err := s.DB.WithContext(ctx).Where("slug = ?", slug).First(&l).Error; err != nil {
		return nil, notFound(err)
	}
	return &l, nil
}

// SmartLinkForVideo returns the oldest link attached to a video.
func (s *Store) SmartLinkForVideo(ctx context.Context, videoID uint) (*models.SmartLink, error) {
	var l models.SmartLink
	err := s.DB.WithContext(ctx).
		Where("video_id = ?", videoID).
		Order("id asc").
		First(&l).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &l, nil
}

// RecordClick appends c and bumps the link counter with a single
// "clicks = clicks + 1" statement, both in one transaction.
func (s *Store) RecordClick(ctx context.Context, c *models.Click) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("SmartLink").Create(c).Error; err != nil {
			return err
		}
		res := tx.Model(&models.SmartLink{}).
			Where("id = ?", c.SmartLinkID).
			UpdateColumn("clicks", gorm.Expr("clicks + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *Store) CreateEmailCapture(ctx context.Context, e *models.EmailCapture) error {
	return s.DB.WithContext(ctx).Omit("SourceSmartLink").Create(e).Error
}
