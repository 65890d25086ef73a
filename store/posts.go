package store

import (
	"context"

	"github.com/zefparis/pub/models"
	"gorm.io/gorm"
)

func (s *Store) CreatePost(ctx context.Context, p *models.Post) error {
	return s.DB.WithContext(ctx).Create(p).Error
}

func (s *Store) PostsForVideo(ctx context.Context, videoID uint) ([]models.Post, error) {
	var posts []models.Post
	err := s.DB.WithContext(ctx).
		Where("video_id = ?", videoID).
		Order("id asc").
		Find(&posts).Error
	return posts, err
}

// PublishedPosts returns posts that carry an external id, i.e. whose
// engagement can be polled.
func (s *Store) PublishedPosts(ctx context.Context, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := s.DB.WithContext(ctx).
		Where("external_post_id IS NOT NULL").
		Order("updated_at asc, id asc").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

// AddEngagement increments the counters of one post in a single statement.
func (s *Store) AddEngagement(ctx context.Context, postID uint, views, likes, comments int) error {
	res := s.DB.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", postID).
		Updates(map[string]interface{}{
			"views":    gorm.Expr("views + ?", views),
			"likes":    gorm.Expr("likes + ?", likes),
			"comments": gorm.Expr("comments + ?", comments),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
