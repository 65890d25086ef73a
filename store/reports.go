package store

import (
	"context"

	"github.com/zefparis/pub/models"
)

// PlatformStats aggregates posts per target platform.
type PlatformStats struct {
	PlatformTarget string `json:"platform_target"`
	Views          int64  `json:"views"`
	Likes          int64  `json:"likes"`
	Posts          int64  `json:"posts"`
}

type DashboardStats struct {
	VideosPosted int64           `json:"videosPosted"`
	Views        int64           `json:"views"`
	Clicks       int64           `json:"clicks"`
	RevenueCents int64           `json:"revenueCents"`
	Emails       int64           `json:"emails"`
	BySource     []PlatformStats `json:"bySource"`
}

// Breakdown is a count per attribute value.
type Breakdown struct {
	Label string `json:"label"`
	Total int64  `json:"total"`
}

type LinkStats struct {
	Slug     string      `json:"slug"`
	Clicks   int         `json:"clicks"`
	Emails   int64       `json:"emails"`
	BySource []Breakdown `json:"bySource"`
	ByDevice []Breakdown `json:"byDevice"`
}

// Dashboard runs the read-only aggregate queries behind /api/stats.
func (s *Store) Dashboard(ctx context.Context) (*DashboardStats, error) {
	db := s.DB.WithContext(ctx)
	out := &DashboardStats{BySource: []PlatformStats{}}

	if err := db.Model(&models.Video{}).Where("status = ?", models.StatusPosted).Count(&out.VideosPosted).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Post{}).Select("COALESCE(SUM(views), 0)").Scan(&out.Views).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Click{}).Count(&out.Clicks).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.RevenueEvent{}).Select("COALESCE(SUM(amount_cents), 0)").Scan(&out.RevenueCents).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.EmailCapture{}).Count(&out.Emails).Error; err != nil {
		return nil, err
	}
	err := db.Model(&models.Post{}).
		Select("platform_target, COALESCE(SUM(views), 0) AS views, COALESCE(SUM(likes), 0) AS likes, COUNT(*) AS posts").
		Group("platform_target").
		Order("platform_target").
		Scan(&out.BySource).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SmartLinkStats breaks the clicks of one link down by source and device.
func (s *Store) SmartLinkStats(ctx context.Context, slug string) (*LinkStats, error) {
	link, err := s.SmartLinkBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	db := s.DB.WithContext(ctx)
	out := &LinkStats{Slug: link.Slug, Clicks: link.Clicks, BySource: []Breakdown{}, ByDevice: []Breakdown{}}

	if err := db.Model(&models.EmailCapture{}).Where("source_smartlink_id = ?", link.ID).Count(&out.Emails).Error; err != nil {
		return nil, err
	}
	for col, dst := range map[string]*[]Breakdown{"source": &out.BySource, "device": &out.ByDevice} {
		err := db.Model(&models.Click{}).
			Select(col + " AS label, COUNT(*) AS total").
			Where("smartlink_id = ?", link.ID).
			Group(col).
			Order("total desc").
			Scan(dst).Error
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
