package store

import (
	"context"

	"github.com/zefparis/pub/models"
	"gorm.io/gorm/clause"
)

// CreateRevenueEvent stores r once per external id. Replays are ignored.
func (s *Store) CreateRevenueEvent(ctx context.Context, r *models.RevenueEvent) (bool, error) {
	res := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}},
			DoNothing: true,
		}).
		Create(r)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
