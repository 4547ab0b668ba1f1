package repo

import (
	"context"
	"time"

	"github.com/hjiwane/apartment-society-backend/internal/models"
	"github.com/hjiwane/apartment-society-backend/internal/store"
)

func (s *txStore) CreateRequest(ctx context.Context, r *models.MaintenanceRequest) error {
	return translate(s.db.WithContext(ctx).Create(r).Error)
}

func (s *txStore) RequestByID(ctx context.Context, id uint) (*models.MaintenanceRequest, error) {
	var r models.MaintenanceRequest
	if err := s.db.WithContext(ctx).First(&r, id).Error; err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

func (s *txStore) ListRequests(ctx context.Context, buildingID uint) ([]models.MaintenanceRequest, error) {
	var out []models.MaintenanceRequest
	err := s.db.WithContext(ctx).
		Where("building_id = ?", buildingID).
		Order("created_at desc, id desc").
		Find(&out).Error
	return out, translate(err)
}

func (s *txStore) UpdateRequestStatus(ctx context.Context, id uint, status models.Status, at time.Time) error {
	if _, err := s.RequestByID(ctx, id); err != nil {
		return err
	}
	return translate(s.db.WithContext(ctx).
		Model(&models.MaintenanceRequest{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": at}).Error)
}

func (s *txStore) CreateVote(ctx context.Context, v *models.Vote) error {
	return translate(s.db.WithContext(ctx).Create(v).Error)
}

func (s *txStore) DeleteVote(ctx context.Context, requestID, userID uint) error {
	res := s.db.WithContext(ctx).
		Where("maintenance_request_id = ? AND user_id = ?", requestID, userID).
		Delete(&models.Vote{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *txStore) VoteExists(ctx context.Context, requestID, userID uint) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&models.Vote{}).
		Where("maintenance_request_id = ? AND user_id = ?", requestID, userID).
		Count(&n).Error
	return n > 0, translate(err)
}

func (s *txStore) VoteCounts(ctx context.Context, requestIDs []uint) (map[uint]int64, error) {
	out := make(map[uint]int64, len(requestIDs))
	if len(requestIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		RequestID uint
		Votes     int64
	}
	err := s.db.WithContext(ctx).
		Model(&models.Vote{}).
		Select("maintenance_request_id AS request_id, COUNT(DISTINCT user_id) AS votes").
		Where("maintenance_request_id IN ?", requestIDs).
		Group("maintenance_request_id").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}
	for _, r := range rows {
		out[r.RequestID] = r.Votes
	}
	return out, nil
}
