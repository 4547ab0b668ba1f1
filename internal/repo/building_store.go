package repo

import (
	"context"

	"github.com/hjiwane/apartment-society-backend/internal/models"
)

func (s *txStore) CreateBuilding(ctx context.Context, b *models.Building) error {
	return translate(s.db.WithContext(ctx).Create(b).Error)
}

func (s *txStore) BuildingByID(ctx context.Context, id uint) (*models.Building, error) {
	var b models.Building
	if err := s.db.WithContext(ctx).First(&b, id).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (s *txStore) BuildingByNameAddress(ctx context.Context, name, address string) (*models.Building, error) {
	var b models.Building
	err := s.db.WithContext(ctx).
		Where("name = ? AND address = ?", name, address).
		First(&b).Error
	if err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (s *txStore) BuildingsForUser(ctx context.Context, userID uint) ([]models.Building, error) {
	buildingIDs := s.db.Model(&models.Unit{}).
		Select("building_id").
		Where("id IN (?)", s.db.Model(&models.Membership{}).Select("unit_id").Where("user_id = ?", userID))

	var out []models.Building
	err := s.db.WithContext(ctx).
		Where("id IN (?)", buildingIDs).
		Order("id asc").
		Find(&out).Error
	return out, translate(err)
}

func (s *txStore) CreateUnit(ctx context.Context, u *models.Unit) error {
	return translate(s.db.WithContext(ctx).Create(u).Error)
}

func (s *txStore) UnitByID(ctx context.Context, id uint) (*models.Unit, error) {
	var u models.Unit
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *txStore) ListUnits(ctx context.Context, buildingID uint) ([]models.Unit, error) {
	var out []models.Unit
	err := s.db.WithContext(ctx).
		Where("building_id = ? AND UPPER(unit_number) <> ?", buildingID, models.CommonUnitNumber).
		Order("unit_number asc").
		Find(&out).Error
	return out, translate(err)
}
