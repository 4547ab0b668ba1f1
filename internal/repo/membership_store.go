package repo

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/hjiwane/apartment-society-backend/internal/models"
	"github.com/hjiwane/apartment-society-backend/internal/policy"
	"github.com/hjiwane/apartment-society-backend/internal/store"
)

func (s *txStore) CreateMembership(ctx context.Context, m *models.Membership) error {
	return translate(s.db.WithContext(ctx).Create(m).Error)
}

func (s *txStore) MembershipByID(ctx context.Context, id uint) (*models.Membership, error) {
	var m models.Membership
	if err := s.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (s *txStore) MembershipsInBuilding(ctx context.Context, userID, buildingID uint) ([]store.MemberUnit, error) {
	var ms []models.Membership
	err := s.db.WithContext(ctx).
		Preload("Unit").
		Where("user_id = ? AND unit_id IN (?)", userID, s.unitsOf(buildingID)).
		Order("id asc").
		Find(&ms).Error
	if err != nil {
		return nil, translate(err)
	}
	return withUnits(ms), nil
}

func (s *txStore) BuildingMembers(ctx context.Context, buildingID uint) ([]store.MemberUnit, error) {
	var ms []models.Membership
	err := s.db.WithContext(ctx).
		Preload("Unit").
		Where("unit_id IN (?)", s.unitsOf(buildingID)).
		Order("user_id asc, id asc").
		Find(&ms).Error
	if err != nil {
		return nil, translate(err)
	}
	return withUnits(ms), nil
}

func (s *txStore) MembershipsOfUser(ctx context.Context, userID uint) ([]store.MemberUnit, error) {
	var ms []models.Membership
	err := s.db.WithContext(ctx).
		Preload("Unit").
		Where("user_id = ?", userID).
		Order("id asc").
		Find(&ms).Error
	if err != nil {
		return nil, translate(err)
	}
	return withUnits(ms), nil
}

func (s *txStore) UpdateMembershipRole(ctx context.Context, id uint, role policy.Role) error {
	// MySQL не считает строку затронутой, если значение не изменилось,
	// поэтому существование проверяем отдельно.
	if _, err := s.MembershipByID(ctx, id); err != nil {
		return err
	}
	return translate(s.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("id = ?", id).
		Update("role", role).Error)
}

func (s *txStore) DeleteMembership(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Membership{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *txStore) LockOwners(ctx context.Context, buildingID uint) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).
		Model(&models.Membership{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("unit_id IN (?) AND LOWER(role) = ?", s.unitsOf(buildingID), string(policy.Owner)).
		Order("id asc").
		Pluck("id", &ids).Error
	return ids, translate(err)
}

func withUnits(ms []models.Membership) []store.MemberUnit {
	out := make([]store.MemberUnit, 0, len(ms))
	for _, m := range ms {
		mu := store.MemberUnit{Membership: m}
		if m.Unit != nil {
			mu.Unit = *m.Unit
		}
		mu.Membership.Unit = nil
		out = append(out, mu)
	}
	return out
}
