package core

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/hjiwane/apartment-society-backend/internal/apperr"
	"github.com/hjiwane/apartment-society-backend/internal/models"
	"github.com/hjiwane/apartment-society-backend/internal/policy"
	"github.com/hjiwane/apartment-society-backend/internal/store"
)

// Memberships: назначение ролей в юнитах. Управляет только owner здания.
type Memberships struct {
	deps Deps
	dir  Directory
}

func parseRole(s string) (policy.Role, error) {
	r, err := policy.ParseRole(s)
	if err != nil {
		return "", &apperr.Error{Kind: apperr.KindValidation, Message: "role must be one of tenant, manager, owner", Err: err}
	}
	return r, nil
}

// Create: пользователь и юнит должны существовать, вызывающий должен быть owner
// здания юнита. В COMMON членства вручную не выдаются.
func (s *Memberships) Create(ctx context.Context, callerID, userID, unitID uint, role string) (*models.Membership, error) {
	rl, err := parseRole(role)
	if err != nil {
		return nil, err
	}
	m := &models.Membership{UserID: userID, UnitID: unitID, Role: rl}
	const dup = "Membership already exists"
	err = s.deps.run(ctx, func(tx store.Tx) error {
		if _, err := tx.UserByID(ctx, userID); err != nil {
			return lookupErr(err, "User does not exist")
		}
		unit, err := tx.UnitByID(ctx, unitID)
		if err != nil {
			return lookupErr(err, "Unit does not exist")
		}
		f, err := s.dir.Facts(ctx, tx, callerID, unit.BuildingID)
		if err != nil {
			return apperr.Internal(err)
		}
		if err := policy.CanManageMembership(f); err != nil {
			return deny(err)
		}
		existing, err := tx.MembershipsInBuilding(ctx, userID, unit.BuildingID)
		if err != nil {
			return apperr.Internal(err)
		}
		for _, e := range existing {
			if e.Unit.ID == unitID {
				return apperr.Conflict(dup)
			}
		}
		if unit.IsCommon() {
			return apperr.Validation("Cannot assign membership to the COMMON unit")
		}
		if err := tx.CreateMembership(ctx, m); err != nil {
			return writeErr(err, dup)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.deps.Log.WithFields(logrus.Fields{
		"membership_id": m.ID, "user_id": userID, "unit_id": unitID, "role": m.Role,
	}).Info("membership created")
	return m, nil
}

// ListMine: членства вызывающего в здании; пустой результат, 404.
func (s *Memberships) ListMine(ctx context.Context, callerID, buildingID uint) ([]models.Membership, error) {
	var out []models.Membership
	err := s.deps.run(ctx, func(tx store.Tx) error {
		rows, err := tx.MembershipsInBuilding(ctx, callerID, buildingID)
		if err != nil {
			return apperr.Internal(err)
		}
		if len(rows) == 0 {
			return apperr.NotFound("No memberships found for this building")
		}
		for _, r := range rows {
			out = append(out, r.Membership)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// guard загружает членство, проверяет права owner'а и, если роль owner
// снимается, блокирует owner-строки здания и проверяет, что owner останется.
func (s *Memberships) guard(ctx context.Context, tx store.Tx, callerID, id uint, next policy.Role) (*models.Membership, error) {
	m, err := tx.MembershipByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "Membership not found")
	}
	unit, err := tx.UnitByID(ctx, m.UnitID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	f, err := s.dir.Facts(ctx, tx, callerID, unit.BuildingID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if err := policy.CanManageMembership(f); err != nil {
		return nil, deny(err)
	}
	if m.Role.Is(policy.Owner) && !next.Is(policy.Owner) {
		owners, err := tx.LockOwners(ctx, unit.BuildingID)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if err := policy.CanChangeOwnerMembership(m.Role, next, len(owners)); err != nil {
			return nil, deny(err)
		}
	}
	return m, nil
}

func (s *Memberships) UpdateRole(ctx context.Context, callerID, id uint, role string) (*models.Membership, error) {
	rl, err := parseRole(role)
	if err != nil {
		return nil, err
	}
	var m *models.Membership
	err = s.deps.run(ctx, func(tx store.Tx) error {
		var err error
		if m, err = s.guard(ctx, tx, callerID, id, rl); err != nil {
			return err
		}
		if err := tx.UpdateMembershipRole(ctx, id, rl); err != nil {
			return lookupErr(err, "Membership not found")
		}
		m.Role = rl
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.deps.Log.WithFields(logrus.Fields{"membership_id": id, "role": rl}).Info("membership role updated")
	return m, nil
}

func (s *Memberships) Delete(ctx context.Context, callerID, id uint) error {
	err := s.deps.run(ctx, func(tx store.Tx) error {
		if _, err := s.guard(ctx, tx, callerID, id, ""); err != nil {
			return err
		}
		if err := tx.DeleteMembership(ctx, id); err != nil {
			return lookupErr(err, "Membership not found")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.deps.Log.WithField("membership_id", id).Info("membership deleted")
	return nil
}
