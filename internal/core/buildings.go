package core

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/hjiwane/apartment-society-backend/internal/apperr"
	"github.com/hjiwane/apartment-society-backend/internal/models"
	"github.com/hjiwane/apartment-society-backend/internal/policy"
	"github.com/hjiwane/apartment-society-backend/internal/store"
)

// Registry: здания и юниты.
type Registry struct {
	deps Deps
	dir  Directory
}

// BuildingUser: участник здания вместе со всеми его членствами в нём.
type BuildingUser struct {
	ID          uint                `json:"id"`
	Email       string              `json:"email"`
	Memberships []models.Membership `json:"memberships"`
}

// CreateBuilding создаёт здание, его COMMON-юнит и owner-членство
// создателя одной транзакцией.
func (r *Registry) CreateBuilding(ctx context.Context, callerID uint, name, address string) (*models.Building, error) {
	name, address = strings.TrimSpace(name), strings.TrimSpace(address)
	if name == "" || address == "" {
		return nil, apperr.Validation("name and address are required")
	}
	b := &models.Building{Name: name, Address: address}
	const dup = "Building with this name and address already exists"
	err := r.deps.run(ctx, func(tx store.Tx) error {
		if _, err := tx.BuildingByNameAddress(ctx, name, address); err == nil {
			return apperr.Conflict(dup)
		} else if !errors.Is(err, store.ErrNotFound) {
			return apperr.Internal(err)
		}
		if err := tx.CreateBuilding(ctx, b); err != nil {
			return writeErr(err, dup)
		}
		common := &models.Unit{BuildingID: b.ID, UnitNumber: models.CommonUnitNumber}
		if err := tx.CreateUnit(ctx, common); err != nil {
			return apperr.Internal(err)
		}
		m := &models.Membership{UserID: callerID, UnitID: common.ID, Role: policy.Owner}
		if err := tx.CreateMembership(ctx, m); err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.deps.Log.WithFields(logrus.Fields{"building_id": b.ID, "user_id": callerID}).Info("building created")
	return b, nil
}

// GetBuilding: отсутствие здания и отсутствие членства неразличимы (404).
func (r *Registry) GetBuilding(ctx context.Context, callerID, buildingID uint) (*models.Building, error) {
	var b *models.Building
	err := r.deps.run(ctx, func(tx store.Tx) error {
		var err error
		if b, err = tx.BuildingByID(ctx, buildingID); err != nil {
			return lookupErr(err, "Building not found")
		}
		f, err := r.dir.Facts(ctx, tx, callerID, buildingID)
		if err != nil {
			return apperr.Internal(err)
		}
		if !f.BelongsToBuilding() {
			return apperr.NotFound("Building not found")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *Registry) ListMyBuildings(ctx context.Context, callerID uint) ([]models.Building, error) {
	var out []models.Building
	err := r.deps.run(ctx, func(tx store.Tx) error {
		var err error
		out, err = tx.BuildingsForUser(ctx, callerID)
		if err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
	if out == nil {
		out = []models.Building{}
	}
	return out, err
}

// ListBuildingUsers возвращает участников здания, сгруппированных по пользователю.
func (r *Registry) ListBuildingUsers(ctx context.Context, callerID, buildingID uint) ([]BuildingUser, error) {
	var out []BuildingUser
	err := r.deps.run(ctx, func(tx store.Tx) error {
		if _, err := tx.BuildingByID(ctx, buildingID); err != nil {
			return lookupErr(err, "Building not found")
		}
		f, err := r.dir.Facts(ctx, tx, callerID, buildingID)
		if err != nil {
			return apperr.Internal(err)
		}
		if err := policy.CanListBuildingUsers(f); err != nil {
			return deny(err)
		}
		rows, err := tx.BuildingMembers(ctx, buildingID)
		if err != nil {
			return apperr.Internal(err)
		}
		for _, row := range rows {
			if n := len(out); n == 0 || out[n-1].ID != row.Membership.UserID {
				u, err := tx.UserByID(ctx, row.Membership.UserID)
				if err != nil {
					return apperr.Internal(err)
				}
				out = append(out, BuildingUser{ID: u.ID, Email: u.Email})
			}
			last := &out[len(out)-1]
			last.Memberships = append(last.Memberships, row.Membership)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []BuildingUser{}
	}
	return out, nil
}

// CreateUnit: только owner здания. Любой регистр COMMON зарезервирован.
func (r *Registry) CreateUnit(ctx context.Context, callerID, buildingID uint, number string, floor *int) (*models.Unit, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, apperr.Validation("unit_number is required")
	}
	u := &models.Unit{BuildingID: buildingID, UnitNumber: number, Floor: floor}
	const dup = "Unit number already exists in this building"
	err := r.deps.run(ctx, func(tx store.Tx) error {
		if _, err := tx.BuildingByID(ctx, buildingID); err != nil {
			return lookupErr(err, "Building not found")
		}
		f, err := r.dir.Facts(ctx, tx, callerID, buildingID)
		if err != nil {
			return apperr.Internal(err)
		}
		if err := policy.CanCreateUnit(f); err != nil {
			return deny(err)
		}
		if models.IsCommonNumber(number) {
			return apperr.Conflict(dup)
		}
		if err := tx.CreateUnit(ctx, u); err != nil {
			return writeErr(err, dup)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.deps.Log.WithFields(logrus.Fields{"building_id": buildingID, "unit_id": u.ID}).Info("unit created")
	return u, nil
}

func (r *Registry) ListUnits(ctx context.Context, callerID, buildingID uint) ([]models.Unit, error) {
	var out []models.Unit
	err := r.deps.run(ctx, func(tx store.Tx) error {
		if _, err := tx.BuildingByID(ctx, buildingID); err != nil {
			return lookupErr(err, "Building not found")
		}
		f, err := r.dir.Facts(ctx, tx, callerID, buildingID)
		if err != nil {
			return apperr.Internal(err)
		}
		if !f.BelongsToBuilding() {
			return deny(policy.ErrNotBuildingMember)
		}
		if out, err = tx.ListUnits(ctx, buildingID); err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Unit{}
	}
	return out, nil
}

// GetUnit видят члены юнита и manager/owner здания; остальным: 404.
func (r *Registry) GetUnit(ctx context.Context, callerID, unitID uint) (*models.Unit, error) {
	var u *models.Unit
	err := r.deps.run(ctx, func(tx store.Tx) error {
		var err error
		if u, err = tx.UnitByID(ctx, unitID); err != nil {
			return lookupErr(err, "Unit not found")
		}
		f, err := r.dir.Facts(ctx, tx, callerID, u.BuildingID)
		if err != nil {
			return apperr.Internal(err)
		}
		if policy.CanViewUnit(f, u.ID) != nil {
			return apperr.NotFound("Unit not found")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}
