package core

import (
	"context"

	"github.com/hjiwane/apartment-society-backend/internal/models"
	"github.com/hjiwane/apartment-society-backend/internal/policy"
	"github.com/hjiwane/apartment-society-backend/internal/store"
)

// Directory отвечает на вопросы о членствах. Кэша нет: каждый вызов -
// свежий запрос, но всегда внутри транзакции текущей операции.
type Directory struct{}

// Facts выбирает все членства пользователя в здании.
func (Directory) Facts(ctx context.Context, tx store.Tx, userID, buildingID uint) (policy.Facts, error) {
	rows, err := tx.MembershipsInBuilding(ctx, userID, buildingID)
	if err != nil {
		return policy.Facts{}, err
	}
	f := policy.Facts{UserID: userID, BuildingID: buildingID, Grants: make([]policy.Grant, 0, len(rows))}
	for _, r := range rows {
		f.Grants = append(f.Grants, policy.Grant{
			MembershipID: r.Membership.ID,
			UnitID:       r.Unit.ID,
			UnitIsCommon: r.Unit.IsCommon(),
			Role:         r.Membership.Role.Normalize(),
		})
	}
	return f, nil
}

func (d Directory) HasRole(ctx context.Context, tx store.Tx, userID, buildingID uint, roles ...policy.Role) (bool, error) {
	f, err := d.Facts(ctx, tx, userID, buildingID)
	if err != nil {
		return false, err
	}
	return f.HasRole(roles...), nil
}

func (d Directory) BelongsToBuilding(ctx context.Context, tx store.Tx, userID, buildingID uint) (bool, error) {
	f, err := d.Facts(ctx, tx, userID, buildingID)
	if err != nil {
		return false, err
	}
	return f.BelongsToBuilding(), nil
}

func (d Directory) IsMemberOfUnit(ctx context.Context, tx store.Tx, userID uint, unit models.Unit) (bool, error) {
	f, err := d.Facts(ctx, tx, userID, unit.BuildingID)
	if err != nil {
		return false, err
	}
	return f.IsMemberOfUnit(unit.ID), nil
}
