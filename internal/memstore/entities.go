package memstore

import (
	"context"
	"sort"

	"github.com/hjiwane/apartment-society-backend/internal/models"
	"github.com/hjiwane/apartment-society-backend/internal/store"
)

func (t *txStore) CreateUser(_ context.Context, u *models.User) error {
	for _, other := range t.st.users {
		if other.Email == u.Email {
			return duplicate("user email")
		}
	}
	u.ID = t.st.id("users")
	if u.CreatedAt.IsZero() {
		u.CreatedAt = t.now()
	}
	t.st.users[u.ID] = *u
	return nil
}

func (t *txStore) UserByID(_ context.Context, id uint) (*models.User, error) {
	u, ok := t.st.users[id]
	if !ok {
		return nil, missing("user", id)
	}
	return &u, nil
}

func (t *txStore) UserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range t.st.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (t *txStore) CreateBuilding(_ context.Context, b *models.Building) error {
	for _, other := range t.st.buildings {
		if other.Name == b.Name && other.Address == b.Address {
			return duplicate("building name+address")
		}
	}
	b.ID = t.st.id("buildings")
	if b.CreatedAt.IsZero() {
		b.CreatedAt = t.now()
	}
	t.st.buildings[b.ID] = *b
	return nil
}

func (t *txStore) BuildingByID(_ context.Context, id uint) (*models.Building, error) {
	b, ok := t.st.buildings[id]
	if !ok {
		return nil, missing("building", id)
	}
	return &b, nil
}

func (t *txStore) BuildingByNameAddress(_ context.Context, name, address string) (*models.Building, error) {
	for _, b := range t.st.buildings {
		if b.Name == name && b.Address == address {
			return &b, nil
		}
	}
	return nil, store.ErrNotFound
}

func (t *txStore) BuildingsForUser(_ context.Context, userID uint) ([]models.Building, error) {
	in := make(map[uint]bool)
	for _, m := range t.st.memberships {
		if m.UserID != userID {
			continue
		}
		if u, ok := t.st.units[m.UnitID]; ok {
			in[u.BuildingID] = true
		}
	}
	ids := sortedIDs(t.st.buildings, func(b models.Building) bool { return in[b.ID] })
	out := make([]models.Building, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.st.buildings[id])
	}
	return out, nil
}

func (t *txStore) CreateUnit(_ context.Context, u *models.Unit) error {
	if _, ok := t.st.buildings[u.BuildingID]; !ok {
		return missing("building", u.BuildingID)
	}
	for _, other := range t.st.units {
		if other.BuildingID == u.BuildingID && other.UnitNumber == u.UnitNumber {
			return duplicate("unit number in building")
		}
	}
	u.ID = t.st.id("units")
	if u.CreatedAt.IsZero() {
		u.CreatedAt = t.now()
	}
	stored := *u
	stored.Floor = copyPtr(u.Floor)
	t.st.units[u.ID] = stored
	return nil
}

func (t *txStore) UnitByID(_ context.Context, id uint) (*models.Unit, error) {
	u, ok := t.st.units[id]
	if !ok {
		return nil, missing("unit", id)
	}
	return &u, nil
}

func (t *txStore) ListUnits(_ context.Context, buildingID uint) ([]models.Unit, error) {
	var out []models.Unit
	for _, u := range t.st.units {
		if u.BuildingID == buildingID && !u.IsCommon() {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UnitNumber != out[j].UnitNumber {
			return out[i].UnitNumber < out[j].UnitNumber
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
