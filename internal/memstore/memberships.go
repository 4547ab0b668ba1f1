package memstore

import (
	"context"
	"sort"

	"github.com/hjiwane/apartment-society-backend/internal/models"
	"github.com/hjiwane/apartment-society-backend/internal/policy"
	"github.com/hjiwane/apartment-society-backend/internal/store"
)

func (t *txStore) CreateMembership(_ context.Context, m *models.Membership) error {
	if _, ok := t.st.users[m.UserID]; !ok {
		return missing("user", m.UserID)
	}
	if _, ok := t.st.units[m.UnitID]; !ok {
		return missing("unit", m.UnitID)
	}
	for _, other := range t.st.memberships {
		if other.UserID == m.UserID && other.UnitID == m.UnitID {
			return duplicate("membership")
		}
	}
	m.ID = t.st.id("memberships")
	if m.CreatedAt.IsZero() {
		m.CreatedAt = t.now()
	}
	stored := *m
	stored.User, stored.Unit = nil, nil
	t.st.memberships[m.ID] = stored
	return nil
}

func (t *txStore) MembershipByID(_ context.Context, id uint) (*models.Membership, error) {
	m, ok := t.st.memberships[id]
	if !ok {
		return nil, missing("membership", id)
	}
	return &m, nil
}

func (t *txStore) collect(keep func(m models.Membership, u models.Unit) bool) []store.MemberUnit {
	var out []store.MemberUnit
	for _, m := range t.st.memberships {
		u, ok := t.st.units[m.UnitID]
		if ok && keep(m, u) {
			out = append(out, store.MemberUnit{Membership: m, Unit: u})
		}
	}
	return out
}

func (t *txStore) MembershipsInBuilding(_ context.Context, userID, buildingID uint) ([]store.MemberUnit, error) {
	out := t.collect(func(m models.Membership, u models.Unit) bool {
		return m.UserID == userID && u.BuildingID == buildingID
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Membership.ID < out[j].Membership.ID })
	return out, nil
}

func (t *txStore) BuildingMembers(_ context.Context, buildingID uint) ([]store.MemberUnit, error) {
	out := t.collect(func(_ models.Membership, u models.Unit) bool { return u.BuildingID == buildingID })
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Membership, out[j].Membership
		if a.UserID != b.UserID {
			return a.UserID < b.UserID
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (t *txStore) MembershipsOfUser(_ context.Context, userID uint) ([]store.MemberUnit, error) {
	out := t.collect(func(m models.Membership, _ models.Unit) bool { return m.UserID == userID })
	sort.Slice(out, func(i, j int) bool { return out[i].Membership.ID < out[j].Membership.ID })
	return out, nil
}

func (t *txStore) UpdateMembershipRole(_ context.Context, id uint, role policy.Role) error {
	m, ok := t.st.memberships[id]
	if !ok {
		return missing("membership", id)
	}
	m.Role = role
	t.st.memberships[id] = m
	return nil
}

func (t *txStore) DeleteMembership(_ context.Context, id uint) error {
	if _, ok := t.st.memberships[id]; !ok {
		return missing("membership", id)
	}
	delete(t.st.memberships, id)
	return nil
}

// LockOwners: транзакции и так сериализованы мьютексом.
func (t *txStore) LockOwners(_ context.Context, buildingID uint) ([]uint, error) {
	return sortedIDs(t.st.memberships, func(m models.Membership) bool {
		u, ok := t.st.units[m.UnitID]
		return ok && u.BuildingID == buildingID && m.Role.Is(policy.Owner)
	}), nil
}
