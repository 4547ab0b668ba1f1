package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hjiwane/apartment-society-backend/internal/apperr"
	"github.com/hjiwane/apartment-society-backend/internal/identity"
	"github.com/hjiwane/apartment-society-backend/internal/memstore"
	"github.com/hjiwane/apartment-society-backend/internal/models"
	"github.com/hjiwane/apartment-society-backend/internal/policy"
	"github.com/hjiwane/apartment-society-backend/internal/store"
)

func stepClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

type fixture struct {
	t    *testing.T
	ctx  context.Context
	mem  *memstore.Store
	svc  *Services
	hook *test.Hook
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := memstore.New(memstore.WithClock(stepClock()))
	return newFixtureOn(t, mem, mem)
}

func newFixtureOn(t *testing.T, mem *memstore.Store, st store.Store) *fixture {
	t.Helper()
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	tokens, err := identity.NewTokens("test-secret", "HS256", time.Hour)
	require.NoError(t, err)
	svc := New(Deps{Store: st, Log: log}, identity.Hasher{Cost: bcrypt.MinCost}, tokens)
	return &fixture{t: t, ctx: context.Background(), mem: mem, svc: svc, hook: hook}
}

func (f *fixture) user(email string) uint {
	f.t.Helper()
	u, err := f.svc.Accounts.Signup(f.ctx, email, "pw")
	require.NoError(f.t, err)
	return u.ID
}

func (f *fixture) unit(owner, building uint, number string) uint {
	f.t.Helper()
	u, err := f.svc.Registry.CreateUnit(f.ctx, owner, building, number, nil)
	require.NoError(f.t, err)
	return u.ID
}

func (f *fixture) member(owner, user, unit uint, role string) uint {
	f.t.Helper()
	m, err := f.svc.Memberships.Create(f.ctx, owner, user, unit, role)
	require.NoError(f.t, err)
	return m.ID
}

func requireKind(t *testing.T, err error, k apperr.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, k, apperr.KindOf(err), "unexpected error: %v", err)
}

// world: owner O с зданием B, юниты 101 и 102, tenant T в 101,
// tenant T2 в 102, manager M в 101, посторонний X.
type world struct {
	*fixture
	O, T, T2, M, X uint
	B, U101, U102  uint
	OwnerMember    uint
}

func newWorld(t *testing.T) *world {
	f := newFixture(t)
	w := &world{fixture: f}
	w.O = f.user("owner@example.com")
	w.T = f.user("tenant@example.com")
	w.T2 = f.user("tenant2@example.com")
	w.M = f.user("manager@example.com")
	w.X = f.user("stranger@example.com")

	b, err := f.svc.Registry.CreateBuilding(f.ctx, w.O, "Oak", "1 Oak St")
	require.NoError(t, err)
	w.B = b.ID
	w.U101 = f.unit(w.O, w.B, "101")
	w.U102 = f.unit(w.O, w.B, "102")
	f.member(w.O, w.T, w.U101, "tenant")
	f.member(w.O, w.T2, w.U102, "tenant")
	f.member(w.O, w.M, w.U101, "manager")

	mine, err := f.svc.Memberships.ListMine(f.ctx, w.O, w.B)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	w.OwnerMember = mine[0].ID
	return w
}

func (w *world) request(caller uint, unit *uint, title string) uint {
	w.t.Helper()
	b := w.B
	r, err := w.svc.Requests.Create(w.ctx, caller, NewRequest{BuildingID: &b, UnitID: unit, Title: title})
	require.NoError(w.t, err)
	return r.ID
}

func ptr[T any](v T) *T { return &v }

func TestCreateBuildingCreatesCommonAndOwner(t *testing.T) {
	f := newFixture(t)
	o := f.user("o@example.com")

	b, err := f.svc.Registry.CreateBuilding(f.ctx, o, "Oak", "1 Oak St")
	require.NoError(t, err)

	require.NoError(t, f.mem.Tx(f.ctx, func(tx store.Tx) error {
		rows, err := tx.MembershipsOfUser(f.ctx, o)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		require.Equal(t, policy.Owner, rows[0].Membership.Role)
		require.Equal(t, b.ID, rows[0].Unit.BuildingID)
		require.True(t, rows[0].Unit.IsCommon())
		return nil
	}))

	units, err := f.svc.Registry.ListUnits(f.ctx, o, b.ID)
	require.NoError(t, err)
	require.Empty(t, units)

	_, err = f.svc.Registry.CreateBuilding(f.ctx, o, "Oak", "1 Oak St")
	requireKind(t, err, apperr.KindConflict)

	_, err = f.svc.Registry.CreateBuilding(f.ctx, o, " ", "1 Oak St")
	requireKind(t, err, apperr.KindValidation)

	var logged bool
	for _, e := range f.hook.AllEntries() {
		if e.Message == "building created" && e.Data["building_id"] == b.ID {
			logged = true
		}
	}
	require.True(t, logged)
}

type failingStore struct{ *memstore.Store }

func (s failingStore) Tx(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.Store.Tx(ctx, func(tx store.Tx) error { return fn(failingTx{Tx: tx}) })
}

type failingTx struct{ store.Tx }

func (failingTx) CreateMembership(context.Context, *models.Membership) error {
	return errors.New("disk full")
}

func TestCreateBuildingIsAtomic(t *testing.T) {
	mem := memstore.New()
	ok := newFixtureOn(t, mem, mem)
	broken := newFixtureOn(t, mem, failingStore{mem})
	o := ok.user("o@example.com")

	_, err := broken.svc.Registry.CreateBuilding(broken.ctx, o, "Oak", "1 Oak St")
	requireKind(t, err, apperr.KindInternal)

	mine, err := ok.svc.Registry.ListMyBuildings(ok.ctx, o)
	require.NoError(t, err)
	require.Empty(t, mine)
	require.NoError(t, mem.Tx(ok.ctx, func(tx store.Tx) error {
		_, err := tx.BuildingByNameAddress(ok.ctx, "Oak", "1 Oak St")
		require.ErrorIs(t, err, store.ErrNotFound)
		_, err = tx.UnitByID(ok.ctx, 1)
		require.ErrorIs(t, err, store.ErrNotFound)
		return nil
	}))

	b, err := ok.svc.Registry.CreateBuilding(ok.ctx, o, "Oak", "1 Oak St")
	require.NoError(t, err)
	require.Equal(t, uint(1), b.ID)
}

func TestGetBuildingMasksAccess(t *testing.T) {
	w := newWorld(t)

	b, err := w.svc.Registry.GetBuilding(w.ctx, w.T, w.B)
	require.NoError(t, err)
	require.Equal(t, "Oak", b.Name)

	_, err = w.svc.Registry.GetBuilding(w.ctx, w.X, w.B)
	requireKind(t, err, apperr.KindNotFound)
	_, err = w.svc.Registry.GetBuilding(w.ctx, w.T, 999)
	requireKind(t, err, apperr.KindNotFound)

	mine, err := w.svc.Registry.ListMyBuildings(w.ctx, w.X)
	require.NoError(t, err)
	require.Empty(t, mine)
	mine, err = w.svc.Registry.ListMyBuildings(w.ctx, w.M)
	require.NoError(t, err)
	require.Len(t, mine, 1)
}

func TestGetUnitMasksAccess(t *testing.T) {
	w := newWorld(t)

	u, err := w.svc.Registry.GetUnit(w.ctx, w.T, w.U101)
	require.NoError(t, err)
	require.Equal(t, "101", u.UnitNumber)

	_, err = w.svc.Registry.GetUnit(w.ctx, w.M, w.U102)
	require.NoError(t, err)
	_, err = w.svc.Registry.GetUnit(w.ctx, w.O, w.U102)
	require.NoError(t, err)

	_, err = w.svc.Registry.GetUnit(w.ctx, w.T2, w.U101)
	requireKind(t, err, apperr.KindNotFound)
	_, err = w.svc.Registry.GetUnit(w.ctx, w.X, w.U101)
	requireKind(t, err, apperr.KindNotFound)
	_, err = w.svc.Registry.GetUnit(w.ctx, w.T, 999)
	requireKind(t, err, apperr.KindNotFound)
}

func TestCreateUnitRules(t *testing.T) {
	w := newWorld(t)

	_, err := w.svc.Registry.CreateUnit(w.ctx, w.O, 999, "1", nil)
	requireKind(t, err, apperr.KindNotFound)
	_, err = w.svc.Registry.CreateUnit(w.ctx, w.M, w.B, "103", nil)
	requireKind(t, err, apperr.KindForbidden)
	_, err = w.svc.Registry.CreateUnit(w.ctx, w.X, w.B, "103", nil)
	requireKind(t, err, apperr.KindForbidden)
	_, err = w.svc.Registry.CreateUnit(w.ctx, w.O, w.B, "101", nil)
	requireKind(t, err, apperr.KindConflict)
	for _, n := range []string{"COMMON", "common", " Common "} {
		_, err = w.svc.Registry.CreateUnit(w.ctx, w.O, w.B, n, nil)
		requireKind(t, err, apperr.KindConflict)
	}

	u, err := w.svc.Registry.CreateUnit(w.ctx, w.O, w.B, "103", ptr(1))
	require.NoError(t, err)
	require.Equal(t, 1, *u.Floor)
}

func TestListUnitsSortedWithoutCommon(t *testing.T) {
	w := newWorld(t)
	w.unit(w.O, w.B, "B1")
	w.unit(w.O, w.B, "002")

	units, err := w.svc.Registry.ListUnits(w.ctx, w.T, w.B)
	require.NoError(t, err)
	var numbers []string
	for _, u := range units {
		numbers = append(numbers, u.UnitNumber)
	}
	require.Equal(t, []string{"002", "101", "102", "B1"}, numbers)

	_, err = w.svc.Registry.ListUnits(w.ctx, w.X, w.B)
	requireKind(t, err, apperr.KindForbidden)
	_, err = w.svc.Registry.ListUnits(w.ctx, w.T, 999)
	requireKind(t, err, apperr.KindNotFound)
}

func TestListBuildingUsers(t *testing.T) {
	w := newWorld(t)

	_, err := w.svc.Registry.ListBuildingUsers(w.ctx, w.T, w.B)
	requireKind(t, err, apperr.KindForbidden)
	_, err = w.svc.Registry.ListBuildingUsers(w.ctx, w.X, w.B)
	requireKind(t, err, apperr.KindForbidden)
	_, err = w.svc.Registry.ListBuildingUsers(w.ctx, w.O, 999)
	requireKind(t, err, apperr.KindNotFound)

	w.member(w.O, w.T, w.U102, "tenant")
	users, err := w.svc.Registry.ListBuildingUsers(w.ctx, w.M, w.B)
	require.NoError(t, err)
	require.Len(t, users, 4)
	byID := map[uint]BuildingUser{}
	for _, u := range users {
		byID[u.ID] = u
	}
	require.Len(t, byID[w.T].Memberships, 2)
	require.Equal(t, "owner@example.com", byID[w.O].Email)
	require.NotContains(t, byID, w.X)
}

func TestMembershipCreateRules(t *testing.T) {
	w := newWorld(t)

	_, err := w.svc.Memberships.Create(w.ctx, w.O, 999, w.U101, "tenant")
	requireKind(t, err, apperr.KindNotFound)
	_, err = w.svc.Memberships.Create(w.ctx, w.O, w.X, 999, "tenant")
	requireKind(t, err, apperr.KindNotFound)
	_, err = w.svc.Memberships.Create(w.ctx, w.M, w.X, w.U101, "tenant")
	requireKind(t, err, apperr.KindForbidden)
	_, err = w.svc.Memberships.Create(w.ctx, w.O, w.T, w.U101, "manager")
	requireKind(t, err, apperr.KindConflict)
	_, err = w.svc.Memberships.Create(w.ctx, w.O, w.X, w.U101, "janitor")
	requireKind(t, err, apperr.KindValidation)

	common := w.commonUnit()
	_, err = w.svc.Memberships.Create(w.ctx, w.O, w.X, common, "tenant")
	requireKind(t, err, apperr.KindValidation)

	m, err := w.svc.Memberships.Create(w.ctx, w.O, w.X, w.U102, "MANAGER")
	require.NoError(t, err)
	require.Equal(t, policy.Manager, m.Role)
}

func (w *world) commonUnit() uint {
	w.t.Helper()
	var id uint
	require.NoError(w.t, w.mem.Tx(w.ctx, func(tx store.Tx) error {
		m, err := tx.MembershipByID(w.ctx, w.OwnerMember)
		id = m.UnitID
		return err
	}))
	return id
}

func TestListMyMemberships(t *testing.T) {
	w := newWorld(t)

	_, err := w.svc.Memberships.ListMine(w.ctx, w.X, w.B)
	requireKind(t, err, apperr.KindNotFound)

	mine, err := w.svc.Memberships.ListMine(w.ctx, w.M, w.B)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, w.U101, mine[0].UnitID)
}

func TestLastOwnerIsProtected(t *testing.T) {
	w := newWorld(t)

	err := w.svc.Memberships.Delete(w.ctx, w.O, w.OwnerMember)
	requireKind(t, err, apperr.KindForbidden)
	require.ErrorIs(t, err, policy.ErrLastOwner)

	_, err = w.svc.Memberships.UpdateRole(w.ctx, w.O, w.OwnerMember, "tenant")
	requireKind(t, err, apperr.KindForbidden)

	_, err = w.svc.Memberships.UpdateRole(w.ctx, w.O, w.OwnerMember, "OWNER")
	require.NoError(t, err)

	second := w.member(w.O, w.X, w.U102, "owner")
	require.NoError(t, w.svc.Memberships.Delete(w.ctx, w.O, w.OwnerMember))

	// теперь X: единственный owner
	err = w.svc.Memberships.Delete(w.ctx, w.X, second)
	requireKind(t, err, apperr.KindForbidden)
	err = w.svc.Memberships.Delete(w.ctx, w.O, second)
	requireKind(t, err, apperr.KindForbidden)
}

func TestMembershipUpdateAndDelete(t *testing.T) {
	w := newWorld(t)
	mine, err := w.svc.Memberships.ListMine(w.ctx, w.T, w.B)
	require.NoError(t, err)
	tm := mine[0].ID

	_, err = w.svc.Memberships.UpdateRole(w.ctx, w.M, tm, "manager")
	requireKind(t, err, apperr.KindForbidden)
	_, err = w.svc.Memberships.UpdateRole(w.ctx, w.O, 999, "manager")
	requireKind(t, err, apperr.KindNotFound)
	_, err = w.svc.Memberships.UpdateRole(w.ctx, w.O, tm, "captain")
	requireKind(t, err, apperr.KindValidation)

	m, err := w.svc.Memberships.UpdateRole(w.ctx, w.O, tm, "manager")
	require.NoError(t, err)
	require.Equal(t, policy.Manager, m.Role)

	requireKind(t, w.svc.Memberships.Delete(w.ctx, w.T2, tm), apperr.KindForbidden)
	require.NoError(t, w.svc.Memberships.Delete(w.ctx, w.O, tm))
	requireKind(t, w.svc.Memberships.Delete(w.ctx, w.O, tm), apperr.KindNotFound)

	_, err = w.svc.Registry.GetBuilding(w.ctx, w.T, w.B)
	requireKind(t, err, apperr.KindNotFound)
}

func TestRequestStatusScenario(t *testing.T) {
	w := newWorld(t)

	r, err := w.svc.Requests.Create(w.ctx, w.T, NewRequest{UnitID: ptr(w.U101), Title: "Leak"})
	require.NoError(t, err)
	require.Equal(t, models.StatusOpen, r.Status)
	require.Equal(t, w.B, r.BuildingID)
	require.Equal(t, w.T, *r.CreatedByUserID)

	_, err = w.svc.Requests.SetStatus(w.ctx, w.T, r.ID, "resolved")
	requireKind(t, err, apperr.KindForbidden)

	got, err := w.svc.Requests.SetStatus(w.ctx, w.M, r.ID, "resolved")
	require.NoError(t, err)
	require.Equal(t, models.StatusResolved, got.Status)
	require.True(t, got.UpdatedAt.After(r.UpdatedAt))

	// RESOLVED не терминален
	got, err = w.svc.Requests.SetStatus(w.ctx, w.O, r.ID, "OPEN")
	require.NoError(t, err)
	require.Equal(t, models.StatusOpen, got.Status)

	_, err = w.svc.Requests.SetStatus(w.ctx, w.M, r.ID, "closed")
	requireKind(t, err, apperr.KindValidation)
	_, err = w.svc.Requests.SetStatus(w.ctx, w.M, 999, "open")
	requireKind(t, err, apperr.KindNotFound)
	_, err = w.svc.Requests.SetStatus(w.ctx, w.X, r.ID, "open")
	requireKind(t, err, apperr.KindForbidden)

	view, err := w.svc.Requests.Get(w.ctx, w.T, r.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusOpen, view.Maintenance.Status)
}

func TestCreateRequestRules(t *testing.T) {
	w := newWorld(t)

	_, err := w.svc.Requests.Create(w.ctx, w.T, NewRequest{Title: "x"})
	requireKind(t, err, apperr.KindValidation)
	_, err = w.svc.Requests.Create(w.ctx, w.T, NewRequest{UnitID: ptr(w.U101), Title: "  "})
	requireKind(t, err, apperr.KindValidation)
	_, err = w.svc.Requests.Create(w.ctx, w.T, NewRequest{BuildingID: ptr(uint(999)), UnitID: ptr(w.U101), Title: "x"})
	requireKind(t, err, apperr.KindValidation)
	_, err = w.svc.Requests.Create(w.ctx, w.T, NewRequest{UnitID: ptr(uint(999)), Title: "x"})
	requireKind(t, err, apperr.KindNotFound)
	_, err = w.svc.Requests.Create(w.ctx, w.T, NewRequest{BuildingID: ptr(uint(999)), Title: "x"})
	requireKind(t, err, apperr.KindNotFound)

	_, err = w.svc.Requests.Create(w.ctx, w.T, NewRequest{UnitID: ptr(w.U102), Title: "x"})
	requireKind(t, err, apperr.KindForbidden)
	_, err = w.svc.Requests.Create(w.ctx, w.X, NewRequest{BuildingID: ptr(w.B), Title: "x"})
	requireKind(t, err, apperr.KindForbidden)
	_, err = w.svc.Requests.Create(w.ctx, w.O, NewRequest{UnitID: ptr(w.commonUnit()), Title: "x"})
	requireKind(t, err, apperr.KindForbidden)

	// manager/owner: по любому юниту здания; член здания, на всё здание
	w.request(w.M, ptr(w.U102), "Hallway light")
	w.request(w.O, ptr(w.U102), "Window")
	w.request(w.T2, nil, "Elevator")
}

func TestListRequestsVisibilityAndOrder(t *testing.T) {
	w := newWorld(t)
	r1 := w.request(w.T, ptr(w.U101), "Leak")
	r2 := w.request(w.T2, ptr(w.U102), "Door")
	r3 := w.request(w.T2, nil, "Elevator")
	require.NoError(t, w.svc.Votes.Add(w.ctx, w.T, r3))
	require.NoError(t, w.svc.Votes.Add(w.ctx, w.M, r3))

	ids := func(list []RequestWithVotes) []uint {
		out := make([]uint, 0, len(list))
		for _, r := range list {
			out = append(out, r.Maintenance.ID)
		}
		return out
	}

	all, err := w.svc.Requests.List(w.ctx, w.M, w.B)
	require.NoError(t, err)
	require.Equal(t, []uint{r3, r2, r1}, ids(all))
	require.Equal(t, int64(2), all[0].Votes)
	require.Equal(t, int64(0), all[1].Votes)

	mine, err := w.svc.Requests.List(w.ctx, w.T, w.B)
	require.NoError(t, err)
	require.Equal(t, []uint{r3, r1}, ids(mine))

	_, err = w.svc.Requests.List(w.ctx, w.X, w.B)
	requireKind(t, err, apperr.KindForbidden)
	_, err = w.svc.Requests.List(w.ctx, w.T, 999)
	requireKind(t, err, apperr.KindNotFound)

	_, err = w.svc.Requests.Get(w.ctx, w.T, r2)
	requireKind(t, err, apperr.KindForbidden)
	_, err = w.svc.Requests.Get(w.ctx, w.X, r1)
	requireKind(t, err, apperr.KindForbidden)
	_, err = w.svc.Requests.Get(w.ctx, w.T, 999)
	requireKind(t, err, apperr.KindNotFound)

	view, err := w.svc.Requests.Get(w.ctx, w.T, r3)
	require.NoError(t, err)
	require.Equal(t, int64(2), view.Votes)
}

func TestVoteScenario(t *testing.T) {
	w := newWorld(t)
	r := w.request(w.T, ptr(w.U101), "Leak")

	added, err := w.svc.Votes.Cast(w.ctx, w.T, r, 1)
	require.NoError(t, err)
	require.True(t, added)
	_, err = w.svc.Votes.Cast(w.ctx, w.T, r, 1)
	requireKind(t, err, apperr.KindConflict)

	added, err = w.svc.Votes.Cast(w.ctx, w.T, r, 0)
	require.NoError(t, err)
	require.False(t, added)
	_, err = w.svc.Votes.Cast(w.ctx, w.T, r, 0)
	requireKind(t, err, apperr.KindNotFound)

	_, err = w.svc.Votes.Cast(w.ctx, w.T, r, 2)
	requireKind(t, err, apperr.KindValidation)
	requireKind(t, w.svc.Votes.Add(w.ctx, w.T, 999), apperr.KindNotFound)
}

func TestVoteEligibility(t *testing.T) {
	w := newWorld(t)
	r101 := w.request(w.T, ptr(w.U101), "Leak")
	r102 := w.request(w.T2, ptr(w.U102), "Door")
	wide := w.request(w.T2, nil, "Elevator")

	// owner не голосует, даже будучи членом юнита
	w.member(w.O, w.O, w.U101, "tenant")
	err := w.svc.Votes.Add(w.ctx, w.O, r101)
	requireKind(t, err, apperr.KindForbidden)
	require.ErrorIs(t, err, policy.ErrOwnerVote)
	requireKind(t, w.svc.Votes.Add(w.ctx, w.O, wide), apperr.KindForbidden)

	// manager голосует по любому юниту здания
	require.NoError(t, w.svc.Votes.Add(w.ctx, w.M, r102))

	// tenant: только по своему юниту и по заявкам на всё здание
	requireKind(t, w.svc.Votes.Add(w.ctx, w.T, r102), apperr.KindForbidden)
	require.NoError(t, w.svc.Votes.Add(w.ctx, w.T, wide))
	requireKind(t, w.svc.Votes.Add(w.ctx, w.X, r101), apperr.KindForbidden)
	requireKind(t, w.svc.Votes.Remove(w.ctx, w.X, r101), apperr.KindForbidden)

	// заявка на COMMON могла остаться от старых данных
	var legacy uint
	require.NoError(t, w.mem.Tx(w.ctx, func(tx store.Tx) error {
		m, err := tx.MembershipByID(w.ctx, w.OwnerMember)
		if err != nil {
			return err
		}
		r := &models.MaintenanceRequest{BuildingID: w.B, UnitID: ptr(m.UnitID), Title: "legacy"}
		if err := tx.CreateRequest(w.ctx, r); err != nil {
			return err
		}
		legacy = r.ID
		return nil
	}))
	err = w.svc.Votes.Add(w.ctx, w.M, legacy)
	require.ErrorIs(t, err, policy.ErrCommonVote)
}

func TestAccounts(t *testing.T) {
	f := newFixture(t)
	id := f.user("Alice@Example.com")

	_, err := f.svc.Accounts.Signup(f.ctx, "alice@example.com", "other")
	requireKind(t, err, apperr.KindConflict)
	_, err = f.svc.Accounts.Signup(f.ctx, "", "pw")
	requireKind(t, err, apperr.KindValidation)

	_, err = f.svc.Accounts.Login(f.ctx, "alice@example.com", "wrong")
	requireKind(t, err, apperr.KindForbidden)
	_, err = f.svc.Accounts.Login(f.ctx, "nobody@example.com", "pw")
	requireKind(t, err, apperr.KindForbidden)

	tok, err := f.svc.Accounts.Login(f.ctx, "ALICE@example.com", "pw")
	require.NoError(t, err)
	u, err := f.svc.Accounts.Authenticate(f.ctx, tok)
	require.NoError(t, err)
	require.Equal(t, id, u.ID)
	require.Equal(t, "alice@example.com", u.Email)

	_, err = f.svc.Accounts.Authenticate(f.ctx, "garbage")
	requireKind(t, err, apperr.KindUnauthorized)

	other, err := identity.NewTokens("test-secret", "HS256", time.Hour)
	require.NoError(t, err)
	ghost, err := other.Issue(4242)
	require.NoError(t, err)
	_, err = f.svc.Accounts.Authenticate(f.ctx, ghost)
	requireKind(t, err, apperr.KindUnauthorized)
}

func TestErrorMessagesKeepPercent(t *testing.T) {
	f := newFixture(t)
	f.user("100%vip@example.com")
	_, err := f.svc.Accounts.Signup(f.ctx, "100%vip@example.com", "pw")
	requireKind(t, err, apperr.KindConflict)
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	require.Equal(t, "User with email 100%vip@example.com already exists", ae.Message)

	err = writeErr(fmt.Errorf("insert: %w", store.ErrConflict), "User with email 100%vip@x.com already exists")
	requireKind(t, err, apperr.KindConflict)
	require.ErrorAs(t, err, &ae)
	require.Equal(t, "User with email 100%vip@x.com already exists", ae.Message)
	require.ErrorIs(t, err, store.ErrConflict)

	err = lookupErr(store.ErrNotFound, "Unit 50% not found")
	requireKind(t, err, apperr.KindNotFound)
	require.ErrorAs(t, err, &ae)
	require.Equal(t, "Unit 50% not found", ae.Message)
}

func TestGetUser(t *testing.T) {
	w := newWorld(t)

	self, err := w.svc.Accounts.GetUser(w.ctx, w.T, w.T)
	require.NoError(t, err)
	require.Equal(t, []uint{w.U101}, self.UnitIDs)

	seen, err := w.svc.Accounts.GetUser(w.ctx, w.M, w.T2)
	require.NoError(t, err)
	require.Equal(t, []uint{w.U102}, seen.UnitIDs)

	_, err = w.svc.Accounts.GetUser(w.ctx, w.T, w.T2)
	requireKind(t, err, apperr.KindForbidden)
	_, err = w.svc.Accounts.GetUser(w.ctx, w.O, w.X)
	requireKind(t, err, apperr.KindForbidden)
	_, err = w.svc.Accounts.GetUser(w.ctx, w.O, 999)
	requireKind(t, err, apperr.KindNotFound)
}

func TestDirectory(t *testing.T) {
	w := newWorld(t)
	var d Directory
	require.NoError(t, w.mem.Tx(w.ctx, func(tx store.Tx) error {
		ok, err := d.HasRole(w.ctx, tx, w.M, w.B, policy.Role("MANAGER"))
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = d.HasRole(w.ctx, tx, w.T, w.B, policy.Manager, policy.Owner)
		require.NoError(t, err)
		require.False(t, ok)

		ok, err = d.BelongsToBuilding(w.ctx, tx, w.O, w.B)
		require.NoError(t, err)
		require.True(t, ok, "membership in COMMON counts")

		ok, err = d.BelongsToBuilding(w.ctx, tx, w.X, w.B)
		require.NoError(t, err)
		require.False(t, ok)

		u, err := tx.UnitByID(w.ctx, w.U102)
		require.NoError(t, err)
		ok, err = d.IsMemberOfUnit(w.ctx, tx, w.T2, *u)
		require.NoError(t, err)
		require.True(t, ok)
		ok, err = d.IsMemberOfUnit(w.ctx, tx, w.T, *u)
		require.NoError(t, err)
		require.False(t, ok)
		return nil
	}))
}
