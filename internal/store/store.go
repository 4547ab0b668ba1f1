// Package store is the persistence contract used by the core services.
//
// Every logical operation runs inside exactly one Tx: either everything the
// callback wrote is committed or nothing is. Uniqueness is enforced by the
// backend itself, callers' pre-flight checks are an optimisation only.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/hjiwane/apartment-society-backend/internal/models"
	"github.com/hjiwane/apartment-society-backend/internal/policy"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("unique constraint violated")
)

type Store interface {
	// Tx выполняет fn в одной транзакции: nil -> commit, ошибка -> rollback.
	Tx(ctx context.Context, fn func(tx Tx) error) error
	Ping(ctx context.Context) error
}

// MemberUnit: членство вместе с юнитом, к которому оно относится.
type MemberUnit struct {
	Membership models.Membership
	Unit       models.Unit
}

type Tx interface {
	CreateUser(ctx context.Context, u *models.User) error
	UserByID(ctx context.Context, id uint) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)

	CreateBuilding(ctx context.Context, b *models.Building) error
	BuildingByID(ctx context.Context, id uint) (*models.Building, error)
	BuildingByNameAddress(ctx context.Context, name, address string) (*models.Building, error)
	// BuildingsForUser: здания, где у пользователя есть хоть одно членство, по id.
	BuildingsForUser(ctx context.Context, userID uint) ([]models.Building, error)

	CreateUnit(ctx context.Context, u *models.Unit) error
	UnitByID(ctx context.Context, id uint) (*models.Unit, error)
	// ListUnits: юниты здания без COMMON, по unit_number по возрастанию.
	ListUnits(ctx context.Context, buildingID uint) ([]models.Unit, error)

	CreateMembership(ctx context.Context, m *models.Membership) error
	MembershipByID(ctx context.Context, id uint) (*models.Membership, error)
	// MembershipsInBuilding: членства пользователя в юнитах здания, по id.
	MembershipsInBuilding(ctx context.Context, userID, buildingID uint) ([]MemberUnit, error)
	// BuildingMembers: все членства здания, по user_id затем id.
	BuildingMembers(ctx context.Context, buildingID uint) ([]MemberUnit, error)
	// MembershipsOfUser: все членства пользователя, по id.
	MembershipsOfUser(ctx context.Context, userID uint) ([]MemberUnit, error)
	UpdateMembershipRole(ctx context.Context, id uint, role policy.Role) error
	DeleteMembership(ctx context.Context, id uint) error
	// LockOwners блокирует owner-членства здания до конца транзакции
	// и возвращает их id.
	LockOwners(ctx context.Context, buildingID uint) ([]uint, error)

	CreateRequest(ctx context.Context, r *models.MaintenanceRequest) error
	RequestByID(ctx context.Context, id uint) (*models.MaintenanceRequest, error)
	// ListRequests: заявки здания, новые первыми.
	ListRequests(ctx context.Context, buildingID uint) ([]models.MaintenanceRequest, error)
	UpdateRequestStatus(ctx context.Context, id uint, status models.Status, at time.Time) error

	CreateVote(ctx context.Context, v *models.Vote) error
	DeleteVote(ctx context.Context, requestID, userID uint) error
	VoteExists(ctx context.Context, requestID, userID uint) (bool, error)
	// VoteCounts: число различных голосующих по каждой заявке.
	VoteCounts(ctx context.Context, requestIDs []uint) (map[uint]int64, error)
}
