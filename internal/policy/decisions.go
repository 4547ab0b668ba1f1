package policy

import "errors"

// Отказы. На уровне API все они дают Forbidden.
var (
	ErrNotBuildingMember = errors.New("access denied")
	ErrOwnerRequired     = errors.New("owner role required")
	ErrManagerRequired   = errors.New("manager or owner role required")
	ErrNotUnitMember     = errors.New("not authorized for this unit")
	ErrCommonTarget      = errors.New("maintenance requests cannot target the COMMON unit")
	ErrCommonVote        = errors.New("voting not allowed for COMMON unit")
	ErrOwnerVote         = errors.New("owners cannot vote")
	ErrLastOwner         = errors.New("cannot remove the only owner from this building")
)

func sameBuilding(f Facts, buildingID uint) bool {
	return f.BuildingID == buildingID && f.BelongsToBuilding()
}

// CanCreateUnit: owner где-либо в целевом здании.
func CanCreateUnit(f Facts) error {
	if !f.IsOwner() {
		return ErrOwnerRequired
	}
	return nil
}

// CanManageMembership (create/update/delete): owner в здании целевого юнита.
func CanManageMembership(f Facts) error {
	if !f.IsOwner() {
		return ErrOwnerRequired
	}
	return nil
}

// CanChangeOwnerMembership запрещает снятие последнего owner'а здания:
// и удалением, и сменой роли. owners: текущее число owner-членств здания.
func CanChangeOwnerMembership(current, next Role, owners int) error {
	if !current.Is(Owner) || next.Is(Owner) {
		return nil
	}
	if owners <= 1 {
		return ErrLastOwner
	}
	return nil
}

// CanDeleteOwnerMembership: частный случай для удаления.
func CanDeleteOwnerMembership(current Role, owners int) error {
	return CanChangeOwnerMembership(current, "", owners)
}

// CanListBuildingUsers: только manager/owner здания.
func CanListBuildingUsers(f Facts) error {
	if !f.BelongsToBuilding() {
		return ErrNotBuildingMember
	}
	if !f.IsPrivileged() {
		return ErrManagerRequired
	}
	return nil
}

// CanViewUnit: член юнита либо manager/owner здания.
func CanViewUnit(f Facts, unitID uint) error {
	if f.IsMemberOfUnit(unitID) || f.IsPrivileged() {
		return nil
	}
	return ErrNotUnitMember
}

// CanCreateRequest: для заявки на всё здание достаточно принадлежать зданию;
// для юнита: членство в этом юните либо manager/owner в здании.
// COMMON как явная цель не допускается.
func CanCreateRequest(f Facts, t RequestTarget) error {
	if !sameBuilding(f, t.BuildingID) {
		return ErrNotBuildingMember
	}
	if t.BuildingWide() {
		return nil
	}
	if t.UnitIsCommon {
		return ErrCommonTarget
	}
	if f.IsMemberOfUnit(*t.UnitID) || f.IsPrivileged() {
		return nil
	}
	return ErrNotUnitMember
}

// CanTransitionRequest: любой manager/owner здания может выставить любой статус.
func CanTransitionRequest(f Facts, t RequestTarget) error {
	if !sameBuilding(f, t.BuildingID) || !f.IsPrivileged() {
		return ErrManagerRequired
	}
	return nil
}

// CanViewRequest: член здания; непривилегированным для заявки по юниту
// нужно ещё и членство в этом юните.
func CanViewRequest(f Facts, t RequestTarget) error {
	if !sameBuilding(f, t.BuildingID) {
		return ErrNotBuildingMember
	}
	if f.IsPrivileged() || t.BuildingWide() || f.IsMemberOfUnit(*t.UnitID) {
		return nil
	}
	return ErrNotUnitMember
}

// Visible: фильтр для списка заявок, та же логика без причины отказа.
func Visible(f Facts, t RequestTarget) bool { return CanViewRequest(f, t) == nil }

// CanVote: не COMMON; член здания; owner не голосует никогда;
// manager голосует по любой заявке здания, остальные только по своему юниту
// или по заявке на всё здание.
func CanVote(f Facts, t RequestTarget) error {
	if t.UnitIsCommon {
		return ErrCommonVote
	}
	if !sameBuilding(f, t.BuildingID) {
		return ErrNotBuildingMember
	}
	if f.IsOwner() {
		return ErrOwnerVote
	}
	if f.HasRole(Manager) || t.BuildingWide() {
		return nil
	}
	if f.IsMemberOfUnit(*t.UnitID) {
		return nil
	}
	return ErrNotUnitMember
}
