package policy

// Grant: одно членство вызывающего внутри здания.
type Grant struct {
	MembershipID uint
	UnitID       uint
	UnitIsCommon bool
	Role         Role
}

// Facts: заранее выбранные членства пользователя в одном здании.
// Пустой Grants означает, что пользователь к зданию не относится.
type Facts struct {
	UserID     uint
	BuildingID uint
	Grants     []Grant
}

// BelongsToBuilding: любое членство (любая роль, любой юнит, включая COMMON).
func (f Facts) BelongsToBuilding() bool { return len(f.Grants) > 0 }

// HasRole: есть ли хотя бы одна из ролей где-либо в здании.
func (f Facts) HasRole(roles ...Role) bool {
	for _, g := range f.Grants {
		for _, r := range roles {
			if g.Role.Is(r) {
				return true
			}
		}
	}
	return false
}

func (f Facts) IsPrivileged() bool {
	for _, g := range f.Grants {
		if g.Role.Privileged() {
			return true
		}
	}
	return false
}

func (f Facts) IsOwner() bool { return f.HasRole(Owner) }

func (f Facts) IsMemberOfUnit(unitID uint) bool {
	for _, g := range f.Grants {
		if g.UnitID == unitID {
			return true
		}
	}
	return false
}

// RequestTarget описывает, на что нацелена заявка.
type RequestTarget struct {
	BuildingID   uint
	UnitID       *uint // nil: заявка на всё здание
	UnitIsCommon bool
}

func (t RequestTarget) BuildingWide() bool { return t.UnitID == nil }
