package models

import (
	"strings"
	"time"

	"github.com/hjiwane/apartment-society-backend/internal/policy"
)

// CommonUnitNumber: синтетический юнит здания (общая зона).
// Создаётся вместе со зданием, ровно один на здание.
const CommonUnitNumber = "COMMON"

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"` // bcrypt-хэш
	CreatedAt time.Time `json:"created_at"`
}

type Building struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null;uniqueIndex:uniq_building_name_address,priority:1" json:"name"`
	Address   string    `gorm:"size:255;not null;uniqueIndex:uniq_building_name_address,priority:2" json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

type Unit struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	BuildingID uint      `gorm:"not null;uniqueIndex:uniq_unit_number,priority:1" json:"building_id"`
	UnitNumber string    `gorm:"size:64;not null;uniqueIndex:uniq_unit_number,priority:2" json:"unit_number"`
	Floor      *int      `json:"floor,omitempty"`
	CreatedAt  time.Time `json:"created_at"`

	Building *Building `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// IsCommon не зависит от регистра: "common" тоже зарезервирован.
func (u *Unit) IsCommon() bool { return IsCommonNumber(u.UnitNumber) }

func IsCommonNumber(n string) bool {
	return strings.EqualFold(strings.TrimSpace(n), CommonUnitNumber)
}

type Membership struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	UserID    uint        `gorm:"not null;uniqueIndex:uniq_membership,priority:1" json:"user_id"`
	UnitID    uint        `gorm:"not null;uniqueIndex:uniq_membership,priority:2;index" json:"unit_id"`
	Role      policy.Role `gorm:"size:32;not null" json:"role"`
	CreatedAt time.Time   `json:"created_at"`

	User *User `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Unit *Unit `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
