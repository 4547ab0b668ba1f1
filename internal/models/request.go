package models

import (
	"fmt"
	"strings"
	"time"
)

// Status: состояние заявки на обслуживание.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
)

// ParseStatus принимает "OPEN", "in_progress" и т.п.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusOpen, StatusInProgress, StatusResolved:
		return st, nil
	default:
		return "", fmt.Errorf("unknown status %q", s)
	}
}

// MaintenanceRequest с UnitID == nil означает заявку на всё здание (общая зона).
type MaintenanceRequest struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	BuildingID      uint      `gorm:"not null;index" json:"building_id"`
	UnitID          *uint     `gorm:"index" json:"unit_id"`
	CreatedByUserID *uint     `gorm:"index" json:"created_by_user_id"`
	Title           string    `gorm:"size:255;not null" json:"title"`
	Description     *string   `json:"description"`
	Status          Status    `gorm:"size:32;not null;default:open" json:"status"`
	CreatedAt       time.Time `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	Building *Building `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Unit     *Unit     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Creator  *User     `gorm:"foreignKey:CreatedByUserID;constraint:OnDelete:SET NULL" json:"-"`
}

// Vote: сам факт строки и есть голос. Составной PK держит уникальность.
type Vote struct {
	RequestID uint      `gorm:"column:maintenance_request_id;primaryKey;autoIncrement:false" json:"maintenance_request_id"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`

	Request *MaintenanceRequest `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"-"`
	User    *User               `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (Vote) TableName() string { return "maintenance_votes" }
