package policy

import (
	"fmt"
	"strings"
)

// Role: роль участника в конкретном юните. Набор закрыт.
type Role string

const (
	Tenant  Role = "tenant"
	Manager Role = "manager"
	Owner   Role = "owner"
)

// ParseRole принимает роль без учёта регистра.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case Tenant, Manager, Owner:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Normalize приводит сохранённую строку роли к каноническому виду.
// Неизвестные значения трактуются как непривилегированные.
func (r Role) Normalize() Role {
	if p, err := ParseRole(string(r)); err == nil {
		return p
	}
	return Role(strings.ToLower(string(r)))
}

func (r Role) rank() int {
	switch r.Normalize() {
	case Owner:
		return 2
	case Manager:
		return 1
	default:
		return 0
	}
}

// AtLeast: Owner ⪰ Manager ⪰ Tenant (и любые другие строки).
func (r Role) AtLeast(other Role) bool { return r.rank() >= other.rank() }

// Privileged (manager или owner) даёт видимость по всему зданию и администрирование.
func (r Role) Privileged() bool { return r.AtLeast(Manager) }

// Is сравнивает роли без учёта регистра.
func (r Role) Is(other Role) bool { return r.Normalize() == other.Normalize() }
