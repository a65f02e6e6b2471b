package domain

import "fmt"

// Role представляет уровень прав участника на доске.
// Хранится по имени, а не по порядковому номеру.
type Role string

// Возможные роли участника
const (
	RoleOwner      Role = "OWNER"      // Полный контроль над доской
	RoleMaintainer Role = "MAINTAINER" // Управление задачами
	RoleMember     Role = "MEMBER"     // Работа с задачами
	RoleVisitor    Role = "VISITOR"    // Только чтение
)

// Name возвращает каноническое имя роли
func (r Role) Name() string {
	return string(r)
}

// IsValid проверяет, что роль входит в закрытый перечень
func (r Role) IsValid() bool {
	switch r {
	case RoleOwner, RoleMaintainer, RoleMember, RoleVisitor:
		return true
	}
	return false
}

// ParseRole разбирает имя роли с учетом регистра
func ParseRole(name string) (Role, error) {
	role := Role(name)
	if !role.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, name)
	}
	return role, nil
}
