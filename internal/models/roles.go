package models

import (
	"database/sql/driver"
	"fmt"
	"strconv"
)

// UserRole - закрытое перечисление ролей. В БД роли хранятся как
// smallint (1..4), наружу и внутрь сервисов идут только строковые
// значения; преобразование происходит исключительно здесь.
type UserRole string

const (
	RoleAdmin      UserRole = "admin"
	RoleSuperAdmin UserRole = "super_admin"
	RoleEmployer   UserRole = "employer"
	RoleCandidate  UserRole = "candidate"
)

var roleIDs = map[UserRole]int64{
	RoleAdmin:      1,
	RoleSuperAdmin: 2,
	RoleEmployer:   3,
	RoleCandidate:  4,
}

var rolesByID = map[int64]UserRole{
	1: RoleAdmin,
	2: RoleSuperAdmin,
	3: RoleEmployer,
	4: RoleCandidate,
}

func (r UserRole) Valid() bool {
	_, ok := roleIDs[r]
	return ok
}

// ID возвращает числовой код роли для границы хранения/API.
func (r UserRole) ID() int {
	return int(roleIDs[r])
}

func RoleFromID(id int) (UserRole, error) {
	role, ok := rolesByID[int64(id)]
	if !ok {
		return "", fmt.Errorf("unknown role id: %d", id)
	}
	return role, nil
}

func (r *UserRole) Scan(value interface{}) error {
	if value == nil {
		*r = ""
		return nil
	}
	var id int64
	switch v := value.(type) {
	case int64:
		id = v
	case int:
		id = int64(v)
	case []byte:
		parsed, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return fmt.Errorf("scan user role: %w", err)
		}
		id = parsed
	case string:
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("scan user role: %w", err)
		}
		id = parsed
	default:
		return fmt.Errorf("scan user role: unsupported type %T", value)
	}
	role, ok := rolesByID[id]
	if !ok {
		return fmt.Errorf("scan user role: unknown id %d", id)
	}
	*r = role
	return nil
}

func (r UserRole) Value() (driver.Value, error) {
	id, ok := roleIDs[r]
	if !ok {
		return nil, fmt.Errorf("value user role: unknown role %q", string(r))
	}
	return id, nil
}
