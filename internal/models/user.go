package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Privilege string

const (
	PrivilegeCitizen       Privilege = "Citizen"
	PrivilegeCoordinator   Privilege = "Coordinator"
	PrivilegeAdministrator Privilege = "Administrator"
)

// Safety statuses a citizen can share with the community.
const (
	StatusUndefined = "Undefined"
	StatusOK        = "OK"
	StatusHelp      = "Help"
	StatusEmergency = "Emergency"
)

func ValidStatus(status string) bool {
	switch status {
	case StatusUndefined, StatusOK, StatusHelp, StatusEmergency:
		return true
	}
	return false
}

type User struct {
	ID              uuid.UUID `json:"id"`
	Username        string    `json:"username"`
	PasswordHash    string    `json:"-"`
	Status          string    `json:"status"`
	IsOnline        bool      `json:"is_online"`
	IsSharingStatus bool      `json:"is_sharing_status"`
	Privilege       Privilege `json:"privilege"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NormalizeUsername lowercases a username; the directory is keyed by the
// normalized form so "Alice" and "alice" are the same identity.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func (u *User) IsAdmin() bool {
	return u.Privilege == PrivilegeAdministrator
}
