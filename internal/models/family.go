package models

import "time"

// Role identifies who is acting on a record
type Role string

const (
	RoleParent Role = "parent"
	RoleChild  Role = "child"
	RoleSystem Role = "system"
)

// Parent owns zero or more children
type Parent struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Child belongs to exactly one parent
type Child struct {
	ID        string    `json:"id"`
	ParentID  string    `json:"parentId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Actor is the authenticated caller of an operation
type Actor struct {
	ID   string
	Role Role
}

// SystemActor is used by background jobs
var SystemActor = Actor{ID: "system", Role: RoleSystem}

// IsParent reports whether the actor is a parent
func (a Actor) IsParent() bool { return a.Role == RoleParent }

// IsChild reports whether the actor is a child
func (a Actor) IsChild() bool { return a.Role == RoleChild }
