package rbac

import (
	"sitebooks-backend/internal/auth"
	"sitebooks-backend/internal/model"
)

// Scope limits which projects a caller can see. The zero Scope is unrestricted.
type Scope struct {
	projectID *uint
	denyAll   bool
}

// Unrestricted returns a scope that sees every project.
func Unrestricted() Scope { return Scope{} }

// ProjectOnly returns a scope limited to one project.
func ProjectOnly(id uint) Scope { return Scope{projectID: &id} }

// ScopeFor derives the scope of an actor. A site manager without an assigned
// project sees nothing.
func ScopeFor(a auth.Actor) Scope {
	if a.Role != model.RoleSiteManager {
		return Unrestricted()
	}
	if a.ProjectID == nil {
		return Scope{denyAll: true}
	}
	return ProjectOnly(*a.ProjectID)
}

// Restricted reports whether the scope is limited.
func (s Scope) Restricted() bool {
	return s.denyAll || s.projectID != nil
}

// ProjectID returns the single visible project, if restricted to one.
func (s Scope) ProjectID() (uint, bool) {
	if s.projectID == nil {
		return 0, false
	}
	return *s.projectID, true
}

// Allows reports whether records of project id are visible.
func (s Scope) Allows(id uint) bool {
	if s.denyAll {
		return false
	}
	return s.projectID == nil || *s.projectID == id
}

// AllowsOptional handles records whose project is optional. Records without a
// project are only visible to unrestricted scopes.
func (s Scope) AllowsOptional(id *uint) bool {
	if id == nil {
		return !s.Restricted()
	}
	return s.Allows(*id)
}
