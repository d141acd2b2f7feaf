package rbac

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sitebooks-backend/internal/auth"
	"sitebooks-backend/internal/model"
)

// Resource is a protected family of routes.
type Resource string

const (
	Projects     Resource = "projects"
	BankAccounts Resource = "bank_accounts"
	Contractors  Resource = "contractors"
	Machines     Resource = "machines"
	Vendors      Resource = "vendors"
	Employees    Resource = "employees"
	Expenses     Resource = "expenses"
	Inventory    Resource = "inventory"
	Reports      Resource = "reports"
	Users        Resource = "users"
)

// Action is an operation on a resource.
type Action string

const (
	View   Action = "view"
	Create Action = "create"
	Update Action = "update"
	Delete Action = "delete"
)

var all = []Action{View, Create, Update, Delete}

var policy = map[model.Role]map[Resource][]Action{
	model.RoleSuperAdmin: {
		Projects: all, BankAccounts: all, Contractors: all, Machines: all, Vendors: all,
		Employees: all, Expenses: all, Inventory: all, Reports: {View}, Users: all,
	},
	model.RoleAdmin: {
		Projects: all, BankAccounts: all, Contractors: all, Machines: all, Vendors: all,
		Employees: all, Expenses: all, Inventory: all, Reports: {View}, Users: {View},
	},
	model.RoleSiteManager: {
		Projects:    {View},
		Contractors: {View, Create, Update},
		Machines:    {View, Create, Update},
		Employees:   {View, Create, Update},
		Expenses:    {View, Create, Update},
		Inventory:   {View, Update},
		Reports:     {View},
	},
}

// Can reports whether role may perform action on resource.
func Can(role model.Role, resource Resource, action Action) bool {
	for _, a := range policy[role][resource] {
		if a == action {
			return true
		}
	}
	return false
}

// Require aborts with 403 unless the authenticated role may perform action on resource.
func Require(resource Resource, action Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := auth.ActorFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if !Can(actor.Role, resource, action) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "role " + string(actor.Role) + " cannot " + string(action) + " " + string(resource)})
			return
		}
		c.Next()
	}
}
