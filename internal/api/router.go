package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"sitebooks-backend/config"
	"sitebooks-backend/internal/auth"
	"sitebooks-backend/internal/metrics"
	"sitebooks-backend/internal/mw"
	"sitebooks-backend/internal/rbac"
	"sitebooks-backend/internal/store"
)

// Deps are the collaborators the router wires into handlers and middleware.
type Deps struct {
	Store   store.Store
	Issuer  *auth.Issuer
	WebPush *webpush.Options
	Log     *logrus.Logger
	Metrics *metrics.Metrics
	Server  config.ServerConfig
}

// NewRouter creates and configures a new Gin router.
func NewRouter(d Deps) *gin.Engine {
	useJSONFieldNames()
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}

	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestID(), mw.Logger(d.Log))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware())
		r.GET("/metrics", d.Metrics.Handler())
	}
	if len(d.Server.CORSOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = d.Server.CORSOrigins
		corsConfig.AddAllowHeaders("Authorization", mw.RequestIDHeader)
		corsConfig.AddExposeHeaders(mw.RequestIDHeader, "Content-Disposition")
		r.Use(cors.New(corsConfig))
	}

	h := NewHandler(d.Store, d.Issuer, d.WebPush, d.Log)
	r.GET("/healthz", h.Health)

	// Reports and ledgers are cached per user and dropped on any successful write.
	ttl := time.Duration(d.Server.CacheTTLSeconds) * time.Second
	responses := mw.NewResponseCache(ttl)
	cached := mw.Cache(responses)

	loginRate, loginBurst := rate.Limit(d.Server.LoginRatePerSec), d.Server.LoginBurst
	if loginRate <= 0 {
		loginRate = rate.Limit(1)
	}
	if loginBurst <= 0 {
		loginBurst = 5
	}

	api := r.Group("/api")
	api.POST("/auth/login", mw.RateLimiter(loginRate, loginBurst), h.Login)

	authed := api.Group("")
	authed.Use(auth.Authenticate(d.Issuer, d.Store), mw.FlushOnWrite(responses))
	{
		authed.GET("/auth/me", h.Me)

		users := authed.Group("/users")
		users.GET("", rbac.Require(rbac.Users, rbac.View), h.ListUsers)
		users.POST("", rbac.Require(rbac.Users, rbac.Create), h.CreateUser)
		users.GET("/:id", rbac.Require(rbac.Users, rbac.View), h.GetUser)
		users.PATCH("/:id", rbac.Require(rbac.Users, rbac.Update), h.UpdateUser)
		users.DELETE("/:id", rbac.Require(rbac.Users, rbac.Delete), h.DeleteUser)

		projects := authed.Group("/projects")
		projects.GET("", rbac.Require(rbac.Projects, rbac.View), h.ListProjects)
		projects.POST("", rbac.Require(rbac.Projects, rbac.Create), h.CreateProject)
		projects.GET("/:id", rbac.Require(rbac.Projects, rbac.View), h.GetProject)
		projects.PATCH("/:id", rbac.Require(rbac.Projects, rbac.Update), h.UpdateProject)
		projects.DELETE("/:id", rbac.Require(rbac.Projects, rbac.Delete), h.DeleteProject)
		projects.GET("/:id/ledger", rbac.Require(rbac.Projects, rbac.View), cached, h.ProjectLedger)
		projects.GET("/:id/ledger/export", rbac.Require(rbac.Projects, rbac.View), h.ExportProjectLedger)
		projects.GET("/:id/adjustments", rbac.Require(rbac.Projects, rbac.View), h.ListAdjustments)
		projects.POST("/:id/adjustments", rbac.Require(rbac.Projects, rbac.Update), h.CreateAdjustment)
		projects.DELETE("/:id/adjustments/:adjustmentId", rbac.Require(rbac.Projects, rbac.Update), h.DeleteAdjustment)

		bank := authed.Group("/bank-accounts")
		bank.GET("", rbac.Require(rbac.BankAccounts, rbac.View), h.ListBankAccounts)
		bank.POST("", rbac.Require(rbac.BankAccounts, rbac.Create), h.CreateBankAccount)
		bank.GET("/:id", rbac.Require(rbac.BankAccounts, rbac.View), h.GetBankAccount)
		bank.PATCH("/:id", rbac.Require(rbac.BankAccounts, rbac.Update), h.UpdateBankAccount)
		bank.DELETE("/:id", rbac.Require(rbac.BankAccounts, rbac.Delete), h.DeleteBankAccount)
		bank.GET("/:id/transactions", rbac.Require(rbac.BankAccounts, rbac.View), h.ListBankTransactions)
		bank.POST("/:id/transactions", rbac.Require(rbac.BankAccounts, rbac.Create), h.CreateBankTransaction)
		bank.DELETE("/:id/transactions/:txId", rbac.Require(rbac.BankAccounts, rbac.Delete), h.DeleteBankTransaction)

		h.contractorEndpoints().register(authed.Group("/contractors"), cached)
		h.machineEndpoints().register(authed.Group("/machines"), cached)

		vendors := authed.Group("/vendors")
		vendors.GET("", rbac.Require(rbac.Vendors, rbac.View), h.ListVendors)
		vendors.POST("", rbac.Require(rbac.Vendors, rbac.Create), h.CreateVendor)
		vendors.GET("/:id", rbac.Require(rbac.Vendors, rbac.View), h.GetVendor)
		vendors.PATCH("/:id", rbac.Require(rbac.Vendors, rbac.Update), h.UpdateVendor)
		vendors.DELETE("/:id", rbac.Require(rbac.Vendors, rbac.Delete), h.DeleteVendor)
		vendors.GET("/:id/bills", rbac.Require(rbac.Vendors, rbac.View), h.ListVendorBills)
		vendors.POST("/:id/bills", rbac.Require(rbac.Vendors, rbac.Create), h.CreateVendorBill)
		vendors.DELETE("/:id/bills/:billId", rbac.Require(rbac.Vendors, rbac.Delete), h.DeleteVendorBill)
		vendors.GET("/:id/payments", rbac.Require(rbac.Vendors, rbac.View), h.ListVendorPayments)
		vendors.POST("/:id/payments", rbac.Require(rbac.Vendors, rbac.Create), h.CreateVendorPayment)
		vendors.DELETE("/:id/payments/:paymentId", rbac.Require(rbac.Vendors, rbac.Delete), h.DeleteVendorPayment)
		vendors.GET("/:id/ledger", rbac.Require(rbac.Vendors, rbac.View), cached, h.VendorLedger)
		vendors.GET("/:id/ledger/export", rbac.Require(rbac.Vendors, rbac.View), h.ExportVendorLedger)

		employees := authed.Group("/employees")
		employees.GET("", rbac.Require(rbac.Employees, rbac.View), h.ListEmployees)
		employees.POST("", rbac.Require(rbac.Employees, rbac.Create), h.CreateEmployee)
		employees.GET("/:id", rbac.Require(rbac.Employees, rbac.View), h.GetEmployee)
		employees.PATCH("/:id", rbac.Require(rbac.Employees, rbac.Update), h.UpdateEmployee)
		employees.DELETE("/:id", rbac.Require(rbac.Employees, rbac.Delete), h.DeleteEmployee)
		employees.GET("/:id/attendance", rbac.Require(rbac.Employees, rbac.View), h.ListAttendance)
		employees.PUT("/:id/attendance", rbac.Require(rbac.Employees, rbac.Update), h.MarkAttendance)
		employees.GET("/:id/payments", rbac.Require(rbac.Employees, rbac.View), h.ListEmployeePayments)
		employees.POST("/:id/payments", rbac.Require(rbac.Employees, rbac.Create), h.CreateEmployeePayment)
		employees.DELETE("/:id/payments/:paymentId", rbac.Require(rbac.Employees, rbac.Delete), h.DeleteEmployeePayment)
		employees.GET("/:id/summary", rbac.Require(rbac.Employees, rbac.View), cached, h.EmployeeSummary)

		expenses := authed.Group("/expenses")
		expenses.GET("", rbac.Require(rbac.Expenses, rbac.View), h.ListExpenses)
		expenses.POST("", rbac.Require(rbac.Expenses, rbac.Create), h.CreateExpense)
		expenses.GET("/:id", rbac.Require(rbac.Expenses, rbac.View), h.GetExpense)
		expenses.PATCH("/:id", rbac.Require(rbac.Expenses, rbac.Update), h.UpdateExpense)
		expenses.DELETE("/:id", rbac.Require(rbac.Expenses, rbac.Delete), h.DeleteExpense)

		inv := authed.Group("/inventory")
		inv.GET("/categories", rbac.Require(rbac.Inventory, rbac.View), h.ListCategories)
		inv.POST("/categories", rbac.Require(rbac.Inventory, rbac.Create), h.CreateCategory)
		inv.GET("/categories/:id", rbac.Require(rbac.Inventory, rbac.View), h.GetCategory)
		inv.PATCH("/categories/:id", rbac.Require(rbac.Inventory, rbac.Update), h.UpdateCategory)
		inv.DELETE("/categories/:id", rbac.Require(rbac.Inventory, rbac.Delete), h.DeleteCategory)
		inv.GET("/items", rbac.Require(rbac.Inventory, rbac.View), h.ListItems)
		inv.POST("/items", rbac.Require(rbac.Inventory, rbac.Create), h.CreateItem)
		inv.GET("/items/:id", rbac.Require(rbac.Inventory, rbac.View), h.GetItem)
		inv.PATCH("/items/:id", rbac.Require(rbac.Inventory, rbac.Update), h.UpdateItem)
		inv.DELETE("/items/:id", rbac.Require(rbac.Inventory, rbac.Delete), h.DeleteItem)
		inv.POST("/items/:id/move", rbac.Require(rbac.Inventory, rbac.Update), h.MoveItem)
		inv.GET("/materials", rbac.Require(rbac.Inventory, rbac.View), h.ListMaterials)
		inv.POST("/materials", rbac.Require(rbac.Inventory, rbac.Create), h.CreateMaterial)
		inv.GET("/materials/:id", rbac.Require(rbac.Inventory, rbac.View), h.GetMaterial)
		inv.PATCH("/materials/:id", rbac.Require(rbac.Inventory, rbac.Update), h.UpdateMaterial)
		inv.DELETE("/materials/:id", rbac.Require(rbac.Inventory, rbac.Delete), h.DeleteMaterial)
		inv.GET("/materials/:id/movements", rbac.Require(rbac.Inventory, rbac.View), h.ListMovements)
		inv.POST("/materials/:id/movements", rbac.Require(rbac.Inventory, rbac.Update), h.CreateMovement)
		inv.DELETE("/materials/:id/movements/:movementId", rbac.Require(rbac.Inventory, rbac.Update), h.DeleteMovement)

		authed.GET("/reports/cash-expenses/:projectId", rbac.Require(rbac.Reports, rbac.View), cached, h.CashExpenses)

		authed.GET("/subscriptions", h.GetSubscription)
		authed.PUT("/subscriptions", h.PutSubscription)
		authed.DELETE("/subscriptions", h.DeleteSubscription)
		authed.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	return r
}
