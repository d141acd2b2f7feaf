package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sitebooks-backend/config"
	"sitebooks-backend/internal/auth"
	"sitebooks-backend/internal/model"
	"sitebooks-backend/internal/rbac"
	"sitebooks-backend/internal/store"
)

type testServer struct {
	router *gin.Engine
	store  store.Store
	issuer *auth.Issuer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:api_%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(model.All()...))

	log := logrus.New()
	log.SetOutput(io.Discard)
	s := store.NewGormStore(db, store.Options{Logger: log})
	issuer, err := auth.NewIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	r := NewRouter(Deps{
		Store:  s,
		Issuer: issuer,
		Log:    log,
		Server: config.ServerConfig{CacheTTLSeconds: 60, LoginRatePerSec: 100, LoginBurst: 100},
	})
	return &testServer{router: r, store: s, issuer: issuer}
}

// user creates an account and returns a bearer token for it.
func (ts *testServer) user(t *testing.T, username string, role model.Role, projectID *uint) string {
	t.Helper()
	u, err := ts.store.CreateUser(context.Background(), rbac.Unrestricted(), store.UserInput{
		Username: username, Name: username, Password: "secret-pass", Role: role, AssignedProjectID: projectID,
	})
	require.NoError(t, err)
	token, _, err := ts.issuer.Issue(*u)
	require.NoError(t, err)
	return token
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type created struct {
	ID uint `json:"id"`
}

func (ts *testServer) create(t *testing.T, path, token string, body any) uint {
	t.Helper()
	w := ts.do(t, http.MethodPost, path, token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[created](t, w).ID
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)
	ts.user(t, "asha", model.RoleAdmin, nil)

	w := ts.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": "asha", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"invalid username or password"}`, w.Body.String())

	w = ts.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": "ASHA", "password": "secret-pass"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	login := decode[struct {
		Token string     `json:"token"`
		User  model.User `json:"user"`
	}](t, w)
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, model.RoleAdmin, login.User.Role)
	assert.NotContains(t, w.Body.String(), "secret-pass")

	w = ts.do(t, http.MethodGet, "/api/auth/me", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "asha", decode[model.User](t, w).Username)
}

func TestRequestsWithoutTokenAreRejected(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/projects", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodGet, "/api/projects", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoleChangesApplyToIssuedTokens(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.user(t, "admin", model.RoleSuperAdmin, nil)
	project := ts.create(t, "/api/projects", admin, gin.H{"name": "Tower A", "allocatedBudget": "100000"})

	token := ts.user(t, "meera", model.RoleAdmin, nil)
	w := ts.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	id := decode[model.User](t, w).ID

	w = ts.do(t, http.MethodGet, "/api/vendors", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	_, err := ts.store.UpdateUser(context.Background(), rbac.Unrestricted(), id, func(in *store.UserInput) error {
		in.Role = model.RoleSiteManager
		in.AssignedProjectID = &project
		return nil
	})
	require.NoError(t, err)

	w = ts.do(t, http.MethodGet, "/api/vendors", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	require.NoError(t, ts.store.DeleteUser(context.Background(), rbac.Unrestricted(), id))
	w = ts.do(t, http.MethodGet, "/api/projects", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginValidation(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": "asha"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[struct {
		Details map[string]string `json:"details"`
	}](t, w)
	assert.Equal(t, "is required", body.Details["password"])
}

func TestSiteManagerIsConfinedToItsProject(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.user(t, "admin", model.RoleAdmin, nil)

	own := ts.create(t, "/api/projects", admin, gin.H{"name": "Tower A", "allocatedBudget": "100000"})
	other := ts.create(t, "/api/projects", admin, gin.H{"name": "Tower B", "allocatedBudget": "50000"})
	otherContractor := ts.create(t, "/api/contractors", admin, gin.H{"projectId": other, "name": "Ravi Masonry"})

	manager := ts.user(t, "site", model.RoleSiteManager, &own)

	w := ts.do(t, http.MethodGet, "/api/vendors", manager, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(t, http.MethodGet, "/api/projects", manager, nil)
	require.Equal(t, http.StatusOK, w.Code)
	projects := decode[[]model.Project](t, w)
	require.Len(t, projects, 1)
	assert.Equal(t, own, projects[0].ID)

	w = ts.do(t, http.MethodGet, fmt.Sprintf("/api/contractors/%d", otherContractor), manager, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Contractors created without a project land in the manager's own.
	id := ts.create(t, "/api/contractors", manager, gin.H{"name": "Sunil Electricals"})
	w = ts.do(t, http.MethodGet, fmt.Sprintf("/api/contractors/%d", id), manager, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, own, decode[model.Contractor](t, w).ProjectID)
}

func TestContractorSettlementFlow(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.user(t, "admin", model.RoleSuperAdmin, nil)

	project := ts.create(t, "/api/projects", admin, gin.H{"name": "Tower A", "allocatedBudget": "100000"})
	contractor := ts.create(t, "/api/contractors", admin, gin.H{"projectId": project, "name": "Ravi Masonry"})
	base := fmt.Sprintf("/api/contractors/%d", contractor)

	entry := ts.create(t, base+"/entries", admin, gin.H{"date": "2024-01-10", "amount": "1000", "description": "Brickwork"})
	payment := ts.create(t, base+"/payments", admin, gin.H{"date": "2024-01-12", "amount": "600"})
	ts.create(t, base+"/allocations", admin, gin.H{"paymentId": payment, "entryId": entry, "amount": "600"})

	w := ts.do(t, http.MethodPost, base+"/allocations", admin, gin.H{"paymentId": payment, "entryId": entry, "amount": "1"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "payment is fully allocated")

	w = ts.do(t, http.MethodGet, base+"/ledger", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	report := decode[struct {
		Name   string `json:"name"`
		Totals struct {
			Outstanding decimal.Decimal `json:"outstanding"`
			TotalPaid   decimal.Decimal `json:"totalPaid"`
		} `json:"totals"`
		Lines []json.RawMessage `json:"lines"`
	}](t, w)
	assert.Equal(t, "Ravi Masonry", report.Name)
	assert.True(t, decimal.NewFromInt(400).Equal(report.Totals.Outstanding), report.Totals.Outstanding.String())
	assert.True(t, decimal.NewFromInt(600).Equal(report.Totals.TotalPaid), report.Totals.TotalPaid.String())
	assert.Len(t, report.Lines, 2)

	w = ts.do(t, http.MethodGet, base+"/ledger/export", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "contractors-")
	assert.NotEmpty(t, w.Body.Bytes())

	w = ts.do(t, http.MethodDelete, base, admin, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestReportsAreCachedUntilAWrite(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.user(t, "admin", model.RoleAdmin, nil)
	project := ts.create(t, "/api/projects", admin, gin.H{"name": "Tower A", "allocatedBudget": "10000"})
	path := fmt.Sprintf("/api/projects/%d/ledger", project)

	w := ts.do(t, http.MethodGet, path, admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-Cache"))

	w = ts.do(t, http.MethodGet, path, admin, nil)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))

	ts.create(t, "/api/expenses", admin, gin.H{"projectId": project, "date": "2024-03-01", "category": "Cement", "amount": "2500"})

	w = ts.do(t, http.MethodGet, path, admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-Cache"))
	assert.Contains(t, w.Body.String(), "Cement")
}

func TestCashExpensesRequiresDate(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.user(t, "admin", model.RoleAdmin, nil)
	project := ts.create(t, "/api/projects", admin, gin.H{"name": "Tower A"})

	w := ts.do(t, http.MethodGet, fmt.Sprintf("/api/reports/cash-expenses/%d", project), admin, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid input","details":{"date":"is required"}}`, w.Body.String())

	w = ts.do(t, http.MethodGet, fmt.Sprintf("/api/reports/cash-expenses/%d?date=2024-13-01", project), admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	ts.create(t, "/api/expenses", admin, gin.H{"projectId": project, "date": "2024-03-01", "category": "Cement", "amount": "2500"})
	w = ts.do(t, http.MethodGet, fmt.Sprintf("/api/reports/cash-expenses/%d?date=2024-03-01", project), admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Cement")
}

func TestDuplicateCategoryName(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.user(t, "admin", model.RoleAdmin, nil)

	ts.create(t, "/api/inventory/categories", admin, gin.H{"name": "Scaffolding"})
	w := ts.do(t, http.MethodPost, "/api/inventory/categories", admin, gin.H{"name": " scaffolding "})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"name"`)
}

func TestCreateThenGet(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.user(t, "admin", model.RoleAdmin, nil)

	id := ts.create(t, "/api/vendors", admin, gin.H{"name": "Shree Cement Traders", "gstNumber": "27ABCDE1234F1Z5"})
	w := ts.do(t, http.MethodGet, fmt.Sprintf("/api/vendors/%d", id), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	v := decode[model.Vendor](t, w)
	assert.Equal(t, "Shree Cement Traders", v.Name)
	assert.Equal(t, "27ABCDE1234F1Z5", v.GSTNumber)

	w = ts.do(t, http.MethodPatch, fmt.Sprintf("/api/vendors/%d", id), admin, gin.H{"phone": "9800000000"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	v = decode[model.Vendor](t, w)
	assert.Equal(t, "Shree Cement Traders", v.Name, "unset fields keep their values")
	assert.Equal(t, "9800000000", v.Phone)

	w = ts.do(t, http.MethodGet, "/api/vendors/999", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = ts.do(t, http.MethodGet, "/api/vendors/abc", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
