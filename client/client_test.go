package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sitebooks-backend/config"
	"sitebooks-backend/internal/api"
	"sitebooks-backend/internal/auth"
	"sitebooks-backend/internal/logging"
	"sitebooks-backend/internal/model"
	"sitebooks-backend/internal/rbac"
	"sitebooks-backend/internal/store"
)

// newServer runs the real API over an in-memory database with one admin account.
func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:client_%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(model.All()...))

	s := store.NewGormStore(db, store.Options{Logger: logging.Discard()})
	_, err = s.CreateUser(context.Background(), rbac.Unrestricted(), store.UserInput{
		Username: "admin", Password: "admin-pass", Role: model.RoleAdmin,
	})
	require.NoError(t, err)

	issuer, err := auth.NewIssuer("client-test-secret", time.Hour)
	require.NoError(t, err)
	srv := httptest.NewServer(api.NewRouter(api.Deps{
		Store: s, Issuer: issuer, Log: logging.Discard(),
		Server: config.ServerConfig{LoginRatePerSec: 50, LoginBurst: 50},
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestContractorLedgerThroughClient(t *testing.T) {
	srv := newServer(t)
	c := New(srv.URL + "/")
	ctx := context.Background()

	_, err := c.Projects(ctx)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))

	session, err := c.Login(ctx, "admin", "admin-pass")
	require.NoError(t, err)
	assert.Equal(t, session.Token, c.Token())
	assert.Equal(t, model.RoleAdmin, session.User.Role)

	project, err := c.CreateProject(ctx, store.ProjectInput{Name: "Tower A", AllocatedBudget: decimal.NewFromInt(100000)})
	require.NoError(t, err)
	contractor, err := c.CreateContractor(ctx, store.ContractorInput{ProjectID: project.ID, Name: "Ravi Masonry"})
	require.NoError(t, err)

	entry, err := c.CreateContractorEntry(ctx, contractor.ID, store.EntryInput{
		Date: model.MustDate("2024-01-10"), Amount: decimal.NewFromInt(1000), Description: "Brickwork",
	})
	require.NoError(t, err)
	payment, err := c.CreateContractorPayment(ctx, contractor.ID, store.PaymentInput{
		Date: model.MustDate("2024-01-12"), Amount: decimal.NewFromInt(600),
	})
	require.NoError(t, err)
	_, err = c.AllocateContractorPayment(ctx, contractor.ID, store.AllocationInput{
		PaymentID: payment.ID, EntryID: entry.ID, Amount: decimal.NewFromInt(600),
	})
	require.NoError(t, err)

	book, err := c.ContractorLedger(ctx, contractor.ID, "", "")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(400).Equal(book.Totals.Outstanding))
	require.Len(t, book.Entries, 1)
	assert.False(t, book.Entries[0].Settled)

	contractors, err := c.Contractors(ctx, project.ID)
	require.NoError(t, err)
	assert.Len(t, contractors, 1)

	report, err := c.ProjectLedger(ctx, project.ID, "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.Equal(t, "Tower A", report.Project.Name)

	_, err = c.CashExpenses(ctx, project.ID, "")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "is required", apiErr.Details["date"])
}

func TestAPIErrorWithoutEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Me(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "Bad Gateway", apiErr.Message)
}

func TestQueryKeepsDataOnFailedRefetch(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) > 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"database unavailable"}`))
			return
		}
		w.Write([]byte(`[{"id":1,"name":"Tower A"}]`))
	}))
	defer srv.Close()

	c := New(srv.URL, WithToken("token"))
	q := NewQuery(c.Projects)

	_, ok := q.Data()
	assert.False(t, ok)

	require.NoError(t, q.Refetch(context.Background()))
	projects, ok := q.Data()
	require.True(t, ok)
	require.Len(t, projects, 1)
	assert.False(t, q.Loading())

	err := q.Refetch(context.Background())
	assert.True(t, IsStatus(err, http.StatusServiceUnavailable))
	assert.Equal(t, err, q.Err())
	projects, ok = q.Data()
	assert.True(t, ok)
	assert.Equal(t, "Tower A", projects[0].Name)
}
