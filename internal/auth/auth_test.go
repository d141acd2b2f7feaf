package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitebooks-backend/internal/apperr"
	"sitebooks-backend/internal/model"
)

func TestIssuer_RoundTrip(t *testing.T) {
	issuer, err := NewIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	project := uint(7)
	token, expires, err := issuer.Issue(model.User{ID: 3, Role: model.RoleSiteManager, AssignedProjectID: &project})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, uint(3), claims.UserID)
	assert.Equal(t, model.RoleSiteManager, claims.Role)
	require.NotNil(t, claims.ProjectID)
	assert.Equal(t, uint(7), *claims.ProjectID)
}

func TestIssuer_Rejects(t *testing.T) {
	issuer, err := NewIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	other, err := NewIssuer("other-secret", time.Hour)
	require.NoError(t, err)

	foreign, _, err := other.Issue(model.User{ID: 1, Role: model.RoleAdmin})
	require.NoError(t, err)

	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, _, err := issuer.Issue(model.User{ID: 1, Role: model.RoleAdmin})
	require.NoError(t, err)
	issuer.now = time.Now

	testCases := []struct {
		name  string
		token string
	}{
		{name: "Garbage", token: "not-a-token"},
		{name: "Wrong secret", token: foreign},
		{name: "Expired", token: stale},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := issuer.Verify(tc.token)
			assert.True(t, apperr.Is(err, apperr.KindUnauthorized), "got %v", err)
		})
	}
}

func TestNewIssuer_EmptySecret(t *testing.T) {
	_, err := NewIssuer("", time.Hour)
	assert.Error(t, err)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	assert.NoError(t, CheckPassword(hash, "correct horse"))
	assert.True(t, apperr.Is(CheckPassword(hash, "wrong horse"), apperr.KindUnauthorized))

	_, err = HashPassword("short")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestAuthenticate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	issuer, err := NewIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	token, _, err := issuer.Issue(model.User{ID: 9, Role: model.RoleAdmin})
	require.NoError(t, err)

	router := gin.New()
	router.GET("/me", Authenticate(issuer, nil), func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": actor.UserID, "role": actor.Role})
	})

	testCases := []struct {
		name   string
		header string
		status int
	}{
		{name: "No header", status: http.StatusUnauthorized},
		{name: "Wrong scheme", header: "Basic abc", status: http.StatusUnauthorized},
		{name: "Bad token", header: "Bearer abc", status: http.StatusUnauthorized},
		{name: "Valid", header: "Bearer " + token, status: http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.JSONEq(t, `{"id":9,"role":"admin"}`, w.Body.String())
			}
		})
	}
}

type accountsStub map[uint]model.User

func (a accountsStub) ActiveUser(_ context.Context, id uint) (*model.User, error) {
	u, ok := a[id]
	if !ok {
		return nil, apperr.Unauthorized("account no longer exists")
	}
	if !u.IsActive {
		return nil, apperr.Unauthorized("account is disabled")
	}
	return &u, nil
}

func TestAuthenticate_UsesStoredAccount(t *testing.T) {
	gin.SetMode(gin.TestMode)
	issuer, err := NewIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	project := uint(4)
	accounts := accountsStub{
		1: {ID: 1, Role: model.RoleSiteManager, AssignedProjectID: &project, IsActive: true},
		2: {ID: 2, Role: model.RoleAdmin, IsActive: false},
	}

	router := gin.New()
	router.GET("/me", Authenticate(issuer, accounts), func(c *gin.Context) {
		actor, _ := ActorFrom(c)
		c.JSON(http.StatusOK, gin.H{"role": actor.Role, "projectId": actor.ProjectID})
	})

	testCases := []struct {
		name   string
		user   model.User
		status int
		body   string
	}{
		{name: "Demoted since issue", user: model.User{ID: 1, Role: model.RoleAdmin}, status: http.StatusOK, body: `{"role":"site_manager","projectId":4}`},
		{name: "Disabled", user: model.User{ID: 2, Role: model.RoleAdmin}, status: http.StatusUnauthorized},
		{name: "Deleted", user: model.User{ID: 3, Role: model.RoleSuperAdmin}, status: http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			token, _, err := issuer.Issue(tc.user)
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			if tc.body != "" {
				assert.JSONEq(t, tc.body, w.Body.String())
			}
		})
	}
}
