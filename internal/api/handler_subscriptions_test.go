package api

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitebooks-backend/internal/model"
)

func TestPutSubscriptionRequiresKeys(t *testing.T) {
	ts := newTestServer(t)
	token := ts.user(t, "admin", model.RoleAdmin, nil)

	w := ts.do(t, http.MethodPut, "/api/subscriptions", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPut, "/api/subscriptions", token, gin.H{"endpoint": "https://push.example/abc"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "p256dh")
}

func TestSubscriptionLifecycle(t *testing.T) {
	ts := newTestServer(t)
	token := ts.user(t, "admin", model.RoleAdmin, nil)
	project := ts.create(t, "/api/projects", token, gin.H{"name": "Tower A", "allocatedBudget": "1000"})
	endpoint := "https://push.example/send/a+b"

	w := ts.do(t, http.MethodPut, "/api/subscriptions", token, gin.H{
		"endpoint": endpoint, "p256dh": "key", "auth": "secret", "projectIds": []uint{project},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = ts.do(t, http.MethodGet, "/api/subscriptions?endpoint="+endpoint, token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, fmt.Sprintf(`{"projectIds":[%d]}`, project), w.Body.String())

	w = ts.do(t, http.MethodGet, "/api/subscriptions?endpoint="+url.QueryEscape(endpoint), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	other := ts.user(t, "other", model.RoleAdmin, nil)
	w = ts.do(t, http.MethodGet, "/api/subscriptions?endpoint="+endpoint, other, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodDelete, "/api/subscriptions", token, gin.H{"endpoint": endpoint})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = ts.do(t, http.MethodDelete, "/api/subscriptions", token, gin.H{"endpoint": endpoint})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVAPIDKeyUnconfigured(t *testing.T) {
	ts := newTestServer(t)
	token := ts.user(t, "admin", model.RoleAdmin, nil)

	w := ts.do(t, http.MethodGet, "/api/vapid_public_key", token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
