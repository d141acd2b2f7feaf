package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/api/projects/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	router.GET("/metrics", m.Handler())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/projects/4", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/projects/:id", "204")))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sitebooks_http_requests_total")
}

func TestCounters(t *testing.T) {
	m := New()
	m.LedgerMutation("contractor", "create_payment")
	m.LedgerMutation("contractor", "create_payment")
	m.BudgetAlert("sent")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.ledgerMutations.WithLabelValues("contractor", "create_payment")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.budgetAlerts.WithLabelValues("sent")))

	var nilMetrics *Metrics
	nilMetrics.LedgerMutation("vendor", "create_bill")
}
