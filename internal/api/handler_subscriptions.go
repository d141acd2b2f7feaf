package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"sitebooks-backend/internal/apperr"
	"sitebooks-backend/internal/model"
)

type putSubscriptionRequest struct {
	Endpoint   string `json:"endpoint" binding:"required"`
	P256DH     string `json:"p256dh" binding:"required"`
	Auth       string `json:"auth" binding:"required"`
	ProjectIDs []uint `json:"projectIds"`
}

// PutSubscription creates or replaces the caller's push subscription and the projects
// it watches for budget alerts.
func (h *Handler) PutSubscription(c *gin.Context) {
	var req putSubscriptionRequest
	if err := bind(c, &req); err != nil {
		h.respondError(c, err)
		return
	}

	sub := model.PushSubscription{
		Endpoint: req.Endpoint,
		P256DH:   req.P256DH,
		Auth:     req.Auth,
		UserID:   actor(c).UserID,
	}
	if err := h.store.PutSubscription(c.Request.Context(), scopeOf(c), sub, req.ProjectIDs); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

type deleteSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

func (h *Handler) DeleteSubscription(c *gin.Context) {
	var req deleteSubscriptionRequest
	if err := bind(c, &req); err != nil {
		h.respondError(c, err)
		return
	}
	noContent(h, c, h.store.DeleteSubscription(c.Request.Context(), req.Endpoint))
}

// rawQueryParam reads key from the raw query. Push endpoints are URLs themselves and
// browsers send them unescaped, so a plain "+" must survive.
func rawQueryParam(rawQuery, key string) (string, bool) {
	for _, kv := range strings.Split(rawQuery, "&") {
		if strings.HasPrefix(kv, key+"=") {
			v := kv[len(key)+1:]
			if strings.Contains(v, "%") {
				if unescaped, err := url.PathUnescape(v); err == nil {
					return unescaped, true
				}
			}
			return v, true
		}
	}
	return "", false
}

func (h *Handler) GetSubscription(c *gin.Context) {
	raw, ok := rawQueryParam(c.Request.URL.RawQuery, "endpoint")
	if !ok || raw == "" {
		h.respondError(c, apperr.Fields(map[string]string{"endpoint": "is required"}))
		return
	}

	sub, projectIDs, err := h.store.GetSubscription(c.Request.Context(), raw)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if sub.UserID != actor(c).UserID {
		h.respondError(c, apperr.NotFound("subscription"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"projectIds": projectIDs})
}
