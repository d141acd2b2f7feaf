package api

import (
	"github.com/SherClockHolmes/webpush-go"
	"github.com/sirupsen/logrus"

	"sitebooks-backend/internal/auth"
	"sitebooks-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	issuer  *auth.Issuer
	webpush *webpush.Options
	log     *logrus.Logger
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, issuer *auth.Issuer, webpushOptions *webpush.Options, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{
		store:   s,
		issuer:  issuer,
		webpush: webpushOptions,
		log:     log,
	}
}
