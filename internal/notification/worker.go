package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"sitebooks-backend/internal/metrics"
	"sitebooks-backend/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Alert is the push payload of a budget alert.
type Alert struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	ProjectID uint   `json:"projectId"`
}

// WorkerPool sends budget alerts for projects whose spending passed their budget.
type WorkerPool struct {
	size    int
	jobs    chan uint
	db      *gorm.DB
	webpush *webpush.Options
	sender  NotificationSender
	log     *logrus.Logger
	metrics *metrics.Metrics
}

// NewWorkerPool creates a new worker pool. queueSize bounds the pending alerts.
func NewWorkerPool(size, queueSize int, db *gorm.DB, webpushOptions *webpush.Options, log *logrus.Logger, m *metrics.Metrics) *WorkerPool {
	if queueSize < size {
		queueSize = size
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan uint, queueSize),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
		log:     log,
		metrics: m,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log := wp.log.WithField("worker", id)
	log.Debug("budget alert worker started")
	for {
		select {
		case projectID := <-wp.jobs:
			wp.alertProject(ctx, projectID)
		case <-ctx.Done():
			log.Debug("budget alert worker shutting down")
			return
		}
	}
}

// Dispatch queues an alert for projectID. It never blocks: when the queue is full
// the alert is dropped.
func (wp *WorkerPool) Dispatch(projectID uint) {
	select {
	case wp.jobs <- projectID:
	default:
		wp.log.WithField("project_id", projectID).Warn("budget alert queue full, dropping alert")
		wp.metrics.BudgetAlert("dropped")
	}
}

// alertProject notifies every subscription watching the project.
func (wp *WorkerPool) alertProject(ctx context.Context, projectID uint) {
	log := wp.log.WithField("project_id", projectID)

	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Joins("JOIN subscription_projects sp ON sp.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("sp.project_id = ?", projectID).
		Find(&subscriptions).Error
	if err != nil {
		log.WithError(err).Error("load subscriptions for budget alert")
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	var project model.Project
	if err := wp.db.WithContext(ctx).
		Select("id", "name", "allocated_budget", "spent").
		First(&project, projectID).Error; err != nil {
		log.WithError(err).Error("load project for budget alert")
		return
	}

	payload, err := json.Marshal(Alert{
		Title:     "Budget exceeded",
		Body:      fmt.Sprintf("%s has spent %s against a budget of %s", project.Name, project.Spent.StringFixed(2), project.AllocatedBudget.StringFixed(2)),
		ProjectID: projectID,
	})
	if err != nil {
		log.WithError(err).Error("encode budget alert")
		return
	}

	log.WithField("subscriptions", len(subscriptions)).Info("sending budget alerts")
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}
	log := wp.log.WithField("endpoint", sub.Endpoint)

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.WithError(err).Warn("send budget alert")
		wp.metrics.BudgetAlert("failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusGone {
		wp.metrics.BudgetAlert("sent")
		return
	}

	wp.metrics.BudgetAlert("expired")
	log.Info("subscription expired, deleting")
	err = wp.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM subscription_projects WHERE push_subscription_endpoint = ?", sub.Endpoint).Error; err != nil {
			return err
		}
		return tx.Delete(&sub).Error
	})
	if err != nil {
		log.WithError(err).Error("delete expired subscription")
	}
}
