package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sitebooks-backend/internal/apperr"
	"sitebooks-backend/internal/model"
	"sitebooks-backend/internal/rbac"
)

// SubscriptionStore manages browser push subscriptions for budget alerts.
type SubscriptionStore interface {
	PutSubscription(ctx context.Context, scope rbac.Scope, sub model.PushSubscription, projectIDs []uint) error
	GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, []uint, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
	SubscriptionsForProject(ctx context.Context, projectID uint) ([]model.PushSubscription, error)
}

// PutSubscription creates or replaces a subscription and the projects it watches.
// Projects outside scope are dropped.
func (s *gormStore) PutSubscription(ctx context.Context, scope rbac.Scope, sub model.PushSubscription, projectIDs []uint) error {
	if sub.Endpoint == "" {
		return apperr.Fields(map[string]string{"endpoint": "is required"})
	}
	visible := make([]uint, 0, len(projectIDs))
	for _, id := range projectIDs {
		if scope.Allows(id) {
			visible = append(visible, id)
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth", "user_id"}),
		}).Create(&sub).Error; err != nil {
			return fmt.Errorf("save subscription: %w", err)
		}

		var projects []model.Project
		if len(visible) > 0 {
			if err := tx.Find(&projects, visible).Error; err != nil {
				return fmt.Errorf("load projects: %w", err)
			}
		}
		if err := tx.Model(&sub).Association("Projects").Replace(&projects); err != nil {
			return fmt.Errorf("replace subscribed projects: %w", err)
		}
		return nil
	})
}

// GetSubscription returns a subscription with the ids of the projects it watches.
func (s *gormStore) GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, []uint, error) {
	var sub model.PushSubscription
	err := s.db.WithContext(ctx).Preload("Projects").First(&sub, "endpoint = ?", endpoint).Error
	if err != nil {
		return nil, nil, notFound(err, "subscription")
	}
	ids := make([]uint, len(sub.Projects))
	for i, p := range sub.Projects {
		ids[i] = p.ID
	}
	return &sub, ids, nil
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub := model.PushSubscription{Endpoint: endpoint}
		if err := tx.Model(&sub).Association("Projects").Clear(); err != nil {
			return fmt.Errorf("clear subscribed projects: %w", err)
		}
		res := tx.Delete(&sub)
		if res.Error != nil {
			return fmt.Errorf("delete subscription: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("subscription")
		}
		return nil
	})
}

// SubscriptionsForProject returns the subscriptions watching a project.
func (s *gormStore) SubscriptionsForProject(ctx context.Context, projectID uint) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	err := s.db.WithContext(ctx).
		Joins("JOIN subscription_projects sp ON sp.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("sp.project_id = ?", projectID).
		Find(&subs).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load subscriptions of project %d: %w", projectID, err)
	}
	return subs, nil
}
