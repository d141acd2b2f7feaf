package model

import "time"

// PushSubscription holds the information for a browser push subscription.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey" json:"endpoint"`
	P256DH    string    `gorm:"column:p256dh;not null" json:"p256dh"`
	Auth      string    `gorm:"not null" json:"auth"`
	UserID    uint      `gorm:"index" json:"userId"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`

	// Associations
	Projects []*Project `gorm:"many2many:subscription_projects;" json:"-"`
}
