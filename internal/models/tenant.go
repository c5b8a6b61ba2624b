package models

import (
	"time"
)

// Tenant is the isolation boundary owning domains, routes and inbound messages.
type Tenant struct {
	ID         uint64    `gorm:"primary_key;autoIncrement" json:"id"`
	Name       string    `gorm:"column:name;type:varchar(255);NOT NULL;uniqueIndex" json:"name"`
	APIKeyHash string    `gorm:"column:api_key_hash;type:varchar(64);NOT NULL" json:"-"`
	CreatedAt  time.Time `gorm:"column:created_at;type:timestamp;DEFAULT:current_timestamp" json:"createdAt"`
}

func (Tenant) TableName() string {
	return "tenants"
}
