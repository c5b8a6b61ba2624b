package models

import (
	"time"

	"github.com/customeros/mailgate/internal/enum"
)

// Route is a tenant rule deciding store/forward/stop for matching inbound messages.
// Destination stays raw here; the routing service decodes it per action when rules are loaded.
type Route struct {
	ID            uint64           `gorm:"primary_key;autoIncrement" json:"id"`
	TenantID      uint64           `gorm:"column:tenant_id;NOT NULL;index" json:"tenantId"`
	DomainID      *uint64          `gorm:"column:domain_id;index" json:"domainId"`
	Pattern       string           `gorm:"column:pattern;type:varchar(1000)" json:"pattern"`
	Action        enum.RouteAction `gorm:"column:action;type:varchar(16);NOT NULL" json:"action"`
	Destination   JSONMap          `gorm:"column:destination;type:jsonb" json:"destination"`
	DKIMRequired  bool             `gorm:"column:dkim_required;NOT NULL;DEFAULT:false" json:"dkimRequired"`
	TLSRequired   bool             `gorm:"column:tls_required;NOT NULL;DEFAULT:false" json:"tlsRequired"`
	SpamThreshold *float64         `gorm:"column:spam_threshold" json:"spamThreshold"`
	CreatedAt     time.Time        `gorm:"column:created_at;type:timestamp;DEFAULT:current_timestamp" json:"createdAt"`
}

func (Route) TableName() string {
	return "routes"
}
