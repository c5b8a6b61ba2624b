package models

import (
	"time"
)

type Domain struct {
	ID        uint64    `gorm:"primary_key;autoIncrement" json:"id"`
	TenantID  uint64    `gorm:"column:tenant_id;NOT NULL;index" json:"tenantId"`
	Domain    string    `gorm:"column:domain;type:varchar(255);NOT NULL;uniqueIndex" json:"domain"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;DEFAULT:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;DEFAULT:current_timestamp" json:"updatedAt"`
}

func (Domain) TableName() string {
	return "domains"
}
