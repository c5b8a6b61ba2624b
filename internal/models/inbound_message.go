package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/customeros/mailgate/internal/utils"
)

// InboundMessage is the insert-only record of an accepted message. Bodies and attachments
// live only in the raw artifact referenced by RawMimeRef.
type InboundMessage struct {
	ID              string         `gorm:"column:id;type:varchar(50);primaryKey"`
	TenantID        uint64         `gorm:"column:tenant_id;NOT NULL;index"`
	DomainID        uint64         `gorm:"column:domain_id;NOT NULL;index"`
	FromEmail       string         `gorm:"column:from_email;type:varchar(255);index"`
	Subject         string         `gorm:"column:subject;type:varchar(1000)"`
	Recipients      pq.StringArray `gorm:"column:recipients;type:text[]"`
	RawMimeRef      string         `gorm:"column:raw_mime_ref;type:varchar(1000);NOT NULL"`
	RawSize         int            `gorm:"column:raw_size;default:0"`
	SpamScore       *float64       `gorm:"column:spam_score"`
	DKIMResult      *string        `gorm:"column:dkim_result;type:varchar(16)"`
	DMARCResult     *string        `gorm:"column:dmarc_result;type:varchar(16)"`
	ARCResult       *string        `gorm:"column:arc_result;type:varchar(16)"`
	TLS             *bool          `gorm:"column:tls"`
	MatchedRouteIDs pq.StringArray `gorm:"column:matched_route_ids;type:text[]"`
	ReceivedAt      time.Time      `gorm:"column:received_at;type:timestamp;NOT NULL;index"`
	CreatedAt       time.Time      `gorm:"column:created_at;type:timestamp;default:current_timestamp"`
}

func (InboundMessage) TableName() string {
	return "inbound_messages"
}

func (m *InboundMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = utils.GenerateNanoIDWithPrefix("msg", 20)
	}
	m.CreatedAt = utils.Now()
	return nil
}
