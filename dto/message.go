package dto

import (
	"time"

	"github.com/customeros/mailgate/internal/models"
)

type MessageSummary struct {
	ID         string    `json:"id"`
	TenantID   uint64    `json:"tenantId"`
	DomainID   uint64    `json:"domainId"`
	From       string    `json:"from"`
	Subject    string    `json:"subject"`
	Recipients []string  `json:"recipients"`
	RawMimeRef string    `json:"rawMimeRef"`
	Size       int       `json:"size"`
	SpamScore  *float64  `json:"spamScore"`
	DKIM       *string   `json:"dkim"`
	DMARC      *string   `json:"dmarc"`
	ARC        *string   `json:"arc"`
	TLS        *bool     `json:"tls"`
	ReceivedAt time.Time `json:"receivedAt"`
}

func NewMessageSummary(m *models.InboundMessage) MessageSummary {
	recipients := []string(m.Recipients)
	if recipients == nil {
		recipients = []string{}
	}
	return MessageSummary{
		ID:         m.ID,
		TenantID:   m.TenantID,
		DomainID:   m.DomainID,
		From:       m.FromEmail,
		Subject:    m.Subject,
		Recipients: recipients,
		RawMimeRef: m.RawMimeRef,
		Size:       m.RawSize,
		SpamScore:  m.SpamScore,
		DKIM:       m.DKIMResult,
		DMARC:      m.DMARCResult,
		ARC:        m.ARCResult,
		TLS:        m.TLS,
		ReceivedAt: m.ReceivedAt.UTC(),
	}
}

type MessageBody struct {
	Text string `json:"text"`
	HTML string `json:"html"`
}

type MessageDetail struct {
	MessageSummary
	Headers     map[string]string `json:"headers"`
	Body        MessageBody       `json:"body"`
	Snippet     string            `json:"snippet"`
	Attachments []Attachment      `json:"attachments"`
}

type PageMeta struct {
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type MessagePage struct {
	Meta  PageMeta         `json:"meta"`
	Items []MessageSummary `json:"items"`
}

type RawMessage struct {
	Filename string `json:"filename"`
	MimeB64  string `json:"mime_b64"`
}

type InboundResponse struct {
	Item            MessageSummary `json:"item"`
	MatchedRouteIDs []uint64       `json:"matchedRouteIds"`
	TraceID         string         `json:"traceId"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"traceId"`
}
