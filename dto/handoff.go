package dto

import (
	"github.com/customeros/mailgate/internal/enum"
)

// Handoff is the fire-and-forget payload given to the delivery subsystem after a message is stored.
type Handoff struct {
	Kind       enum.HandoffKind `json:"kind"`
	TenantID   uint64           `json:"tenantId"`
	MessageID  string           `json:"messageId"`
	RawMimeRef string           `json:"rawMimeRef"`
	Targets    []string         `json:"targets"`
	TraceID    string           `json:"traceId"`
}
