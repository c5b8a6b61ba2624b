package dto

import "time"

// Envelope is the unified submission shape. It does not record which wire format carried it.
type Envelope struct {
	MailFrom    string
	Recipients  []string
	RawMime     []byte
	ReceivedAt  *time.Time
	AuthResults string
	SpamScore   *float64
	TLS         *bool
	// Ignored names optional fields that were present but unreadable.
	Ignored []string
}

// InboundEnvelopeRequest is the structured JSON submission body.
type InboundEnvelopeRequest struct {
	MailFrom    string   `json:"mail_from"`
	RcptTos     []string `json:"rcpt_tos"`
	MimeB64     string   `json:"mime_b64"`
	ReceivedAt  string   `json:"received_at,omitempty"`
	AuthResults string   `json:"auth_results,omitempty"`
	SpamScore   *float64 `json:"spam_score,omitempty"`
	TLS         *bool    `json:"tls,omitempty"`
}
