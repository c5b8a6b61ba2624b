package messages

import (
	"strings"
	"time"

	"github.com/customeros/mailgate/internal/models"
)

const (
	DefaultPerPage = 25
	MaxPerPage     = 100
)

// ListFilter narrows a tenant's messages. Nil and empty fields do not filter.
type ListFilter struct {
	Query        string
	DomainID     *uint64
	SpamMin      *float64
	SpamMax      *float64
	ReceivedFrom *time.Time
	ReceivedTo   *time.Time
	DKIM         string
	DMARC        string
	ARC          string
	Page         int
	PerPage      int
}

func (f ListFilter) normalized() ListFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = DefaultPerPage
	}
	if f.PerPage > MaxPerPage {
		f.PerPage = MaxPerPage
	}
	f.Query = strings.ToLower(strings.TrimSpace(f.Query))
	return f
}

// Matches reports whether m passes every set filter. A spam bound excludes messages without a score.
func (f ListFilter) Matches(m *models.InboundMessage) bool {
	if f.Query != "" {
		if !strings.Contains(strings.ToLower(m.Subject), f.Query) &&
			!strings.Contains(strings.ToLower(m.FromEmail), f.Query) &&
			!strings.Contains(strings.ToLower(m.RawMimeRef), f.Query) {
			return false
		}
	}
	if f.DomainID != nil && m.DomainID != *f.DomainID {
		return false
	}
	if f.SpamMin != nil && (m.SpamScore == nil || *m.SpamScore < *f.SpamMin) {
		return false
	}
	if f.SpamMax != nil && (m.SpamScore == nil || *m.SpamScore > *f.SpamMax) {
		return false
	}
	if f.ReceivedFrom != nil && m.ReceivedAt.Before(*f.ReceivedFrom) {
		return false
	}
	if f.ReceivedTo != nil && m.ReceivedAt.After(*f.ReceivedTo) {
		return false
	}
	return verdictMatches(f.DKIM, m.DKIMResult) &&
		verdictMatches(f.DMARC, m.DMARCResult) &&
		verdictMatches(f.ARC, m.ARCResult)
}

func verdictMatches(want string, got *string) bool {
	if want == "" {
		return true
	}
	return got != nil && strings.EqualFold(*got, want)
}
