package testutil

import (
	"strings"

	"github.com/customeros/mailgate/internal/enum"
	"github.com/customeros/mailgate/internal/models"
)

const (
	TenantID     uint64 = 1
	TenantName          = "acme"
	TenantAPIKey        = "acme-api-key"
	DomainID     uint64 = 10
	DomainName          = "acme.example"
)

// RawMime builds a small single-part text message with CRLF line endings.
func RawMime(from, to, subject, body string) []byte {
	return []byte(strings.Join([]string{
		"From: " + from,
		"To: " + to,
		"Subject: " + subject,
		"Authentication-Results: mx.acme.example; dkim=pass header.d=sender.example; dmarc=fail; arc=none",
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
		"",
	}, "\r\n"))
}

// SeedTenant registers the acme tenant and its single receiving domain.
func SeedTenant(s *Store, apiKeyHash string) {
	s.AddTenant(models.Tenant{ID: TenantID, Name: TenantName, APIKeyHash: apiKeyHash})
	s.AddDomain(models.Domain{ID: DomainID, TenantID: TenantID, Domain: DomainName})
}

func StoreRoute(id uint64, pattern string, notify ...string) models.Route {
	destination := models.JSONMap{}
	if len(notify) > 0 {
		targets := make([]interface{}, 0, len(notify))
		for _, n := range notify {
			targets = append(targets, n)
		}
		destination["notify"] = targets
	}
	return models.Route{ID: id, TenantID: TenantID, Pattern: pattern, Action: enum.RouteActionStore, Destination: destination}
}

func ForwardRoute(id uint64, pattern string, forward ...string) models.Route {
	targets := make([]interface{}, 0, len(forward))
	for _, f := range forward {
		targets = append(targets, f)
	}
	return models.Route{ID: id, TenantID: TenantID, Pattern: pattern, Action: enum.RouteActionForward,
		Destination: models.JSONMap{"forward": targets}}
}
