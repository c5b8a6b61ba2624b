package utils

import (
	"strings"
)

// ExtractDomainFromEmail returns the lower-cased part after the last '@', or "" when there is none.
func ExtractDomainFromEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return ""
	}

	// Handle potential angle brackets in email (e.g., "Name <email@domain.com>")
	if strings.Contains(email, "<") && strings.Contains(email, ">") {
		startIdx := strings.LastIndex(email, "<") + 1
		endIdx := strings.LastIndex(email, ">")
		if startIdx > 0 && endIdx > startIdx {
			email = email[startIdx:endIdx]
		}
	}

	at := strings.LastIndex(email, "@")
	if at < 0 {
		return ""
	}

	return strings.ToLower(strings.TrimSpace(email[at+1:]))
}
