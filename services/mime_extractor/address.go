package mime_extractor

import (
	"net/mail"
	"strings"

	"github.com/customeros/mailsherpa/mailvalidate"
)

// FromAddress returns the bare sender address from the parsed from header, or "" when it cannot be parsed.
func FromAddress(headers map[string]string) string {
	return NormalizeAddress(headers["from"])
}

func NormalizeAddress(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	address := value
	if parsed, err := mail.ParseAddress(value); err == nil {
		address = parsed.Address
	} else if strings.Contains(value, "<") {
		return ""
	}

	validation := mailvalidate.ValidateEmailSyntax(address)
	if validation.IsValid {
		return strings.ToLower(validation.User + "@" + validation.Domain)
	}
	return address
}
