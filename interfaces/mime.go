package interfaces

import (
	"github.com/customeros/mailgate/dto"
)

// MimeExtractor turns raw MIME bytes into a normalized header map, bodies and attachment metadata.
// Implementations are chosen once at startup.
type MimeExtractor interface {
	Extract(raw []byte) (*dto.ParsedMime, error)
	Name() string
}
