package mime_extractor

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/customeros/mailgate/interfaces"
)

const (
	KindEnmime = "enmime"
	KindBasic  = "basic"
)

const receivedHeader = "received"

// ErrUnparseable is returned instead of the parser's own error, which can quote message content.
var ErrUnparseable = errors.New("mime could not be parsed")

// NewExtractor picks the implementation once, at wiring time.
func NewExtractor(kind string) (interfaces.MimeExtractor, error) {
	switch kind {
	case KindEnmime, "":
		return NewEnmimeExtractor(), nil
	case KindBasic:
		return NewBasicExtractor(), nil
	default:
		return nil, errors.Errorf("unknown mime extractor %q", kind)
	}
}

// headerCollector builds the normalized header map shared by both extractors:
// lower-cased names, trimmed values, first occurrence wins except for received
// which keeps every occurrence in order, newline separated.
type headerCollector map[string]string

func (h headerCollector) add(name, value string) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return
	}
	value = strings.TrimSpace(value)
	existing, seen := h[name]
	switch {
	case !seen:
		h[name] = value
	case name == receivedHeader:
		h[name] = existing + "\n" + value
	}
}
