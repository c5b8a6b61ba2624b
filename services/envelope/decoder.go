package envelope

import (
	"encoding/base64"
	"encoding/json"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/customeros/mailgate/dto"
	mailgate_errors "github.com/customeros/mailgate/errors"
)

// Sidecar headers carrying envelope metadata on the raw MIME path.
const (
	HeaderMailFrom    = "X-Mail-From"
	HeaderRcptTo      = "X-Rcpt-To"
	HeaderReceivedAt  = "X-Received-At"
	HeaderAuthResults = "X-Auth-Results"
	HeaderSpamScore   = "X-Spam-Score"
	HeaderTLS         = "X-TLS"
)

// Optional envelope fields reported in Envelope.Ignored when unreadable.
const (
	FieldReceivedAt = "received_at"
	FieldSpamScore  = "spam_score"
)

const mediaTypeJSON = "application/json"

var rawMediaTypes = map[string]bool{
	"message/rfc822":           true,
	"application/octet-stream": true,
	"text/plain":               true,
}

// Decode normalizes either wire format into a single Envelope.
func Decode(contentType string, header http.Header, body []byte) (*dto.Envelope, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, errors.Wrapf(mailgate_errors.ErrUnsupportedMedia, "content type %q", contentType)
	}

	switch {
	case mediaType == mediaTypeJSON:
		return decodeStructured(body)
	case rawMediaTypes[mediaType]:
		return decodeRaw(header, body)
	default:
		return nil, errors.Wrapf(mailgate_errors.ErrUnsupportedMedia, "content type %q", mediaType)
	}
}

func decodeStructured(body []byte) (*dto.Envelope, error) {
	var request dto.InboundEnvelopeRequest
	if err := json.Unmarshal(body, &request); err != nil {
		return nil, errors.Wrap(mailgate_errors.ErrInvalidEnvelope, "malformed json")
	}

	if strings.TrimSpace(request.MimeB64) == "" {
		return nil, errors.Wrap(mailgate_errors.ErrInvalidEnvelope, "mime_b64 is empty")
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(request.MimeB64))
	if err != nil {
		return nil, errors.Wrap(mailgate_errors.ErrInvalidEnvelope, "mime_b64 is not valid base64")
	}
	if len(raw) == 0 {
		return nil, errors.Wrap(mailgate_errors.ErrInvalidEnvelope, "mime_b64 is empty")
	}

	recipients := cleanRecipients(request.RcptTos)
	if len(recipients) == 0 {
		return nil, errors.Wrap(mailgate_errors.ErrInvalidEnvelope, "rcpt_tos is empty")
	}

	envelope := &dto.Envelope{
		MailFrom:    strings.TrimSpace(request.MailFrom),
		Recipients:  recipients,
		RawMime:     raw,
		ReceivedAt:  parseTime(request.ReceivedAt),
		AuthResults: strings.TrimSpace(request.AuthResults),
		SpamScore:   request.SpamScore,
		TLS:         request.TLS,
	}
	ignoreUnparsed(envelope, FieldReceivedAt, request.ReceivedAt, envelope.ReceivedAt != nil)
	return envelope, nil
}

func decodeRaw(header http.Header, body []byte) (*dto.Envelope, error) {
	if len(body) == 0 {
		return nil, errors.Wrap(mailgate_errors.ErrInvalidEnvelope, "mime body is empty")
	}

	recipients := cleanRecipients(strings.Split(header.Get(HeaderRcptTo), ","))
	if len(recipients) == 0 {
		return nil, errors.Wrapf(mailgate_errors.ErrInvalidEnvelope, "%s is empty", HeaderRcptTo)
	}

	envelope := &dto.Envelope{
		MailFrom:    strings.TrimSpace(header.Get(HeaderMailFrom)),
		Recipients:  recipients,
		RawMime:     body,
		ReceivedAt:  parseTime(header.Get(HeaderReceivedAt)),
		AuthResults: strings.TrimSpace(header.Get(HeaderAuthResults)),
		SpamScore:   parseScore(header.Get(HeaderSpamScore)),
	}
	ignoreUnparsed(envelope, FieldReceivedAt, header.Get(HeaderReceivedAt), envelope.ReceivedAt != nil)
	ignoreUnparsed(envelope, FieldSpamScore, header.Get(HeaderSpamScore), envelope.SpamScore != nil)
	if value := strings.TrimSpace(header.Get(HeaderTLS)); value != "" {
		tls := ParseBool(value)
		envelope.TLS = &tls
	}
	return envelope, nil
}

func cleanRecipients(values []string) []string {
	recipients := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			recipients = append(recipients, value)
		}
	}
	return recipients
}

// receivedAtLayouts are the ISO-8601 shapes accepted for received_at. Layouts without a zone are read as UTC.
var receivedAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// parseTime returns nil for anything that is not ISO-8601, so the acceptance time is used instead.
func parseTime(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range receivedAtLayouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			parsed = parsed.UTC()
			return &parsed
		}
	}
	return nil
}

// ignoreUnparsed records an optional field that was supplied but could not be read.
func ignoreUnparsed(envelope *dto.Envelope, field, value string, parsed bool) {
	if strings.TrimSpace(value) != "" && !parsed {
		envelope.Ignored = append(envelope.Ignored, field)
	}
}

func parseScore(value string) *float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	score, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &score
}

// ParseBool accepts 1, true, on, yes and y in any case. Everything else is false.
func ParseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "on", "yes", "y":
		return true
	default:
		return false
	}
}
