package envelope

import (
	"encoding/base64"
	"net/http"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mailgate_errors "github.com/customeros/mailgate/errors"
)

const rawMime = "From: alice@example.com\r\nSubject: hi\r\n\r\nbody\r\n"

func TestDecode_Structured(t *testing.T) {
	body := `{
		"mail_from": " alice@example.com ",
		"rcpt_tos": ["bob@example.com", " ", "carol@example.com "],
		"mime_b64": "` + base64.StdEncoding.EncodeToString([]byte(rawMime)) + `",
		"received_at": "2025-01-02T03:04:05+02:00",
		"auth_results": "mx; dkim=pass",
		"spam_score": 1.5
	}`

	envelope, err := Decode("application/json; charset=utf-8", http.Header{}, []byte(body))
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", envelope.MailFrom)
	assert.Equal(t, []string{"bob@example.com", "carol@example.com"}, envelope.Recipients)
	assert.Equal(t, rawMime, string(envelope.RawMime))
	require.NotNil(t, envelope.ReceivedAt)
	assert.Equal(t, time.Date(2025, 1, 2, 1, 4, 5, 0, time.UTC), *envelope.ReceivedAt)
	assert.Equal(t, "mx; dkim=pass", envelope.AuthResults)
	require.NotNil(t, envelope.SpamScore)
	assert.Equal(t, 1.5, *envelope.SpamScore)
	assert.Nil(t, envelope.TLS)
}

func TestDecode_StructuredInvalid(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte(rawMime))
	cases := map[string]string{
		"malformed json":  `{"mail_from":`,
		"missing mime":    `{"rcpt_tos":["bob@example.com"]}`,
		"bad base64":      `{"rcpt_tos":["bob@example.com"],"mime_b64":"***"}`,
		"no recipients":   `{"rcpt_tos":[],"mime_b64":"` + encoded + `"}`,
		"blank recipient": `{"rcpt_tos":["  "],"mime_b64":"` + encoded + `"}`,
	}
	for name, body := range cases {
		_, err := Decode("application/json", http.Header{}, []byte(body))
		assert.True(t, errors.Is(err, mailgate_errors.ErrInvalidEnvelope), name)
	}
}

func TestDecode_StructuredLenientOptionalFields(t *testing.T) {
	body := `{"rcpt_tos":["bob@example.com"],"mime_b64":"` + base64.StdEncoding.EncodeToString([]byte(rawMime)) + `","received_at":"yesterday"}`

	envelope, err := Decode("application/json", http.Header{}, []byte(body))
	require.NoError(t, err)
	assert.Nil(t, envelope.ReceivedAt)
	assert.Nil(t, envelope.SpamScore)
	assert.Equal(t, []string{FieldReceivedAt}, envelope.Ignored)

	mimeB64 := base64.StdEncoding.EncodeToString([]byte(rawMime))
	for value, expected := range map[string]time.Time{
		"2025-01-02T03:04:05Z":          time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		"2025-01-02T03:04:05.250+02:00": time.Date(2025, 1, 2, 1, 4, 5, 250000000, time.UTC),
		"2025-01-02T03:04:05":           time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		"2025-01-02T03:04:05+0200":      time.Date(2025, 1, 2, 1, 4, 5, 0, time.UTC),
		"2025-01-02 03:04:05Z":          time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		"2025-01-02 03:04:05-05:00":     time.Date(2025, 1, 2, 8, 4, 5, 0, time.UTC),
		"2025-01-02":                    time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
	} {
		body := `{"rcpt_tos":["bob@example.com"],"mime_b64":"` + mimeB64 + `","received_at":"` + value + `"}`
		envelope, err := Decode("application/json", http.Header{}, []byte(body))
		require.NoError(t, err, value)
		require.NotNil(t, envelope.ReceivedAt, value)
		assert.True(t, expected.Equal(*envelope.ReceivedAt), value)
		assert.Equal(t, time.UTC, envelope.ReceivedAt.Location(), value)
		assert.Empty(t, envelope.Ignored, value)
	}
}

func TestDecode_RawReportsIgnoredFields(t *testing.T) {
	header := http.Header{}
	header.Set(HeaderRcptTo, "bob@example.com")
	header.Set(HeaderReceivedAt, "2025-01-02T03:04:05+0200")
	header.Set(HeaderSpamScore, "high")

	envelope, err := Decode("message/rfc822", header, []byte(rawMime))
	require.NoError(t, err)
	require.NotNil(t, envelope.ReceivedAt)
	assert.True(t, time.Date(2025, 1, 2, 1, 4, 5, 0, time.UTC).Equal(*envelope.ReceivedAt))
	assert.Equal(t, []string{FieldSpamScore}, envelope.Ignored)

	header.Set(HeaderReceivedAt, "02/01/2025")
	envelope, err = Decode("message/rfc822", header, []byte(rawMime))
	require.NoError(t, err)
	assert.Nil(t, envelope.ReceivedAt)
	assert.Equal(t, []string{FieldReceivedAt, FieldSpamScore}, envelope.Ignored)
}

func TestDecode_Raw(t *testing.T) {
	header := http.Header{}
	header.Set(HeaderMailFrom, "alice@example.com")
	header.Set(HeaderRcptTo, "bob@example.com, ,carol@example.com")
	header.Set(HeaderReceivedAt, "2025-01-02T03:04:05Z")
	header.Set(HeaderAuthResults, "dkim=fail")
	header.Set(HeaderSpamScore, "not-a-number")
	header.Set(HeaderTLS, "Yes")

	envelope, err := Decode("message/rfc822", header, []byte(rawMime))
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", envelope.MailFrom)
	assert.Equal(t, []string{"bob@example.com", "carol@example.com"}, envelope.Recipients)
	assert.Equal(t, rawMime, string(envelope.RawMime))
	require.NotNil(t, envelope.ReceivedAt)
	assert.Equal(t, "dkim=fail", envelope.AuthResults)
	assert.Nil(t, envelope.SpamScore)
	require.NotNil(t, envelope.TLS)
	assert.True(t, *envelope.TLS)
}

func TestDecode_RawInvalid(t *testing.T) {
	header := http.Header{}
	header.Set(HeaderRcptTo, "bob@example.com")
	_, err := Decode("message/rfc822", header, nil)
	assert.True(t, errors.Is(err, mailgate_errors.ErrInvalidEnvelope))

	_, err = Decode("text/plain", http.Header{}, []byte(rawMime))
	assert.True(t, errors.Is(err, mailgate_errors.ErrInvalidEnvelope))
}

func TestDecode_UnsupportedMedia(t *testing.T) {
	for _, contentType := range []string{"", "multipart/form-data; boundary=x", "application/xml", ";;;"} {
		_, err := Decode(contentType, http.Header{}, []byte(rawMime))
		assert.True(t, errors.Is(err, mailgate_errors.ErrUnsupportedMedia), contentType)
	}
}

func TestParseBool(t *testing.T) {
	for _, v := range []string{"1", "true", "ON", "yes", "Y", " true "} {
		assert.True(t, ParseBool(v), v)
	}
	for _, v := range []string{"0", "false", "off", "no", "", "maybe"} {
		assert.False(t, ParseBool(v), v)
	}
}
