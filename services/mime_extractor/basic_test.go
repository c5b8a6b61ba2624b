package mime_extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicExtractor_ReceivedHeadersConcatenated(t *testing.T) {
	raw := "Received: from a by b\r\n" +
		"Subject: first\r\n" +
		"Received: from c by d\r\n" +
		"Subject: second\r\n" +
		"Received: from e\r\n" +
		"\tby f\r\n" +
		"\r\n" +
		"hello\r\n"

	parsed, err := NewBasicExtractor().Extract([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, "from a by b\nfrom c by d\nfrom e by f", parsed.Headers["received"])
	assert.Equal(t, "first", parsed.Headers["subject"])
	assert.Equal(t, "hello\r\n", parsed.Text)
	assert.Empty(t, parsed.HTML)
	assert.Empty(t, parsed.Attachments)
}

func TestBasicExtractor_UnfoldsAndNormalizes(t *testing.T) {
	raw := "X-Long-Header:   part one\n" +
		"   part two\n" +
		"FROM: Alice <alice@example.com>  \n" +
		"no colon line\n" +
		"\n" +
		"body"

	parsed, err := NewBasicExtractor().Extract([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, "part one part two", parsed.Headers["x-long-header"])
	assert.Equal(t, "Alice <alice@example.com>", parsed.Headers["from"])
	assert.NotContains(t, parsed.Headers, "no colon line")
	assert.Equal(t, "body", parsed.Text)
}

func TestBasicExtractor_HTMLBody(t *testing.T) {
	raw := "Content-Type: text/html; charset=utf-8\n\n<p>hi</p>\n\nmore"

	parsed, err := NewBasicExtractor().Extract([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, "<p>hi</p>\n\nmore", parsed.HTML)
	assert.Empty(t, parsed.Text)
}

func TestBasicExtractor_MultipartIsNotDecomposed(t *testing.T) {
	raw := "Content-Type: multipart/mixed; boundary=x\n\n--x\nContent-Type: text/html\n\n<p>hi</p>\n--x--\n"

	parsed, err := NewBasicExtractor().Extract([]byte(raw))
	require.NoError(t, err)

	assert.Contains(t, parsed.Text, "--x")
	assert.Empty(t, parsed.HTML)
	assert.Empty(t, parsed.Attachments)
}

func TestBasicExtractor_NoBody(t *testing.T) {
	parsed, err := NewBasicExtractor().Extract([]byte("Subject: only headers\n"))
	require.NoError(t, err)

	assert.Equal(t, "only headers", parsed.Headers["subject"])
	assert.Empty(t, parsed.Text)
}

func TestBasicExtractor_DecodesEncodedWords(t *testing.T) {
	raw := "From: =?UTF-8?B?QWxpY2U=?= <alice@example.com>\r\n" +
		"Subject: =?UTF-8?B?SGVsbG8=?= =?windows-1252?Q?Caf=E9?=\r\n" +
		"X-Broken: =?x-unknown?Q?abc?=\r\n" +
		"\r\n" +
		"body\r\n"

	basic, err := NewBasicExtractor().Extract([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, "HelloCafé", basic.Headers["subject"])
	assert.Equal(t, "Alice <alice@example.com>", basic.Headers["from"])
	assert.Equal(t, "=?x-unknown?Q?abc?=", basic.Headers["x-broken"])
}

func TestBasicExtractor_EncodedSubjectMatchesEnmime(t *testing.T) {
	raw := []byte("From: alice@example.com\r\nSubject: =?UTF-8?B?SGVsbG8=?=\r\n\r\nbody\r\n")

	basic, err := NewBasicExtractor().Extract(raw)
	require.NoError(t, err)
	full, err := NewEnmimeExtractor().Extract(raw)
	require.NoError(t, err)

	assert.Equal(t, "Hello", basic.Headers["subject"])
	assert.Equal(t, full.Headers["subject"], basic.Headers["subject"])
}
