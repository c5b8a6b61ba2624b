package mime_extractor

import (
	"bytes"
	"mime"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/customeros/mailgate/dto"
)

var wordDecoder = &mime.WordDecoder{CharsetReader: charset.NewReaderLabel}

// decodeWords resolves RFC 2047 encoded-words; undecodable values are kept as sent.
func decodeWords(value string) string {
	if !strings.Contains(value, "=?") {
		return value
	}
	decoded, err := wordDecoder.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}

// BasicExtractor needs nothing beyond the standard library. It splits headers from body on the
// first blank line and does not decompose multipart bodies or enumerate attachments.
type BasicExtractor struct{}

func NewBasicExtractor() *BasicExtractor {
	return &BasicExtractor{}
}

func (e *BasicExtractor) Name() string {
	return KindBasic
}

func (e *BasicExtractor) Extract(raw []byte) (*dto.ParsedMime, error) {
	headerBlock, body := splitHeaderBody(raw)

	headers := headerCollector{}
	var name, value string
	flush := func() {
		if name != "" {
			headers.add(name, decodeWords(value))
		}
		name, value = "", ""
	}

	for _, line := range strings.Split(string(headerBlock), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		if line[0] == ' ' || line[0] == '\t' {
			if name != "" {
				value = strings.TrimSpace(value) + " " + strings.TrimSpace(line)
			}
			continue
		}
		flush()
		idx := strings.IndexByte(line, ':')
		if idx <= 0 {
			continue
		}
		name, value = line[:idx], line[idx+1:]
	}
	flush()

	parsed := &dto.ParsedMime{Headers: headers, Attachments: []dto.Attachment{}}
	if strings.Contains(strings.ToLower(headers["content-type"]), "text/html") {
		parsed.HTML = string(body)
	} else {
		parsed.Text = string(body)
	}
	return parsed, nil
}

// splitHeaderBody cuts at the first empty line, accepting CRLF or LF line endings.
// Without an empty line the whole input is treated as headers.
func splitHeaderBody(raw []byte) ([]byte, []byte) {
	start := 0
	for start <= len(raw) {
		end := bytes.IndexByte(raw[start:], '\n')
		if end < 0 {
			return raw, nil
		}
		line := raw[start : start+end]
		next := start + end + 1
		if len(bytes.TrimSuffix(line, []byte("\r"))) == 0 {
			return raw[:start], raw[next:]
		}
		start = next
	}
	return raw, nil
}
