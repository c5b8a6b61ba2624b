package mime_extractor

import (
	"bytes"
	"encoding/base64"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jhillyerd/enmime"

	"github.com/customeros/mailgate/dto"
)

// EnmimeExtractor does full multipart decomposition through enmime.
type EnmimeExtractor struct{}

func NewEnmimeExtractor() *EnmimeExtractor {
	return &EnmimeExtractor{}
}

func (e *EnmimeExtractor) Name() string {
	return KindEnmime
}

func (e *EnmimeExtractor) Extract(raw []byte) (*dto.ParsedMime, error) {
	envelope, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, ErrUnparseable
	}

	headers := headerCollector{}
	for _, key := range envelope.GetHeaderKeys() {
		for _, value := range envelope.GetHeaderValues(key) {
			headers.add(key, value)
		}
	}

	parsed := &dto.ParsedMime{
		Headers:     headers,
		Text:        envelope.Text,
		HTML:        envelope.HTML,
		Attachments: make([]dto.Attachment, 0, len(envelope.Attachments)+len(envelope.Inlines)),
	}

	for _, part := range envelope.Attachments {
		parsed.Attachments = append(parsed.Attachments, toAttachment(part, false))
	}
	for _, part := range envelope.Inlines {
		parsed.Attachments = append(parsed.Attachments, toAttachment(part, true))
	}
	for _, part := range envelope.OtherParts {
		parsed.Attachments = append(parsed.Attachments, toAttachment(part, part.ContentID != ""))
	}

	if parsed.HTML != "" {
		parsed.HTML = resolveInlineImages(parsed.HTML, envelope.Inlines, envelope.OtherParts)
	}

	return parsed, nil
}

func toAttachment(part *enmime.Part, inline bool) dto.Attachment {
	return dto.Attachment{
		Filename:    part.FileName,
		Size:        len(part.Content),
		ContentType: part.ContentType,
		Inline:      inline,
		ContentID:   strings.Trim(part.ContentID, "<>"),
	}
}

// resolveInlineImages swaps cid: image sources for data: URIs of the matching part.
// The original markup is returned untouched when nothing was replaced.
func resolveInlineImages(html string, partSets ...[]*enmime.Part) string {
	byCID := map[string]*enmime.Part{}
	for _, parts := range partSets {
		for _, part := range parts {
			if cid := strings.Trim(part.ContentID, "<>"); cid != "" {
				byCID[strings.ToLower(cid)] = part
			}
		}
	}
	if len(byCID) == 0 || !strings.Contains(strings.ToLower(html), "cid:") {
		return html
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}

	replaced := 0
	doc.Find("img[src]").Each(func(_ int, img *goquery.Selection) {
		src, _ := img.Attr("src")
		if len(src) < 4 || !strings.EqualFold(src[:4], "cid:") {
			return
		}
		part, ok := byCID[strings.ToLower(strings.Trim(src[4:], "<>"))]
		if !ok {
			return
		}
		img.SetAttr("src", "data:"+part.ContentType+";base64,"+base64.StdEncoding.EncodeToString(part.Content))
		replaced++
	})
	if replaced == 0 {
		return html
	}

	out, err := doc.Html()
	if err != nil {
		return html
	}
	return out
}
