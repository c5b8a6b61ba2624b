package dto

// ParsedMime is the extractor output. Header names are lower-cased and values trimmed.
type ParsedMime struct {
	Headers     map[string]string
	Text        string
	HTML        string
	Attachments []Attachment
}

type Attachment struct {
	Filename    string `json:"filename"`
	Size        int    `json:"size"`
	ContentType string `json:"contentType"`
	Inline      bool   `json:"inline"`
	ContentID   string `json:"contentId,omitempty"`
}

func (p *ParsedMime) Header(name string) string {
	if p == nil || p.Headers == nil {
		return ""
	}
	return p.Headers[name]
}
