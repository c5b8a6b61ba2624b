package authresults

import (
	"strings"

	"github.com/customeros/mailgate/internal/enum"
)

const HeaderName = "authentication-results"

type Verdicts struct {
	DKIM  enum.AuthVerdict
	DMARC enum.AuthVerdict
	ARC   enum.AuthVerdict
}

// checked in priority order; the first token found decides
var verdictOrder = []enum.AuthVerdict{enum.AuthVerdictPass, enum.AuthVerdictFail, enum.AuthVerdictNone}

// Classify scans an Authentication-Results string case-insensitively. A mechanism with no
// recognized token stays unknown and is never assumed to have failed.
func Classify(results string) Verdicts {
	lower := strings.ToLower(results)
	return Verdicts{
		DKIM:  classify(lower, "dkim="),
		DMARC: classify(lower, "dmarc="),
		ARC:   classify(lower, "arc="),
	}
}

func classify(lower, mechanism string) enum.AuthVerdict {
	for _, verdict := range verdictOrder {
		if containsToken(lower, mechanism+string(verdict)) {
			return verdict
		}
	}
	return enum.AuthVerdictUnknown
}

// containsToken requires the token to start a word so "arc=" does not match inside "dmarc=".
// Punctuation such as "." or ";" counts as a word start, so "policy.dkim=pass" matches.
func containsToken(s, token string) bool {
	for offset := 0; offset < len(s); {
		idx := strings.Index(s[offset:], token)
		if idx < 0 {
			return false
		}
		idx += offset
		if idx == 0 || !isTokenChar(s[idx-1]) {
			return true
		}
		offset = idx + 1
	}
	return false
}

func isTokenChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-' || c == '_'
}

// Merge prefers explicit verdicts per mechanism and falls back to header-derived ones individually.
func Merge(explicit, fromHeader Verdicts) Verdicts {
	return Verdicts{
		DKIM:  pick(explicit.DKIM, fromHeader.DKIM),
		DMARC: pick(explicit.DMARC, fromHeader.DMARC),
		ARC:   pick(explicit.ARC, fromHeader.ARC),
	}
}

func pick(primary, fallback enum.AuthVerdict) enum.AuthVerdict {
	if primary.IsKnown() {
		return primary
	}
	return fallback
}

// Resolve classifies the explicit string and the parsed header and merges them.
func Resolve(explicit string, headers map[string]string) Verdicts {
	return Merge(Classify(explicit), Classify(headers[HeaderName]))
}
