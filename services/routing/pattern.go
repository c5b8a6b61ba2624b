package routing

import (
	"regexp"
	"strings"
)

const (
	patternPrefixHeader = "header:"
	patternPrefixRcpt   = "rcpt:"
	patternPrefixSender = "sender:"
)

// matcher tests one routing context. Patterns are compiled once per evaluation load.
type matcher func(rc *RoutingContext) bool

func matchAll(*RoutingContext) bool { return true }
func matchNone(*RoutingContext) bool { return false }

// compilePattern dispatches on the prefix. Unknown prefixes and malformed patterns never match.
func compilePattern(pattern string) matcher {
	pattern = strings.TrimSpace(pattern)
	switch {
	case pattern == "" || pattern == "*":
		return matchAll
	case strings.HasPrefix(pattern, patternPrefixHeader):
		return compileHeaderPattern(strings.TrimPrefix(pattern, patternPrefixHeader))
	case strings.HasPrefix(pattern, patternPrefixRcpt):
		re := compileGlob(strings.TrimPrefix(pattern, patternPrefixRcpt))
		if re == nil {
			return matchNone
		}
		return func(rc *RoutingContext) bool {
			for _, recipient := range rc.Recipients {
				if re.MatchString(recipient) {
					return true
				}
			}
			return false
		}
	case strings.HasPrefix(pattern, patternPrefixSender):
		re := compileGlob(strings.TrimPrefix(pattern, patternPrefixSender))
		if re == nil {
			return matchNone
		}
		return func(rc *RoutingContext) bool {
			return re.MatchString(rc.Sender)
		}
	default:
		return matchNone
	}
}

// header:<name>=<value>; the name is case-insensitive, the value compares exactly.
func compileHeaderPattern(expr string) matcher {
	idx := strings.IndexByte(expr, '=')
	if idx < 0 {
		return matchNone
	}
	name := strings.ToLower(strings.TrimSpace(expr[:idx]))
	if name == "" {
		return matchNone
	}
	value := expr[idx+1:]
	return func(rc *RoutingContext) bool {
		actual, ok := rc.Headers[name]
		return ok && actual == value
	}
}

// compileGlob translates * and ? into an anchored case-insensitive expression. Everything else is literal.
func compileGlob(glob string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("(?i)^")
	for _, r := range glob {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil
	}
	return re
}
