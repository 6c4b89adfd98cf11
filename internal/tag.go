package internal

import (
	"strings"
	"unicode/utf8"
)

// Tag markers look like "@s1": an at sign followed by an identifier token.
// Identifiers start with a letter or digit and continue with letters,
// digits, hyphen or underscore, up to maxTagLen runes. Matching is
// case-insensitive; tags are stored lower-cased.
const (
	tagMarker = '@'
	maxTagLen = 32
)

// ParseTag extracts the addressing tag from a raw inbound message.
// It returns the tag (DefaultTag when no marker is present) and the
// message body with the marker token removed. A message carrying more
// than one marker fails with AmbiguousAddressingError; a marker whose
// identifier does not match the tag grammar fails with InvalidTagError.
// Parsing is deterministic: the same input always yields the same output.
func ParseTag(text string) (SessionTag, string, error) {
	fields := strings.Fields(text)

	var markers []string
	for _, f := range fields {
		if strings.HasPrefix(f, string(tagMarker)) {
			markers = append(markers, f)
		}
	}

	if len(markers) == 0 {
		return DefaultTag, text, nil
	}
	if len(markers) > 1 {
		return "", "", &AmbiguousAddressingError{Tags: markers}
	}

	marker := markers[0]
	ident := marker[1:]
	if err := validateTag(ident); err != nil {
		return "", "", err
	}

	// Rebuild the body from the remaining tokens. Whitespace around the
	// removed marker collapses; interior spacing is otherwise preserved
	// by splicing the original text around the marker.
	body := spliceOut(text, marker)
	return SessionTag(strings.ToLower(ident)), body, nil
}

// validateTag checks an identifier against the tag grammar.
func validateTag(ident string) error {
	if ident == "" {
		return &InvalidTagError{Input: string(tagMarker), Reason: "empty tag"}
	}
	if utf8.RuneCountInString(ident) > maxTagLen {
		return &InvalidTagError{Input: ident, Reason: "tag too long"}
	}
	for i, r := range ident {
		ok := r == '_' || r == '-' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9')
		if !ok {
			return &InvalidTagError{Input: ident, Reason: "tag contains invalid characters"}
		}
		if i == 0 && (r == '_' || r == '-') {
			return &InvalidTagError{Input: ident, Reason: "tag must start with a letter or digit"}
		}
	}
	return nil
}

// spliceOut removes the first occurrence of token (as a whitespace-bounded
// field) from text and tidies the surrounding whitespace.
func spliceOut(text, token string) string {
	idx := fieldIndex(text, token)
	if idx < 0 {
		return strings.TrimSpace(text)
	}
	before := strings.TrimRight(text[:idx], " \t")
	after := strings.TrimLeft(text[idx+len(token):], " \t")
	switch {
	case before == "":
		return strings.TrimSpace(after)
	case after == "":
		return strings.TrimSpace(before)
	default:
		return strings.TrimSpace(before + " " + after)
	}
}

// fieldIndex finds the byte offset of token in text where token stands
// alone as a whitespace-bounded field, so a marker embedded in a larger
// token (an email address, say) is never the one removed.
func fieldIndex(text, token string) int {
	off := 0
	for {
		idx := strings.Index(text[off:], token)
		if idx < 0 {
			return -1
		}
		abs := off + idx
		end := abs + len(token)
		startOK := abs == 0 || isSpace(text[abs-1])
		endOK := end == len(text) || isSpace(text[end])
		if startOK && endOK {
			return abs
		}
		off = abs + 1
	}
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
