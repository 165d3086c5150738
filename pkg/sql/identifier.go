package sql

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MySQL limits identifiers to 64 characters.
const maxIdentifierLength = 64

const unnamedIdentifier = "unnamed_column"

var invalidIdentifierChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// reservedWords are column names that are renamed with a "_col" suffix.
var reservedWords = map[string]struct{}{
	"select": {}, "insert": {}, "update": {}, "delete": {}, "from": {}, "where": {},
	"join": {}, "inner": {}, "outer": {}, "left": {}, "right": {}, "on": {},
	"order": {}, "by": {}, "group": {}, "having": {}, "union": {}, "create": {},
	"table": {}, "index": {}, "key": {}, "primary": {}, "foreign": {}, "references": {},
	"constraint": {}, "alter": {}, "drop": {}, "database": {}, "schema": {}, "view": {},
	"procedure": {}, "function": {}, "trigger": {}, "user": {}, "grant": {}, "revoke": {},
	"commit": {}, "rollback": {}, "transaction": {},
}

// SanitizeIdentifier maps an arbitrary name onto a safe unquoted MySQL
// identifier: ASCII letters, digits and underscores only, never starting with
// a digit, never empty and at most 64 characters. Applying it twice gives the
// same result as applying it once.
func SanitizeIdentifier(name string) string {
	if name == "" {
		return unnamedIdentifier
	}

	s := invalidIdentifierChars.ReplaceAllString(name, "_")
	if s != "" && s[0] >= '0' && s[0] <= '9' {
		s = "col_" + s
	}
	if s == "" {
		return unnamedIdentifier
	}
	if len(s) > maxIdentifierLength {
		s = s[:maxIdentifierLength-3] + "_tr"
	}
	return s
}

// IsReservedWord reports whether name collides with a reserved SQL keyword.
func IsReservedWord(name string) bool {
	_, ok := reservedWords[strings.ToLower(name)]
	return ok
}

// ColumnIdentifier sanitizes a column name and renames reserved words.
func ColumnIdentifier(name string) string {
	s := SanitizeIdentifier(name)
	if IsReservedWord(s) {
		s += "_col"
	}
	return s
}

// identifierSet hands out unique identifiers. MySQL compares column names
// case-insensitively, so "Name" and "name" collide.
type identifierSet map[string]struct{}

func (set identifierSet) claim(ident string) string {
	candidate := ident
	for n := 2; ; n++ {
		key := strings.ToLower(candidate)
		if _, taken := set[key]; !taken {
			set[key] = struct{}{}
			return candidate
		}
		suffix := fmt.Sprintf("_%d", n)
		base := ident
		if len(base)+len(suffix) > maxIdentifierLength {
			base = base[:maxIdentifierLength-len(suffix)]
		}
		candidate = base + suffix
	}
}

// QuoteIdentifier wraps an already sanitized identifier in backticks.
func QuoteIdentifier(ident string) string {
	return "`" + ident + "`"
}

// EscapeComment renders text for use inside a single-quoted COMMENT literal.
// Backslashes and quotes are escaped, control characters become spaces and
// the escaped result is cut to at most limit characters without splitting an
// escape pair.
func EscapeComment(text string, limit int) string {
	var b strings.Builder
	n := 0
	for _, r := range text {
		var token string
		switch {
		case r == '\\':
			token = `\\`
		case r == '\'':
			token = `\'`
		case r < 0x20 || r == 0x7f:
			token = " "
		case r == utf8.RuneError:
			token = "?"
		default:
			token = string(r)
		}
		width := utf8.RuneCountInString(token)
		if n+width > limit {
			break
		}
		b.WriteString(token)
		n += width
	}
	return b.String()
}
