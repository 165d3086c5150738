package sql

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionKind names the detector that flagged a piece of text.
type InjectionKind string

const (
	InjectionSQL InjectionKind = "sqli"
	InjectionXSS InjectionKind = "xss"
)

// InjectionCheckResult describes text that must not be embedded.
type InjectionCheckResult struct {
	Kind        InjectionKind
	Fingerprint string // libinjection SQLi fingerprint; "xss" for markup
	Field       string
	Value       string
}

// CheckTextForInjection runs libinjection's SQLi and XSS detectors over text
// that ends up both in a DDL COMMENT literal and in the JSON response shown by
// the web UI, such as a generated column description. Returns nil when the
// text is clean.
//
//	CheckTextForInjection("email", "Email address of the customer") // nil
//	CheckTextForInjection("notes", "'; DROP TABLE users--")         // Kind == InjectionSQL
func CheckTextForInjection(field, text string) *InjectionCheckResult {
	if text == "" {
		return nil
	}

	if isSQLi, fingerprint := libinjection.IsSQLi(text); isSQLi {
		return &InjectionCheckResult{
			Kind:        InjectionSQL,
			Fingerprint: string(fingerprint),
			Field:       field,
			Value:       text,
		}
	}
	if libinjection.IsXSS(text) {
		return &InjectionCheckResult{
			Kind:        InjectionXSS,
			Fingerprint: string(InjectionXSS),
			Field:       field,
			Value:       text,
		}
	}
	return nil
}
