// Package redact provides utilities for redacting sensitive information from
// strings before they are logged or returned in error responses. This keeps
// provider API keys, database connection strings and similar details out of
// logs and client-visible messages.
package redact

import "regexp"

// Redaction placeholders
const (
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
	RedactedHostPlaceholder       = "[REDACTED_HOST]"
)

// Precompiled patterns, applied in order. The DSN pattern runs first so
// connection strings are scrubbed before the host pattern sees them.
var (
	dbConnRegex = regexp.MustCompile(`(?i)(postgres|postgresql|mysql|db|database)://[^@\s]+@[^\s]+`)

	apiKeyRegex = regexp.MustCompile(
		`(?i)(api[_-]?key|token|secret|key|auth)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`,
	)

	unixPathRegex = regexp.MustCompile(`(/[\w.-]+){2,}`)

	hostPortRegex = regexp.MustCompile(
		`\b(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}:\d{1,5}\b`,
	)

	patterns = []struct {
		re          *regexp.Regexp
		placeholder string
	}{
		{dbConnRegex, RedactedCredentialPlaceholder},
		{apiKeyRegex, RedactedKeyPlaceholder},
		{unixPathRegex, RedactedPathPlaceholder},
		{hostPortRegex, RedactedHostPlaceholder},
	}
)

// String redacts sensitive information from the input string.
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, p := range patterns {
		result = p.re.ReplaceAllString(result, p.placeholder)
	}
	return result
}

// Error redacts sensitive information from an error's message.
// Returns an empty string for a nil error.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
