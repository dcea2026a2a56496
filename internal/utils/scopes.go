package utils

import "strings"

// JoinScope renders scopes in the space-delimited form used by the OAuth2 token endpoint.
func JoinScope(scope []string) string {
	return strings.Join(scope, " ")
}

// SplitScope parses a space or comma delimited scope list, dropping empty entries.
// It returns nil when no scope is present so callers can treat the result as "absent".
func SplitScope(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ' ' || r == ','
	})
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// CloneStrings returns a copy of s that does not share its backing array.
func CloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
