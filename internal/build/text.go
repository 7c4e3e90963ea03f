package build

import "strings"

// Returns the first line of err's message.
func firstLine(err error) string {
	msg, _, _ := strings.Cut(err.Error(), "\n")
	return msg
}

// Formats captured stderr as an indented block starting on a new line.
func indent(stderr string) string {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return ""
	}
	return "\n    " + strings.ReplaceAll(stderr, "\n", "\n    ")
}
