package utils

import "time"

// FormatTimestamp renders t the way the API reports times: UTC, RFC3339
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
