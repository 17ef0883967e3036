package domain

import "fmt"

const UnknownSize = "Unknown"

// FormatSize renders a byte count as kilobytes with two decimals, e.g. "200.00 KB".
func FormatSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}

	return fmt.Sprintf("%.2f KB", float64(bytes)/1024)
}
