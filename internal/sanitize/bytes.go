package sanitize

import "fmt"

var byteUnits = []string{"Bytes", "KB", "MB", "GB", "TB"}

// FormatBytes renders n on a 1024-based scale with two decimals, e.g. "6.00 MB".
// Values beyond the TB range stay in TB.
func FormatBytes(n int64) string {
	if n <= 0 {
		return "0.00 Bytes"
	}
	const unit = 1024
	div, exp := int64(1), 0
	for exp < len(byteUnits)-1 && n/div >= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %s", float64(n)/float64(div), byteUnits[exp])
}
