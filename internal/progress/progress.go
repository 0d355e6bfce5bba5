// Package progress formats byte counts and transfer ratios for download
// progress output.
package progress

import (
	"math"
	"strconv"
)

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatFileSize renders bytes in base-1024 units (Bytes, KB, MB, GB) rounded
// to two decimals, using the largest unit whose value is at least 1.
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	i := 0
	div := int64(1)
	for i < len(sizeUnits)-1 && bytes/(div*1024) >= 1 {
		div *= 1024
		i++
	}
	v := math.Round(float64(bytes)/float64(div)*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}

// Percent returns round(downloaded/total*100), or 0 when total is unknown.
func Percent(downloaded, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(downloaded) / float64(total) * 100))
}

// Counter renders "(downloaded/total)" in FormatFileSize units, or just the
// downloaded size when total is unknown.
func Counter(downloaded, total int64) string {
	if total > 0 {
		return "(" + FormatFileSize(downloaded) + "/" + FormatFileSize(total) + ")"
	}
	return FormatFileSize(downloaded)
}
