package progress

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var binaryUnits = []string{"KiB", "MiB", "GiB", "TiB", "PiB"}

// formatBytes formats bytes as a human-readable string using binary units.
func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}

	v := float64(b) / unit
	i := 0
	for v >= unit && i < len(binaryUnits)-1 {
		v /= unit
		i++
	}
	if v >= 100 {
		return fmt.Sprintf("%.0f %s", v, binaryUnits[i])
	}
	return fmt.Sprintf("%.1f %s", v, binaryUnits[i])
}

// FormatBytes is exported for use by other packages.
func FormatBytes(b int64) string {
	return formatBytes(b)
}

var byteSuffixes = []struct {
	suffix     string
	multiplier int64
}{
	// Longest suffixes first so "MiB" is not read as "B".
	{"KiB", 1 << 10},
	{"MiB", 1 << 20},
	{"GiB", 1 << 30},
	{"TiB", 1 << 40},
	{"KB", 1000},
	{"MB", 1000 * 1000},
	{"GB", 1000 * 1000 * 1000},
	{"TB", 1000 * 1000 * 1000 * 1000},
	{"K", 1 << 10},
	{"M", 1 << 20},
	{"G", 1 << 30},
	{"T", 1 << 40},
	{"B", 1},
}

// ParseBytes parses a human-readable byte string such as "4GiB", "256MB",
// "1.5KiB" or a plain number of bytes. Binary suffixes (KiB, MiB, ...) and
// single letters (K, M, G, T) are powers of 1024; SI suffixes (KB, MB, ...)
// are powers of 1000. Hexadecimal byte counts ("0xFFFF0000") are accepted.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("invalid byte string: empty")
	}

	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		n, err := strconv.ParseInt(s[2:], 16, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid byte string: %s", s)
		}
		return n, nil
	}

	var multiplier int64 = 1
	number := s
	for _, u := range byteSuffixes {
		if strings.HasSuffix(s, u.suffix) {
			multiplier = u.multiplier
			number = strings.TrimSpace(strings.TrimSuffix(s, u.suffix))
			break
		}
	}

	value, err := strconv.ParseFloat(number, 64)
	if err != nil || value < 0 || math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, fmt.Errorf("invalid byte string: %s", s)
	}
	return int64(value * float64(multiplier)), nil
}
