package utils

import (
	"Wendigo/constants"
	"fmt"
	"os"
	"strconv"
)

// FileExists checks if a file exists at the given path
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

func BoolToEnabledDisabled(b bool) string {
	if b {
		return "Enabled"
	}
	return "Disabled"
}

// number formatter
func FormatNumber(n float64) string {
	switch {
	case n >= 1_000_000: // millions
		return fmt.Sprintf("%.1fM", n/1_000_000)
	case n >= 1_000: // thousands
		return fmt.Sprintf("%.1fk", n/1_000)
	}
	return strconv.FormatFloat(n, 'f', 0, 64)
}

func FormatWithCommas(n int) string {
	str := strconv.Itoa(n)
	for i := len(str) - 3; i > 0; i -= 3 {
		str = str[:i] + "," + str[i:]
	}
	return str
}

// Helper function to split messages into multiple lines
func SplitMessage(message string, maxLen int, prefix string) []string {
	var lines []string

	// First line uses original prefix
	lines = append(lines, message[:min(len(message), constants.LineLength)])

	// If there's more content, add continuation lines
	if len(message) > constants.LineLength {
		remaining := message[constants.LineLength:]
		for len(remaining) > 0 {
			lineLen := min(len(remaining), maxLen)
			lines = append(lines, fmt.Sprintf("%s ... %s", prefix, remaining[:lineLen]))
			if len(remaining) > lineLen {
				remaining = remaining[lineLen:]
			} else {
				remaining = ""
			}
		}
	}

	return lines
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
