package grouper

import "strings"

// NormalizeName prepares a file name for comparison under the name
// criterion: surrounding whitespace is trimmed and case is folded, so
// "Report.TXT" and "report.txt " match on every platform.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
