package render

import "slices"

// File format names.
const (
	FormatText  = "txt"
	FormatExcel = "xlsx"
)

// ValidFormat reports whether f names a file sink.
func ValidFormat(f string) bool {
	return slices.Contains([]string{FormatText, FormatExcel}, f)
}
