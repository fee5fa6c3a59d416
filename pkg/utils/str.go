package utils

// FirstNonEmpty returns the first of its arguments that is not empty.
func FirstNonEmpty(str1, str2 string) string {
	if str1 != "" {
		return str1
	}
	return str2
}
