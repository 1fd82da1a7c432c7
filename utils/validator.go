// utils/validator.go - Input validation
package utils

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	emailRegex        = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	academicYearRegex = regexp.MustCompile(`^(\d{4})-(\d{4})$`)
)

// ValidateEmail checks if email is valid
func ValidateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// ValidateAcademicYear accepts consecutive years such as "2025-2026".
func ValidateAcademicYear(year string) bool {
	m := academicYearRegex.FindStringSubmatch(strings.TrimSpace(year))
	if m == nil {
		return false
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	return end == start+1
}

// SanitizeInput removes potentially harmful characters
func SanitizeInput(input string) string {
	// Remove leading/trailing spaces
	input = strings.TrimSpace(input)

	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	return input
}
