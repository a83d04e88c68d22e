package handlers

import (
	"regexp"
	"strings"
)

var (
	// Email of the form A@B.C where no part contains spaces or extra @.
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	upperCasePattern   = regexp.MustCompile(`[A-Z]`)
	numberPattern      = regexp.MustCompile(`\d`)
	specialCharPattern = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)

	htmlTagPattern = regexp.MustCompile(`<[^>]*>`)
)

func isUsernameValid(username string) bool {
	return strings.TrimSpace(username) != ""
}

func isEmailValid(email string) bool {
	return emailPattern.MatchString(email)
}

// Passwords must contain an uppercase character, a number and a special
// character.
func isPasswordValid(password string) bool {
	return strings.TrimSpace(password) != "" &&
		upperCasePattern.MatchString(password) &&
		numberPattern.MatchString(password) &&
		specialCharPattern.MatchString(password)
}

func isRoleNameValid(roleName string) bool {
	return strings.TrimSpace(roleName) != "" && roleName == strings.ToUpper(roleName)
}

func isLatitudeValid(latitude float64) bool {
	return latitude >= -90 && latitude <= 90
}

func isLongitudeValid(longitude float64) bool {
	return longitude >= -180 && longitude <= 180
}

// sanitize strips HTML tags from user-supplied text before it is persisted.
func sanitize(value string) string {
	return strings.TrimSpace(htmlTagPattern.ReplaceAllString(value, ""))
}

func sanitizePtr(value *string) *string {
	if value == nil {
		return nil
	}
	cleaned := sanitize(*value)
	return &cleaned
}
