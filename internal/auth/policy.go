package auth

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const minPasswordLength = 8

var (
	lowerLetter  = regexp.MustCompile(`[a-z]`)
	upperLetter  = regexp.MustCompile(`[A-Z]`)
	resetSpecial = regexp.MustCompile(`[@#$%^&+=]`)

	registrationAlphabet = regexp.MustCompile(`^[A-Za-z0-9!@#$%^&*()_+{}:"<>?]{8,}$`)
	registrationSpecial  = regexp.MustCompile(`[!@#$%^&*()_+{}:"<>?]`)
)

// lineTerminators are the characters a single-line match may not cross.
const lineTerminators = "\n\r\u0085\u2028\u2029"

// ValidResetPassword applies the policy for a password chosen during recovery:
// at least eight characters on a single line, with a lowercase letter, an
// uppercase letter and one of @#$%^&+=.
func ValidResetPassword(password string) bool {
	if strings.ContainsAny(password, lineTerminators) {
		return false
	}
	return utf8.RuneCountInString(password) >= minPasswordLength &&
		lowerLetter.MatchString(password) &&
		upperLetter.MatchString(password) &&
		resetSpecial.MatchString(password)
}

// ValidRegistrationPassword applies the request-boundary policy for logins and
// new accounts: eight or more characters drawn from letters, digits and
// !@#$%^&*()_+{}:"<>?, at least one of which is from that special set.
func ValidRegistrationPassword(password string) bool {
	return registrationAlphabet.MatchString(password) && registrationSpecial.MatchString(password)
}
