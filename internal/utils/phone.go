package utils

import "strings"

var senegalPrefixes = []string{"77", "78", "76", "75", "33", "70"}

// CleanPhone strips everything but digits.
func CleanPhone(phone string) string {
	var out strings.Builder
	for _, c := range phone {
		if c >= '0' && c <= '9' {
			out.WriteRune(c)
		}
	}
	return out.String()
}

// stripCountryCode drops a leading 221 written with the international prefix.
func stripCountryCode(p string) string {
	if len(p) == 12 && strings.HasPrefix(p, "221") {
		return p[3:]
	}
	return p
}

// ValidSenegalPhone accepts 9-digit numbers starting with a known operator
// prefix, with or without the +221 country code.
func ValidSenegalPhone(phone string) bool {
	p := stripCountryCode(CleanPhone(phone))
	if len(p) != 9 {
		return false
	}
	for _, prefix := range senegalPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

// FormatSenegalPhone renders "771234567" as "77 123 45 67".
func FormatSenegalPhone(phone string) string {
	p := stripCountryCode(CleanPhone(phone))
	if len(p) != 9 {
		return p
	}
	return p[0:2] + " " + p[2:5] + " " + p[5:7] + " " + p[7:9]
}
