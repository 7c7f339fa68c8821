package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatFCFA renders an integer amount of francs CFA with thousand separators.
func FormatFCFA(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%s FCFA", sign, formatThousand(amount))
}

// ParseFCFA parses "12 500 FCFA" or "12.500" into an integer amount of francs.
func ParseFCFA(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.ToLower(s), "fcfa")
	replacer := strings.NewReplacer(".", "", ",", "", " ", "")
	s = replacer.Replace(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("montant invalide")
	}
	return strconv.ParseInt(s, 10, 64)
}

func formatThousand(n int64) string {
	if n == 0 {
		return "0"
	}
	str := strconv.FormatInt(n, 10)
	var out strings.Builder
	for i, c := range str {
		if i != 0 && (len(str)-i)%3 == 0 {
			out.WriteByte(' ')
		}
		out.WriteRune(c)
	}
	return out.String()
}
