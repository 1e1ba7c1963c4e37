package identifiers

import (
	"strconv"
	"strings"
	"unicode"
)

// NormalizeISBN removes hyphens, spaces, and an "ISBN" prefix from an ISBN.
// A valid ISBN-10 is converted to its ISBN-13 form. Anything else is returned
// with only the separators removed so validation can report it.
func NormalizeISBN(value string) string {
	value = strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(value)), "ISBN:")
	value = strings.TrimPrefix(value, "ISBN")
	value = strings.TrimSpace(value)

	var result strings.Builder
	for _, r := range value {
		if r == '-' || unicode.IsSpace(r) {
			continue
		}
		result.WriteRune(r)
	}
	normalized := result.String()

	if ValidateISBN10(normalized) {
		return ISBN10To13(normalized)
	}
	return normalized
}

// ValidateISBN10 validates an ISBN-10 checksum.
// ISBN-10 uses modulo 11 with weights 10,9,8,7,6,5,4,3,2,1.
func ValidateISBN10(isbn string) bool {
	if len(isbn) != 10 {
		return false
	}

	var sum int
	for i, r := range isbn {
		var digit int
		switch {
		case r == 'X' || r == 'x':
			if i != 9 {
				return false
			}
			digit = 10
		case r >= '0' && r <= '9':
			digit = int(r - '0')
		default:
			return false
		}
		sum += digit * (10 - i)
	}
	return sum%11 == 0
}

// ValidateISBN13 validates an ISBN-13 checksum.
// ISBN-13 uses alternating weights of 1 and 3.
func ValidateISBN13(isbn string) bool {
	if len(isbn) != 13 {
		return false
	}
	sum, ok := isbn13Sum(isbn)
	return ok && sum%10 == 0
}

// ISBN10To13 converts a valid ISBN-10 into the equivalent 978-prefixed
// ISBN-13. The input is not validated.
func ISBN10To13(isbn10 string) string {
	body := "978" + isbn10[:9]
	sum, _ := isbn13Sum(body)
	check := (10 - sum%10) % 10
	return body + strconv.Itoa(check)
}

func isbn13Sum(digits string) (int, bool) {
	var sum int
	for i, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
		digit := int(r - '0')
		if i%2 == 0 {
			sum += digit
		} else {
			sum += digit * 3
		}
	}
	return sum, true
}
