package identifiers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateISBN10(t *testing.T) {
	t.Parallel()
	tests := []struct {
		value    string
		expected bool
	}{
		{"0316769487", true},
		{"080442957X", true},
		{"0451524934", true},   // Nineteen Eighty-Four
		{"0316769488", false},  // bad checksum
		{"X316769487", false},  // X only allowed last
		{"123456789", false},   // too short
		{"12345678901", false}, // too long
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateISBN10(tt.value))
		})
	}
}

func TestValidateISBN13(t *testing.T) {
	t.Parallel()
	tests := []struct {
		value    string
		expected bool
	}{
		{"9780316769488", true},
		{"9780804429573", true},
		{"9780441013593", true},
		{"9780316769489", false},  // bad checksum
		{"978031676948X", false},  // not a digit
		{"978031676948", false},   // too short
		{"97803167694888", false}, // too long
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateISBN13(tt.value))
		})
	}
}

func TestNormalizeISBN(t *testing.T) {
	t.Parallel()
	tests := []struct {
		value    string
		expected string
	}{
		{"978-0-316-76948-8", "9780316769488"},
		{"978 0 316 76948 8", "9780316769488"},
		{"ISBN: 9780316769488", "9780316769488"},
		{"isbn 978-0441013593", "9780441013593"},
		{"0-316-76948-7", "9780316769488"},
		{"080442957x", "9780804429573"},
		{"0-316-76948-8", "0316769488"},
		{"978-0-00", "978000"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeISBN(tt.value))
		})
	}
}

func TestISBN10To13(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "9780441013593", ISBN10To13("0441013597"))
	assert.Equal(t, "9780451524935", ISBN10To13("0451524934"))
}
