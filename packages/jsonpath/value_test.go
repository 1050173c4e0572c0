package jsonpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEqual_Numbers(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected bool
	}{
		{"same text", "7", "7", true},
		{"integer and decimal", "5", "5.0", true},
		{"exponent", "1e3", "1000", true},
		{"different", "1", "2", false},
		{"beyond float precision", "9007199254740993", "9007199254740992", false},
		{"beyond int64", "123456789012345678901234567890", "123456789012345678901234567890", true},
		{"beyond int64 differing", "123456789012345678901234567891", "123456789012345678901234567890", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Equal(Number{Raw: tt.a}, Number{Raw: tt.b}))
		})
	}
}

func TestEqual_NumberAndStringDiffer(t *testing.T) {
	assert.False(t, Equal(Number{Raw: "5"}, String("5")))
}
