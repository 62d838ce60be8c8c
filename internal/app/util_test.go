package app

import (
	"testing"
)

func TestShortID(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"0x1234567890abcdef1234567890abcdef12345678", "0x1234…345678"},
		{"0x123456789012", "0x123456789012"}, // <= 14 chars
		{"shortstring", "shortstring"},
		{"exactly14chars", "exactly14chars"},
		{"fifteencharstr!", "fiftee…arstr!"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := shortID(tt.input)
			if result != tt.expected {
				t.Errorf("shortID(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNz(t *testing.T) {
	tests := []struct {
		input    string
		fallback string
		expected string
	}{
		{"value", "fallback", "value"},
		{"", "fallback", "fallback"},
		{"   ", "fallback", "fallback"},
		{"\t\n", "fallback", "fallback"},
		{"x", "fallback", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := nz(tt.input, tt.fallback); got != tt.expected {
				t.Errorf("nz(%q, %q) = %q, want %q", tt.input, tt.fallback, got, tt.expected)
			}
		})
	}
}
