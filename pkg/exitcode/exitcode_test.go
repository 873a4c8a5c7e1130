/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package exitcode

import (
	"testing"
)

func TestExitCodesAreDistinct(t *testing.T) {
	codes := []int{Success, GeneralError, ConfigError, ValidationError, FileSystemError, ToolNotFound, MissingInput, PackError}
	seen := map[int]bool{}
	for _, c := range codes {
		if seen[c] {
			t.Errorf("duplicate exit code %d", c)
		}
		seen[c] = true
	}
	if Success != 0 {
		t.Errorf("Success = %v, expected 0", Success)
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{Success, "Success"},
		{GeneralError, "General error"},
		{ConfigError, "Configuration error"},
		{ValidationError, "Validation error"},
		{FileSystemError, "File system error"},
		{ToolNotFound, "Tool not found"},
		{MissingInput, "Missing input map"},
		{PackError, "Packaging failed"},
		{999, "Unknown error"},
	}

	for _, test := range tests {
		if result := String(test.code); result != test.expected {
			t.Errorf("String(%d) = %v, expected %v", test.code, result, test.expected)
		}
	}
}
