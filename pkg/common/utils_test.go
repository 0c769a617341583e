// Package common provides tests for byte-slice accessors
package common

import (
	"bytes"
	"testing"
)

func TestUint16At(t *testing.T) {
	data := []byte{0x34, 0x12, 0xFF, 0xA0}

	testCases := []struct {
		name     string
		offset   int
		expected uint16
		hasError bool
	}{
		{"first value", 0, 0x1234, false},
		{"second value", 2, 0xA0FF, false},
		{"straddles end", 3, 0, true},
		{"past end", 4, 0, true},
		{"negative offset", -1, 0, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := Uint16At(data, tc.offset)
			if tc.hasError {
				if err == nil {
					t.Errorf("Uint16At(%d) should fail", tc.offset)
				}
				return
			}
			if err != nil {
				t.Fatalf("Uint16At(%d) failed: %v", tc.offset, err)
			}
			if result != tc.expected {
				t.Errorf("Uint16At(%d) = 0x%04X, want 0x%04X", tc.offset, result, tc.expected)
			}
		})
	}
}

func TestUint32At(t *testing.T) {
	data := []byte{0x78, 0x56, 0x34, 0x12, 0x00}

	result, err := Uint32At(data, 0)
	if err != nil {
		t.Fatalf("Uint32At(0) failed: %v", err)
	}
	if result != 0x12345678 {
		t.Errorf("Uint32At(0) = 0x%08X, want 0x12345678", result)
	}

	if _, err := Uint32At(data, 2); err == nil {
		t.Error("Uint32At(2) should fail past the end")
	}
	if _, err := Uint32At(data, -4); err == nil {
		t.Error("Uint32At(-4) should fail")
	}
}

func TestPutUint16At(t *testing.T) {
	data := make([]byte, 4)
	if err := PutUint16At(data, 2, 0xA1FF); err != nil {
		t.Fatalf("PutUint16At() failed: %v", err)
	}
	if !bytes.Equal(data, []byte{0x00, 0x00, 0xFF, 0xA1}) {
		t.Errorf("data = % X", data)
	}
	if err := PutUint16At(data, 3, 1); err == nil {
		t.Error("PutUint16At(3) should fail past the end")
	}
}

func TestPutUint32At(t *testing.T) {
	data := make([]byte, 8)
	if err := PutUint32At(data, 4, 0x12345678); err != nil {
		t.Fatalf("PutUint32At() failed: %v", err)
	}
	if !bytes.Equal(data[4:], []byte{0x78, 0x56, 0x34, 0x12}) {
		t.Errorf("data[4:] = % X", data[4:])
	}
	if err := PutUint32At(data, 6, 1); err == nil {
		t.Error("PutUint32At(6) should fail past the end")
	}
}

func TestBytesAt(t *testing.T) {
	data := []byte{1, 2, 3, 4}

	out, err := BytesAt(data, 1, 2)
	if err != nil {
		t.Fatalf("BytesAt() failed: %v", err)
	}
	if !bytes.Equal(out, []byte{2, 3}) {
		t.Errorf("BytesAt(1, 2) = % X", out)
	}

	// The result is a copy, not an alias.
	out[0] = 0xFF
	if data[1] != 2 {
		t.Error("BytesAt() aliased the source slice")
	}

	if _, err := BytesAt(data, 2, 3); err == nil {
		t.Error("BytesAt(2, 3) should fail past the end")
	}
	if _, err := BytesAt(data, 0, -1); err == nil {
		t.Error("BytesAt() should fail with a negative count")
	}
}

func TestAlignWord(t *testing.T) {
	testCases := []struct {
		offset   int
		expected int
	}{
		{0, 0},
		{1, 4},
		{2, 4},
		{3, 4},
		{4, 4},
		{5, 8},
	}
	for _, tc := range testCases {
		if got := AlignWord(tc.offset); got != tc.expected {
			t.Errorf("AlignWord(%d) = %d, want %d", tc.offset, got, tc.expected)
		}
	}
}
