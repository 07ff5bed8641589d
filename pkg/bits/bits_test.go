package bits

import "testing"

func TestBit(t *testing.T) {
	tests := []struct {
		n        uint
		expected byte
	}{
		{1, 0x01}, {5, 0x10}, {8, 0x80},
		{0, 0x00}, {9, 0x00},
	}

	for _, tt := range tests {
		if res := Bit(tt.n); res != tt.expected {
			t.Errorf("Bit(%d) = 0x%02X; want 0x%02X", tt.n, res, tt.expected)
		}
	}
}

func TestSetClear(t *testing.T) {
	// Proprietary CLA 0x80 is b8 set.
	if got := Set(0x00, 8); got != 0x80 {
		t.Errorf("Set(0x00, 8) = 0x%02X; want 0x80", got)
	}
	if !IsSet(0x80, 8) {
		t.Error("b8 should be set in 0x80")
	}
	// Dropping the chaining bit (b5) from a chained CLA.
	if got := Clear(0x10, 5); got != 0x00 {
		t.Errorf("Clear(0x10, 5) = 0x%02X; want 0x00", got)
	}
	if got := Clear(0x80, 5); got != 0x80 {
		t.Errorf("Clear(0x80, 5) = 0x%02X; want 0x80", got)
	}
}

func TestGetRange(t *testing.T) {
	tests := []struct {
		name     string
		input    byte
		high     uint
		low      uint
		expected byte
	}{
		{"Channel bits of 0x03", 0b0000_0011, 2, 1, 3},
		{"SM bits of 0x0C", 0b0000_1100, 4, 3, 3},
		{"Full byte", 0xAA, 8, 1, 0xAA},
		{"Inverted range", 0xFF, 1, 4, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if res := GetRange(tt.input, tt.high, tt.low); res != tt.expected {
				t.Errorf("GetRange(0x%02X, %d, %d) = %d; want %d", tt.input, tt.high, tt.low, res, tt.expected)
			}
		})
	}
}

func TestNibbles(t *testing.T) {
	// 63C3: three retries left.
	if got := HighNibble(0xC3); got != 0x0C {
		t.Errorf("HighNibble(0xC3) = 0x%X; want 0xC", got)
	}
	if got := LowNibble(0xC3); got != 3 {
		t.Errorf("LowNibble(0xC3) = %d; want 3", got)
	}
}
