package iso7816

import (
	"strings"
	"testing"
)

func TestNewClass(t *testing.T) {
	tests := []struct {
		name    string
		cla     byte
		wantErr bool
		check   func(Class) bool
	}{
		{
			name:    "Reserved FF",
			cla:     0xFF,
			wantErr: true,
		},
		{
			name: "First Interindustry - Ch 0",
			cla:  0x00,
			check: func(c Class) bool {
				return !c.IsProprietary && c.Channel == 0 && !c.IsChained
			},
		},
		{
			name: "First Interindustry - Ch 3, Chaining",
			// 0b0(Prop)_0(First)_0_1(Chain)_00(SM)_11(Ch3)
			cla: 0b0_0_0_1_00_11,
			check: func(c Class) bool {
				return c.IsChained && c.Channel == 3
			},
		},
		{
			name: "Further Interindustry - Ch 19",
			// 0b0(Prop)_1(Further)_0(SM)_0(NoChain)_1111(Offset 15 -> Ch 19)
			cla: 0b0_1_0_0_1111,
			check: func(c Class) bool {
				return c.Channel == 19 && !c.IsChained
			},
		},
		{
			name: "Proprietary Class 80",
			cla:  0x80,
			check: func(c Class) bool {
				return c.IsProprietary && c.Raw == 0x80
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClass(tt.cla)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewClass() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && !tt.check(c) {
				t.Errorf("NewClass(%08b) failed validation: %+v", tt.cla, c)
			}
		})
	}
}

func TestClass_Encode_RoundTrip(t *testing.T) {
	testCases := []byte{
		0x00,
		0x80,
		0b0_0_0_1_11_11, // First Interindustry: Ch 3, SM bits, Chaining
		0b0_1_0_0_0000,  // Further Interindustry: Ch 4
		0b0_1_1_1_1111,  // Further Interindustry: Ch 19, SM, Chaining
	}

	for _, originalCla := range testCases {
		c, err := NewClass(originalCla)
		if err != nil {
			t.Fatalf("Failed to create class from %08b: %v", originalCla, err)
		}

		encoded, err := c.Encode()
		if err != nil {
			t.Fatalf("Failed to encode class %v: %v", c, err)
		}

		if encoded != originalCla {
			t.Errorf("Round-trip mismatch: got %08b, want %08b", encoded, originalCla)
		}
	}
}

func TestClass_ForResponse(t *testing.T) {
	t.Run("Proprietary falls back to interindustry", func(t *testing.T) {
		got := MustClass(0x80).ForResponse()
		raw, _ := got.Encode()
		if raw != 0x00 {
			t.Errorf("ForResponse() = %02X, want 00", raw)
		}
	})

	t.Run("Chaining dropped, channel kept", func(t *testing.T) {
		got := MustClass(0b0_0_0_1_00_10).ForResponse()
		raw, _ := got.Encode()
		if raw != 0x02 {
			t.Errorf("ForResponse() = %02X, want 02", raw)
		}
	})
}

func TestMustClass_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustClass(0xFF) should panic")
		}
	}()
	MustClass(0xFF)
}

func TestClass_Verbose(t *testing.T) {
	if got := MustClass(0x80).Verbose(); !strings.Contains(got, "Proprietary (0x80)") {
		t.Errorf("Verbose() = %q", got)
	}
	if got := MustClass(0x01).Verbose(); !strings.Contains(got, "Logical Channel: 1") {
		t.Errorf("Verbose() = %q", got)
	}
}
