package tlv

import (
	"bytes"
	"testing"
)

func TestFind(t *testing.T) {
	fci := Hex(
		"6F 10",
		"84 09 F0 53 51 52 54 53 01 00 00", // DF name
		"A5 03", "88 01 01",                // proprietary template
	)

	t.Run("Nested primitive", func(t *testing.T) {
		val, ok, err := Find(fci, "84")
		if err != nil {
			t.Fatalf("Find failed: %v", err)
		}
		if !ok {
			t.Fatal("tag 84 not found")
		}
		if want := Hex("F0 53 51 52 54 53 01 00 00"); !bytes.Equal(val, want) {
			t.Errorf("Find(84) = %X, want %X", val, want)
		}
	})

	t.Run("Lower case tag", func(t *testing.T) {
		val, ok, err := Find(fci, "a5")
		if err != nil || !ok {
			t.Fatalf("Find(a5) ok=%v err=%v", ok, err)
		}
		if want := Hex("88 01 01"); !bytes.Equal(val, want) {
			t.Errorf("Find(a5) = %X, want %X", val, want)
		}
	})

	t.Run("Missing tag", func(t *testing.T) {
		_, ok, err := Find(fci, "50")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Error("tag 50 should not be found")
		}
	})
}
