package validate

import "testing"

func TestDNI(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"00000000T", true},
		{"00000000A", false}, // wrong check letter
		{"12345678Z", true},
		{"12345678z", true}, // case-insensitive
		{"1234567A", false}, // 8 chars, wrong length
		{"123456789", false},
		{"X1234567L", true}, // NIE: X maps to 0 -> 01234567 % 23 = 11 -> L
		{"Y1234567X", true}, // NIE: Y maps to 1
		{"X1234567T", false},
		{"", false},
		{" 00000000T ", true},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			if got := DNI(c.in); got != c.want {
				t.Fatalf("DNI(%q) = %v, want %v", c.in, got, c.want)
			}
		})
	}
}

func TestPhone(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"666123456", true},
		{"66612345", false}, // 8 digits
		{"666 123 456", true},
		{"666-123-456", true},
		{"6661234567", false},
		{"66612345a", false},
		{"", false},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			if got := Phone(c.in); got != c.want {
				t.Fatalf("Phone(%q) = %v, want %v", c.in, got, c.want)
			}
		})
	}
}

func TestEmail(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"", true}, // optional field
		{"ana@example.com", true},
		{"ana@example", false},
		{"@example.com", false},
		{"ana @example.com", false},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			if got := Email(c.in); got != c.want {
				t.Fatalf("Email(%q) = %v, want %v", c.in, got, c.want)
			}
		})
	}
}
