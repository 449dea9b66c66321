package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"99999999.99", 99_999_999_99, true},
		{"100000000.00", 0, false}, // 9 integer digits
		{"184467440737095517", 0, false}, // would wrap int64 when scaled
		{"9223372036854775807", 0, false},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"0.00", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestParseCentsAllowsZero(t *testing.T) {
	got, err := ParseCents("0")
	if err != nil || got != 0 {
		t.Fatalf("expected 0 cents, got %d (err=%v)", got, err)
	}
	got, err = ParseCents("0.00")
	if err != nil || got != 0 {
		t.Fatalf("expected 0 cents, got %d (err=%v)", got, err)
	}
	if _, err := ParseCents("-1"); err == nil {
		t.Fatal("expected error for negative amount")
	}
	if _, err := ParseCents("184467440737095517"); err == nil {
		t.Fatal("expected error for out-of-range amount")
	}
}

func TestMoneyString(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "0.00"},
		{1, "0.01"},
		{123, "1.23"},
		{6_000_000_00, "6000000.00"},
		{-250, "-2.50"},
	}
	for _, tc := range cases {
		if got := (Money{Cents: tc.cents}).String(); got != tc.want {
			t.Fatalf("Money{%d}.String() = %q, want %q", tc.cents, got, tc.want)
		}
	}
}
