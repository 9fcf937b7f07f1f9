package spool

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseList(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{"duplicates keep first", "A\nA\nB", []string{"A", "B"}},
		{"commas and spaces", " SP-001 , SP-002,SP-003 ", []string{"SP-001", "SP-002", "SP-003"}},
		{"windows newlines", "SP-1\r\nSP-2\r\n\r\n", []string{"SP-1", "SP-2"}},
		{"semicolons", "X;Y;;X", []string{"X", "Y"}},
		{"inner spaces kept", "PF 10\nPF 10 ", []string{"PF 10"}},
		{"case folded keeps first spelling", "sp-001\nSP-001\n Sp-001 \nSP-002", []string{"sp-001", "SP-002"}},
		{"order preserved", "C\nA\nB\nA", []string{"C", "A", "B"}},
		{"blank", "   \n\t\n", []string{}},
		{"empty", "", []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseList(tc.in)
			if got == nil {
				t.Fatalf("ParseList(%q) returned nil", tc.in)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("ParseList(%q) mismatch (-want +got):\n%s", tc.in, diff)
			}
		})
	}
}

func TestJoinRoundTrip(t *testing.T) {
	ids := []string{"SP-1", "SP-2"}
	if diff := cmp.Diff(ids, ParseList(Join(ids))); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}
