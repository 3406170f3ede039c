package publisher

import "testing"

func TestSubject(t *testing.T) {
	tests := []struct {
		prefix  string
		vehicle string
		want    string
	}{
		{"buses", "Bus 12", "buses.3994.Bus_12"},
		{"buses", " 1234 ", "buses.3994.1234"},
		{"buses", "a.b*c>d/e", "buses.3994.a_b_c_d_e"},
		{"buses", "", "buses.3994._"},
	}

	for _, tt := range tests {
		t.Run(tt.vehicle, func(t *testing.T) {
			if got := Subject(tt.prefix, 3994, tt.vehicle); got != tt.want {
				t.Fatalf("Subject(%q) = %q, want %q", tt.vehicle, got, tt.want)
			}
		})
	}
}

func TestSubjectToken_Prefix(t *testing.T) {
	if got := subjectToken("campus buses"); got != "campus_buses" {
		t.Fatalf("unexpected token %q", got)
	}
}
