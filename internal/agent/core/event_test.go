package core

import "testing"

func TestParseCommand(t *testing.T) {
	tests := []struct {
		payload string
		want    string
		wantErr bool
	}{
		{`{"action":"forward"}`, "forward", false},
		{" turnleft\n", "turnleft", false},
		{`{"action":""}`, "", true},
		{`{"action":`, "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseCommand([]byte(tt.payload))
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseCommand(%q) = %q, %v, want %q, wantErr %v", tt.payload, got, err, tt.want, tt.wantErr)
		}
	}
}
