package model

import (
	"encoding/json"
	"testing"
)

func TestFlexIDUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "number", in: `{"id": 12345}`, want: "12345"},
		{name: "string", in: `{"id": "abc-99"}`, want: "abc-99"},
		{name: "large number", in: `{"id": 9007199254740993}`, want: "9007199254740993"},
		{name: "bool", in: `{"id": true}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out struct {
				ID FlexID `json:"id"`
			}
			err := json.Unmarshal([]byte(tt.in), &out)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if out.ID.String() != tt.want {
				t.Fatalf("id = %q, want %q", out.ID, tt.want)
			}
		})
	}
}
