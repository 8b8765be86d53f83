package catalog

import (
	"reflect"
	"testing"
)

func TestParsePayload(t *testing.T) {
	tests := []struct {
		name string
		text string
		want any
	}{
		{"json object", `{"ok":true}`, map[string]any{"ok": true}},
		{"json array", `[1,2]`, []any{float64(1), float64(2)}},
		{"raw text", "workflow service is restarting", "workflow service is restarting"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePayload(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParsePayload(%q) = %#v, want %#v", tt.text, got, tt.want)
			}
		})
	}
}
