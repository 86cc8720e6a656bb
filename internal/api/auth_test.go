package api

import (
	"net/http/httptest"
	"testing"
)

func TestValidKey(t *testing.T) {
	keys := []string{"", "lk-one", "lk-two"}
	tests := []struct {
		presented string
		want      bool
	}{
		{"lk-one", true},
		{"lk-two", true},
		{"", false},
		{"lk-on", false},
		{"lk-one ", false},
		{"LK-ONE", false},
	}
	for _, tt := range tests {
		if got := validKey(tt.presented, keys); got != tt.want {
			t.Errorf("validKey(%q) = %v, want %v", tt.presented, got, tt.want)
		}
	}
	if validKey("lk-one", nil) {
		t.Error("validKey with no configured keys should be false")
	}
}

func TestPresentedKey(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		want   string
	}{
		{"configured header", map[string]string{"X-API-Key": "k1"}, "k1"},
		{"bearer", map[string]string{"Authorization": "Bearer k2"}, "k2"},
		{"header wins", map[string]string{"X-API-Key": "k1", "Authorization": "Bearer k2"}, "k1"},
		{"basic ignored", map[string]string{"Authorization": "Basic k3"}, ""},
		{"short authorization", map[string]string{"Authorization": "Bearer"}, ""},
		{"none", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/v1/settings", nil)
			for k, v := range tt.header {
				r.Header.Set(k, v)
			}
			if got := presentedKey(r, "X-API-Key"); got != tt.want {
				t.Errorf("presentedKey() = %q, want %q", got, tt.want)
			}
		})
	}
}
