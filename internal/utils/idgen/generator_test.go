package idgen

import (
	"strings"
	"testing"
)

func TestGenerateSecureID(t *testing.T) {
	tests := []struct {
		name       string
		prefix     string
		length     int
		wantErr    bool
		wantPrefix string
	}{
		{
			name:       "generate prompt ID",
			prefix:     "prm",
			length:     16,
			wantErr:    false,
			wantPrefix: "prm_",
		},
		{
			name:       "generate report ID",
			prefix:     "rep",
			length:     16,
			wantErr:    false,
			wantPrefix: "rep_",
		},
		{
			name:       "generate short ID",
			prefix:     "test",
			length:     8,
			wantErr:    false,
			wantPrefix: "test_",
		},
		{
			name:    "reject zero length",
			prefix:  "test",
			length:  0,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GenerateSecureID(tt.prefix, tt.length)
			if (err != nil) != tt.wantErr {
				t.Errorf("GenerateSecureID() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if !strings.HasPrefix(got, tt.wantPrefix) {
				t.Errorf("GenerateSecureID() = %q, want prefix %q", got, tt.wantPrefix)
			}
			if len(got) != len(tt.wantPrefix)+tt.length {
				t.Errorf("GenerateSecureID() length = %d, want %d", len(got), len(tt.wantPrefix)+tt.length)
			}
		})
	}
}

func TestGenerateSecureID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := GenerateSecureID("prm", 16)
		if err != nil {
			t.Fatalf("GenerateSecureID() error = %v", err)
		}
		if seen[id] {
			t.Fatalf("GenerateSecureID() produced duplicate %q", id)
		}
		seen[id] = true
	}
}
