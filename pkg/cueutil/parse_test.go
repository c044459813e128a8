// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"
)

const testSchema = `
#Slot: {
	name:   string
	index:  int & >=0
	backup: bool | *false
	label?: string
}
`

type testSlot struct {
	Name   string `json:"name"`
	Index  int    `json:"index"`
	Backup bool   `json:"backup"`
	Label  string `json:"label,omitempty"`
}

func TestParseAndDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		want    testSlot
		wantErr string
	}{
		{
			name: "cue document",
			data: "name: \"slot\"\nindex: 2\nlabel: \"manual\"\n",
			want: testSlot{Name: "slot", Index: 2, Label: "manual"},
		},
		{
			name: "json document",
			data: `{"name": "slot", "index": 0, "backup": true}`,
			want: testSlot{Name: "slot", Backup: true},
		},
		{
			name:    "constraint violation",
			data:    "name: \"slot\"\nindex: -1\n",
			wantErr: "index",
		},
		{
			name:    "wrong type",
			data:    "name: 3\nindex: 1\n",
			wantErr: "name",
		},
		{
			name:    "missing required field",
			data:    "index: 1\n",
			wantErr: "slot.cue",
		},
		{
			name:    "syntax error",
			data:    "name: \"unterminated\n",
			wantErr: "slot.cue",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := ParseAndDecode[testSlot]([]byte(testSchema), []byte(tt.data), "#Slot", WithFilename("slot.cue"))
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("ParseAndDecode() = %+v, want error", result.Value)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error %q should mention %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAndDecode() error: %v", err)
			}
			if *result.Value != tt.want {
				t.Errorf("ParseAndDecode() = %+v, want %+v", *result.Value, tt.want)
			}
		})
	}
}

func TestParseAndDecode_MaxFileSize(t *testing.T) {
	t.Parallel()

	data := []byte("name: \"" + strings.Repeat("x", 64) + "\"\nindex: 1\n")
	_, err := ParseAndDecode[testSlot]([]byte(testSchema), data, "#Slot", WithMaxFileSize(16))
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("error = %v, want ErrFileTooLarge", err)
	}
}

func TestParseAndDecode_NonConcrete(t *testing.T) {
	t.Parallel()

	data := []byte("name: string\nindex: 1\n")
	if _, err := ParseAndDecode[testSlot]([]byte(testSchema), data, "#Slot"); err == nil {
		t.Error("expected error for non-concrete value")
	}
}

func TestParseAndDecode_UnknownDefinition(t *testing.T) {
	t.Parallel()

	_, err := ParseAndDecode[testSlot]([]byte(testSchema), []byte("name: \"a\"\n"), "#Missing")
	if err == nil || !strings.Contains(err.Error(), "#Missing") {
		t.Errorf("error = %v, want schema definition error", err)
	}
}
