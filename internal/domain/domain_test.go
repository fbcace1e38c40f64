package domain

import (
	"encoding/json"
	"testing"
)

func TestParseVerb(t *testing.T) {
	tests := []struct {
		in     string
		want   Verb
		wantOK bool
	}{
		{"create", VerbCreate, true},
		{"update", VerbUpdate, true},
		{"delete", VerbDelete, true},
		{"destroy", "", false},
		{"", "", false},
		{"Create", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseVerb(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseVerb(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParseChangeError(t *testing.T) {
	tests := []struct {
		code string
		want ChangeError
	}{
		{"itemAlreadyExists", ErrItemAlreadyExists},
		{"fileDataMissing", ErrFileDataMissing},
		{"itemNotFound", ErrItemNotFound},
		{"malformedChangeObject", ErrMalformedChangeObject},
		{"parentNotFound", ErrParentNotFound},
		{"somethingNew", ErrUnknown},
		{"", ErrUnknown},
		{"invalidResponse", ErrUnknown},
	}
	for _, tt := range tests {
		if got := ParseChangeError(tt.code); got != tt.want {
			t.Errorf("ParseChangeError(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestChangeRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     ChangeRequest
		wantErr bool
	}{
		{
			name: "valid folder",
			req:  ChangeRequest{Name: "x", UUID: "f2dbd02c-9d43-4f29-ae97-e257d4b4a00b", IsFolder: true},
		},
		{
			name:    "empty name",
			req:     ChangeRequest{UUID: "f2dbd02c-9d43-4f29-ae97-e257d4b4a00b"},
			wantErr: true,
		},
		{
			name:    "missing uuid",
			req:     ChangeRequest{Name: "x"},
			wantErr: true,
		},
		{
			name:    "uuid is not a uuid",
			req:     ChangeRequest{Name: "x", UUID: "nope"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.req.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestChangeRequestFileDataKey(t *testing.T) {
	data, err := json.Marshal(ChangeRequest{Name: "x", UUID: "u", FileData: "Zm9v"})
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if _, ok := raw["fileDataKey"]; !ok {
		t.Errorf("payload keys = %v, want fileDataKey present", raw)
	}

	// Folders omit the key entirely.
	data, _ = json.Marshal(ChangeRequest{Name: "x", UUID: "u", IsFolder: true})
	raw = nil
	_ = json.Unmarshal(data, &raw)
	if _, ok := raw["fileDataKey"]; ok {
		t.Error("folder change carries a file payload key")
	}
}
