package assets

import (
	"bytes"
	"io/fs"
	"testing"
)

func TestGetTemplatesFS(t *testing.T) {
	fsys := GetTemplatesFS()
	if fsys == nil {
		t.Fatal("GetTemplatesFS returned nil")
	}

	data, err := fs.ReadFile(fsys, "report/summary.hbs")
	if err != nil {
		t.Fatalf("Failed to read summary template: %v", err)
	}
	if !bytes.Contains(data, []byte("{{#each counts}}")) {
		t.Error("summary template should iterate counts")
	}
}

func TestGetEmbeddedAsset(t *testing.T) {
	tests := []struct {
		path    string
		wantErr bool
		want    string
	}{
		{path: "config/mappack.yaml", want: "ignore_file: .mappackignore"},
		{path: "report/summary.hbs", want: "Digest"},
		{path: "missing.txt", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			data, err := GetEmbeddedAsset(tt.path)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %s", tt.path)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetEmbeddedAsset(%q): %v", tt.path, err)
			}
			if !bytes.Contains(data, []byte(tt.want)) {
				t.Errorf("%s does not contain %q", tt.path, tt.want)
			}
		})
	}
}

func TestGetSchema(t *testing.T) {
	data, ok := GetSchema("config/mappack-config-v1.yaml")
	if !ok {
		t.Fatal("config schema is not embedded")
	}
	if !bytes.Contains(data, []byte("enum: [auto, local, wine]")) {
		t.Error("config schema should restrict tools.mode")
	}
	if _, ok := GetSchema("config/missing.yaml"); ok {
		t.Error("expected missing schema to report false")
	}
}
