package seed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadManifestDefaultsToEmbeddedFixture(t *testing.T) {
	manifest, err := LoadManifest("")
	if err != nil {
		t.Fatalf("load manifest: %v", err)
	}
	if manifest.Name != "demo" {
		t.Fatalf("expected demo manifest, got %q", manifest.Name)
	}
	if len(manifest.Characters) != 5 || len(manifest.Encounters) != 2 {
		t.Fatalf("unexpected manifest sizes: %d characters, %d encounters", len(manifest.Characters), len(manifest.Encounters))
	}
	if err := ValidateManifest(manifest); err != nil {
		t.Fatalf("embedded fixture is invalid: %v", err)
	}
}

func TestLoadManifestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	data := "name: tiny\ncharacters:\n  - id: a\n    name: Aria\n    speed:\n      base: 12\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	manifest, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("load manifest: %v", err)
	}
	if manifest.Characters[0].Speed == nil || manifest.Characters[0].Speed.Base != 12 {
		t.Fatalf("unexpected character %+v", manifest.Characters[0])
	}
}

func TestDecodeManifestRejectsUnknownFields(t *testing.T) {
	_, err := DecodeManifest(strings.NewReader("name: x\nplayers: []\n"))
	if err == nil || !strings.Contains(err.Error(), "players") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
	if _, err := DecodeManifest(strings.NewReader("")); err == nil {
		t.Fatal("expected error for empty document")
	}
}

func TestValidateManifest(t *testing.T) {
	base := func() Manifest {
		return Manifest{
			Characters: []ManifestCharacter{{ID: "a", Name: "Aria"}},
			Encounters: []ManifestEncounter{{ID: "enc", Name: "Ambush", Characters: []string{"a"}}},
		}
	}
	tests := []struct {
		name   string
		mutate func(*Manifest)
		want   string
	}{
		{"character id", func(m *Manifest) { m.Characters[0].ID = " " }, "id is required"},
		{"character name", func(m *Manifest) { m.Characters[0].Name = "" }, "name is required"},
		{"duplicate character", func(m *Manifest) {
			m.Characters = append(m.Characters, ManifestCharacter{ID: "a", Name: "Again"})
		}, "declared twice"},
		{"encounter name", func(m *Manifest) { m.Encounters[0].Name = "" }, "name is required"},
		{"unknown roster member", func(m *Manifest) { m.Encounters[0].Characters = []string{"z"} }, `unknown character "z"`},
		{"unknown command", func(m *Manifest) {
			m.Encounters[0].Commands = []ManifestCommand{{Type: "teleport"}}
		}, "commands[0]"},
		{"sync without target", func(m *Manifest) {
			m.Encounters[0].Commands = []ManifestCommand{{Type: "sync", Character: "a"}}
		}, "commands[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := base()
			tt.mutate(&m)
			err := ValidateManifest(m)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
	if err := ValidateManifest(base()); err != nil {
		t.Fatalf("valid manifest rejected: %v", err)
	}
}
