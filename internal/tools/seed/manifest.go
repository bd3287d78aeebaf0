package seed

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures/*.yaml
var fixtures embed.FS

// DefaultFixture is the embedded manifest used when no path is given.
const DefaultFixture = "fixtures/demo.yaml"

// Manifest is a seed document.
type Manifest struct {
	Name       string              `yaml:"name"`
	Characters []ManifestCharacter `yaml:"characters"`
	Encounters []ManifestEncounter `yaml:"encounters"`
}

// ManifestCharacter declares one character.
type ManifestCharacter struct {
	ID    string         `yaml:"id"`
	Name  string         `yaml:"name"`
	Level int            `yaml:"level,omitempty"`
	Speed *ManifestSpeed `yaml:"speed,omitempty"`
}

// ManifestSpeed is a character's speed statistic.
type ManifestSpeed struct {
	Base  float64 `yaml:"base"`
	Bonus float64 `yaml:"bonus,omitempty"`
	Gain  float64 `yaml:"gain,omitempty"`
}

// ManifestEncounter declares one encounter, its starting roster and the
// commands replayed after creation.
type ManifestEncounter struct {
	ID         string            `yaml:"id"`
	Name       string            `yaml:"name"`
	Characters []string          `yaml:"characters,omitempty"`
	Commands   []ManifestCommand `yaml:"commands,omitempty"`
}

// ManifestCommand is one roster command. Type accepts short names such as
// "advance".
type ManifestCommand struct {
	Type      string `yaml:"type"`
	Character string `yaml:"character,omitempty"`
	Target    string `yaml:"target,omitempty"`
	Team      string `yaml:"team,omitempty"`
	Position  int    `yaml:"position,omitempty"`
	Index     int    `yaml:"index,omitempty"`
	Locked    int    `yaml:"locked,omitempty"`
}

// LoadManifest reads a manifest from path, or the embedded default fixture
// when path is empty.
func LoadManifest(path string) (Manifest, error) {
	var (
		data []byte
		err  error
	)
	if strings.TrimSpace(path) == "" {
		data, err = fixtures.ReadFile(DefaultFixture)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	return DecodeManifest(bytes.NewReader(data))
}

// DecodeManifest parses a YAML manifest. Unknown fields are rejected.
func DecodeManifest(r io.Reader) (Manifest, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var manifest Manifest
	if err := decoder.Decode(&manifest); err != nil {
		if errors.Is(err, io.EOF) {
			return Manifest{}, fmt.Errorf("decode manifest: document is empty")
		}
		return Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	return manifest, nil
}

// ValidateManifest checks identifiers, names and cross references.
func ValidateManifest(manifest Manifest) error {
	characters := make(map[string]struct{}, len(manifest.Characters))
	for i, c := range manifest.Characters {
		id := strings.TrimSpace(c.ID)
		if id == "" {
			return fmt.Errorf("characters[%d]: id is required", i)
		}
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("character %q: name is required", id)
		}
		if _, dup := characters[id]; dup {
			return fmt.Errorf("character %q: declared twice", id)
		}
		characters[id] = struct{}{}
	}

	encounters := make(map[string]struct{}, len(manifest.Encounters))
	for i, e := range manifest.Encounters {
		id := strings.TrimSpace(e.ID)
		if id == "" {
			return fmt.Errorf("encounters[%d]: id is required", i)
		}
		if strings.TrimSpace(e.Name) == "" {
			return fmt.Errorf("encounter %q: name is required", id)
		}
		if _, dup := encounters[id]; dup {
			return fmt.Errorf("encounter %q: declared twice", id)
		}
		encounters[id] = struct{}{}
		for _, characterID := range e.Characters {
			if _, ok := characters[strings.TrimSpace(characterID)]; !ok {
				return fmt.Errorf("encounter %q: unknown character %q", id, characterID)
			}
		}
		for j, cmd := range e.Commands {
			if err := commandFromManifest(cmd).Validate(); err != nil {
				return fmt.Errorf("encounter %q: commands[%d]: %w", id, j, err)
			}
		}
	}
	return nil
}
