package persona

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Custom persona files are TOML:
//
//	id = "brand"
//	name = "Brand Guardian"
//	focus = "brand"
//	description = "Logo use, voice, palette drift"
//	system = """You are..."""

// LoadDir loads custom personas from *.toml files in dir and registers
// them. A missing directory is not an error. Files that fail to parse
// are reported together so one bad file cannot hide another.
func LoadDir(r *Registry, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read personas dir: %w", err)
	}

	loaded := 0
	var errs []string

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		p, err := LoadFile(path)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", entry.Name(), err))
			continue
		}

		if err := r.Register(p); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", entry.Name(), err))
			continue
		}
		loaded++
	}

	if len(errs) > 0 {
		return loaded, fmt.Errorf("load personas: %s", strings.Join(errs, "; "))
	}
	return loaded, nil
}

// LoadFile loads a single persona from a TOML file.
func LoadFile(path string) (Persona, error) {
	var p Persona
	if _, err := toml.DecodeFile(path, &p); err != nil {
		return Persona{}, fmt.Errorf("parse toml: %w", err)
	}

	if p.ID == "" {
		return Persona{}, fmt.Errorf("missing id")
	}
	if p.System == "" {
		return Persona{}, fmt.Errorf("persona %q missing system prompt", p.ID)
	}
	if p.Name == "" {
		p.Name = p.ID
	}
	if p.Focus == "" {
		p.Focus = p.ID
	}

	return p, nil
}
