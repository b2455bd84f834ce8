package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ProjectFileName is looked up in the working directory and its parents.
const ProjectFileName = ".autojv.toml"

// Project is the JDK requirement a project declares.
type Project struct {
	Version     string `toml:"version"`
	Vendor      string `toml:"vendor"`
	ReleaseType string `toml:"release_type"`
	OS          string `toml:"os"`
	Arch        string `toml:"arch"`

	path string
}

// Path returns the file the project was read from.
func (p *Project) Path() string { return p.path }

// FindProject walks up from dir looking for a project file. It returns nil
// without error when there is none.
func FindProject(dir string) (*Project, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	for {
		candidate := filepath.Join(dir, ProjectFileName)
		if _, err := os.Stat(candidate); err == nil {
			return LoadProject(candidate)
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// LoadProject decodes a project file. Unknown keys are an error so typos do
// not go unnoticed.
func LoadProject(path string) (*Project, error) {
	var p Project
	md, err := toml.DecodeFile(path, &p)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	if p.Version == "" {
		return nil, fmt.Errorf("%s: version is required", path)
	}
	p.path = path
	return &p, nil
}
