package zmake

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// WorkspaceFileName marks a project root and carries project-wide settings
// that do not belong into rule code.
const WorkspaceFileName = "WORKSPACE.yaml"

// Workspace is the YAML shape of a workspace file. Every field is optional.
type Workspace struct {
	BuildDir string `yaml:"build_dir"`
	Jobs     int    `yaml:"jobs"`

	Imports struct {
		Packages []struct {
			Name string `yaml:"name"`
			Dir  string `yaml:"dir"`
		} `yaml:"packages"`
		Projects []string `yaml:"projects"`
	} `yaml:"imports"`

	Libs []struct {
		Name        string   `yaml:"name"`
		File        string   `yaml:"file"`
		IncludeDirs []string `yaml:"include_dirs"`
	} `yaml:"libs"`

	Generators []struct {
		Ext  string `yaml:"ext"`
		Rule string `yaml:"rule"`
	} `yaml:"generators"`
}

// LoadWorkspace reads the workspace file in dir. A missing file yields a
// zero workspace.
func LoadWorkspace(dir string) (*Workspace, error) {
	data, err := os.ReadFile(filepath.Join(dir, WorkspaceFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return new(Workspace), nil
		}
		return nil, err
	}
	ws := new(Workspace)
	if err := yaml.Unmarshal(data, ws); err != nil {
		return nil, fmt.Errorf("%s: %w", WorkspaceFileName, err)
	}
	return ws, nil
}

// Apply wires the workspace's imports, external libs and generators into
// the engine.
func (ws *Workspace) Apply(eng *Engine) error {
	if ws.Jobs > 0 {
		eng.Jobs = ws.Jobs
	}
	for _, p := range ws.Imports.Packages {
		if err := eng.ImportLibraries(p.Name, p.Dir); err != nil {
			return err
		}
	}
	for _, p := range ws.Imports.Projects {
		if _, err := eng.ImportExternalProject(p); err != nil {
			return err
		}
	}
	for _, l := range ws.Libs {
		if _, err := eng.ImportLibrary(l.Name, l.File, l.IncludeDirs...); err != nil {
			return err
		}
	}
	for _, g := range ws.Generators {
		eng.RegisterGenerator(g.Ext, g.Rule)
	}
	return nil
}
