package zmake

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"git.fractalqb.de/fractalqb/testerr"
)

func TestLoadWorkspace(t *testing.T) {
	dir := t.TempDir()
	testerr.Shall(os.WriteFile(filepath.Join(dir, WorkspaceFileName), []byte(`
build_dir: .build
jobs: 3
imports:
  packages:
    - name: boost
      dir: vendor/boost
libs:
  - name: "@z/z"
    file: /usr/lib/libz.so
generators:
  - ext: .txt
    rule: cp ${1}.in ${1}
`), 0666)).BeNil(t)

	ws := testerr.Shall1(LoadWorkspace(dir)).BeNil(t)
	if ws.BuildDir != ".build" {
		t.Errorf("build dir '%s'", ws.BuildDir)
	}
	if ws.Jobs != 3 {
		t.Errorf("jobs %d", ws.Jobs)
	}
	if len(ws.Imports.Packages) != 1 || ws.Imports.Packages[0].Name != "boost" {
		t.Errorf("packages: %+v", ws.Imports.Packages)
	}
	if len(ws.Libs) != 1 || ws.Libs[0].Name != "@z/z" {
		t.Errorf("libs: %+v", ws.Libs)
	}
	if len(ws.Generators) != 1 || ws.Generators[0].Ext != ".txt" {
		t.Errorf("generators: %+v", ws.Generators)
	}

	t.Run("missing file", func(t *testing.T) {
		ws := testerr.Shall1(LoadWorkspace(t.TempDir())).BeNil(t)
		if ws.BuildDir != "" || ws.Jobs != 0 {
			t.Errorf("missing file yields %+v", ws)
		}
	})

	t.Run("bad yaml", func(t *testing.T) {
		dir := t.TempDir()
		testerr.Shall(os.WriteFile(
			filepath.Join(dir, WorkspaceFileName), []byte("\tnot yaml"), 0666,
		)).BeNil(t)
		if _, err := LoadWorkspace(dir); err == nil {
			t.Error("broken workspace file must fail")
		}
	})
}

func TestWorkspace_Apply(t *testing.T) {
	dir := t.TempDir()
	testerr.Shall(os.WriteFile(filepath.Join(dir, WorkspaceFileName), []byte(`
jobs: 5
libs:
  - name: "@z/z"
    file: /usr/lib/libz.so
generators:
  - ext: .txt
    rule: cp ${1}.in ${1}
`), 0666)).BeNil(t)
	ws := testerr.Shall1(LoadWorkspace(dir)).BeNil(t)

	trace := NewTrace(context.Background(), TestTracer{t})
	eng := testerr.Shall1(NewEngine(dir, "", trace)).BeNil(t)
	testerr.Shall(ws.Apply(eng)).BeNil(t)
	if eng.Jobs != 5 {
		t.Errorf("engine has %d jobs", eng.Jobs)
	}
	lib := testerr.Shall1(eng.AccessLibrary("@z/z", false)).BeNil(t)
	if !lib.Imported() || !lib.Shared() {
		t.Error("workspace lib not imported as shared")
	}
}
