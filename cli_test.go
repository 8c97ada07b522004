package zmake

import (
	"os"
	"path/filepath"
	"testing"

	"git.fractalqb.de/fractalqb/testerr"
)

func Test_isProjectRoot(t *testing.T) {
	dir := t.TempDir()
	if isProjectRoot(dir) {
		t.Error("empty dir counts as project root")
	}
	testerr.Shall(os.WriteFile(filepath.Join(dir, RulesFileName), []byte("package main\n"), 0666)).BeNil(t)
	if !isProjectRoot(dir) {
		t.Error("dir with rules file is no project root")
	}

	dir = t.TempDir()
	testerr.Shall(os.WriteFile(filepath.Join(dir, WorkspaceFileName), []byte("jobs: 1\n"), 0666)).BeNil(t)
	if !isProjectRoot(dir) {
		t.Error("dir with workspace file is no project root")
	}
}

func Test_selectTargets(t *testing.T) {
	eng := testProject(t)
	testerr.Shall(Edit(eng, func(prj ProjectEd) {
		prj.InDir("core", func(d DirEd) {
			d.Library("net", "conn.cpp")
		})
		prj.InDir("app", func(d DirEd) {
			d.Binary("app", "main.cpp").Libs("/core/net")
		})
	})).BeNil(t)

	t.Run("object target pulls its libraries", func(t *testing.T) {
		eng.ClearTargets()
		testerr.Shall(selectTargets(eng, &Options{
			Targets: []string{"core/conn.cpp"},
		})).BeNil(t)
		ts := eng.Targets()
		if len(ts) != 2 {
			t.Fatalf("selected %d targets", len(ts))
		}
		var hasLib bool
		for _, n := range ts {
			if l, ok := n.(*Library); ok && l.Key() == "/core/net" {
				hasLib = true
			}
		}
		if !hasLib {
			t.Error("library holding the object not selected")
		}
	})

	t.Run("target dirs", func(t *testing.T) {
		eng.ClearTargets()
		testerr.Shall(selectTargets(eng, &Options{
			TargetDirs: []string{"app"},
		})).BeNil(t)
		ts := eng.Targets()
		if len(ts) != 1 {
			t.Fatalf("selected %d targets", len(ts))
		}
		if _, ok := ts[0].(*Binary); !ok {
			t.Errorf("selected a %s", ts[0].Base().Kind())
		}
	})

	t.Run("unknown target", func(t *testing.T) {
		eng.ClearTargets()
		testerr.Shall(selectTargets(eng, &Options{
			Targets: []string{"no-such-thing"},
		})).Check(t, testerr.Msg("can't find the target 'no-such-thing'"))
	})

	t.Run("empty target dir", func(t *testing.T) {
		eng.ClearTargets()
		testerr.Shall(selectTargets(eng, &Options{
			TargetDirs: []string{"docs"},
		})).Check(t, testerr.Msg("no targets under 'docs'"))
	})
}
