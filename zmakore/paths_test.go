package zmakore

import (
	"os"
	"path/filepath"
	"testing"

	"git.fractalqb.de/fractalqb/testerr"
)

func TestPaths_Inner(t *testing.T) {
	ps := testerr.Shall1(NewPaths("/prj", "")).BeNil(t)
	if ps.BuildRoot != "/prj/.zmade" {
		t.Fatalf("build root is '%s'", ps.BuildRoot)
	}
	table := []struct{ cwd, p, want string }{
		{"/prj", "util.cpp", "/util.cpp"},
		{"/prj/core", "util.cpp", "/core/util.cpp"},
		{"/prj/core", "../app/main.cpp", "/app/main.cpp"},
		{"/prj/core", ".", "/core"},
		{"/prj", ".", "/"},
		{"/prj/core", "/core/net", "/core/net"},
		{"/prj/core", "@boost/system", "@boost/system"},
		{"/prj", "", ""},
	}
	for _, c := range table {
		if got := ps.Inner(c.cwd, c.p); got != c.want {
			t.Errorf("inner of '%s' in '%s': got '%s', want '%s'", c.p, c.cwd, got, c.want)
		}
	}
}

func TestPaths_Build(t *testing.T) {
	root := t.TempDir()
	ps := testerr.Shall1(NewPaths(root, "")).BeNil(t)
	cwd := filepath.Join(root, "core")

	bp := testerr.Shall1(ps.Build(cwd, "util.o")).BeNil(t)
	if want := filepath.Join(ps.BuildRoot, "core", "util.o"); bp != want {
		t.Errorf("got '%s', want '%s'", bp, want)
	}
	testerr.Shall1(os.Stat(filepath.Dir(bp))).BeNil(t)

	t.Run("absolute below project root", func(t *testing.T) {
		bp := testerr.Shall1(ps.Build(cwd, filepath.Join(root, "app", "main.o"))).BeNil(t)
		if want := filepath.Join(ps.BuildRoot, "app", "main.o"); bp != want {
			t.Errorf("got '%s', want '%s'", bp, want)
		}
	})
	t.Run("already in build tree", func(t *testing.T) {
		in := filepath.Join(ps.BuildRoot, "core", "util.o")
		bp := testerr.Shall1(ps.Build(cwd, in)).BeNil(t)
		if bp != in {
			t.Errorf("got '%s', want '%s'", bp, in)
		}
	})
	if !ps.InBuildTree(ps.BuildRoot) {
		t.Error("build root must be in the build tree")
	}
	if ps.InBuildTree(root) {
		t.Error("project root must not be in the build tree")
	}
}

func TestPaths_FormalizeLibName(t *testing.T) {
	ps := testerr.Shall1(NewPaths("/prj", "")).BeNil(t)
	table := []struct {
		cwd, name string
		imported  bool
		want      string
	}{
		{"/prj", "net", false, "/net"},
		{"/prj/core", "net", false, "/core/net"},
		{"/prj/core", ":net", false, "/core/net"},
		{"/prj/app", "//core:net", false, "/core/net"},
		{"/prj/app", "/core:net", false, "/core/net"},
		{"/prj", "core/net", false, "/core/net"},
		{"/prj", "pkg", true, "@pkg/"},
		{"/prj", "pkg/sub", true, "@pkg/sub"},
		{"/prj", "@pkg//:lib", false, "@pkg/lib"},
	}
	for _, c := range table {
		got := testerr.Shall1(ps.FormalizeLibName(c.cwd, c.name, c.imported)).BeNil(t)
		if got != c.want {
			t.Errorf("formalize '%s' in '%s': got '%s', want '%s'", c.name, c.cwd, got, c.want)
		}
	}
	t.Run("empty name", func(t *testing.T) {
		testerr.Shall1(ps.FormalizeLibName("/prj", "", false)).
			Check(t, testerr.Msg("empty lib name"))
	})
	t.Run("second colon", func(t *testing.T) {
		testerr.Shall1(ps.FormalizeLibName("/prj", "a:b:c", false)).
			Check(t, testerr.Msg("the filename part of lib name 'a:b:c' may hold one ':' at most"))
	})
}
