package zmakore

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"git.fractalqb.de/fractalqb/testerr"
)

func TestEngine_BuildAll_generated(t *testing.T) {
	e := testEngine(t)
	root := e.Paths().ProjectRoot
	testerr.Shall(os.WriteFile(filepath.Join(root, "hello.txt.in"), []byte("hi\n"), 0666)).BeNil(t)

	n := testerr.Shall1(e.AccessFile("hello.txt")).BeNil(t)
	n.Base().SetGenerator(NewGenerator("cp ${1}.in ${1}"))
	testerr.Shall(n.Base().AddDeps("hello.txt.in")).BeNil(t)
	n.Base().BeTarget()

	e.Jobs = 1
	testerr.Shall(e.BuildAll()).BeNil(t)
	out := filepath.Join(root, "hello.txt")
	data := testerr.Shall1(os.ReadFile(out)).BeNil(t)
	if string(data) != "hi\n" {
		t.Errorf("built content %q", data)
	}
	cmd := testerr.Shall1(os.ReadFile(out + ".cmd")).BeNil(t)
	if want := fmt.Sprintf("cp %s.in %s", out, out); string(cmd) != want {
		t.Errorf("recorded command %q, want %q", cmd, want)
	}
	testerr.Shall1(os.Stat(filepath.Join(e.Paths().BuildRoot, Md5sFileName))).BeNil(t)

	rebuild := func(t *testing.T) os.FileInfo {
		e := testerr.Shall1(NewEngine(root, "", e.Trace())).BeNil(t)
		e.Jobs = 1
		n := testerr.Shall1(e.AccessFile("hello.txt")).BeNil(t)
		n.Base().SetGenerator(NewGenerator("cp ${1}.in ${1}"))
		testerr.Shall(n.Base().AddDeps("hello.txt.in")).BeNil(t)
		n.Base().BeTarget()
		testerr.Shall(e.BuildAll()).BeNil(t)
		return testerr.Shall1(os.Stat(out)).BeNil(t)
	}

	t.Run("unchanged input builds nothing", func(t *testing.T) {
		before := testerr.Shall1(os.Stat(out)).BeNil(t)
		after := rebuild(t)
		if !after.ModTime().Equal(before.ModTime()) {
			t.Error("target was rebuilt without any change")
		}
	})

	t.Run("changed input rebuilds", func(t *testing.T) {
		testerr.Shall(os.WriteFile(
			filepath.Join(root, "hello.txt.in"), []byte("ho\n"), 0666,
		)).BeNil(t)
		rebuild(t)
		data := testerr.Shall1(os.ReadFile(out)).BeNil(t)
		if string(data) != "ho\n" {
			t.Errorf("built content %q", data)
		}
	})
}

func TestEngine_BuildAll_concurrent(t *testing.T) {
	e := testEngine(t)
	top := testerr.Shall1(e.AccessFile("all.txt")).BeNil(t)
	catCmd := "cat"
	for i := 0; i < 4; i++ {
		part := fmt.Sprintf("part%d.txt", i)
		n := testerr.Shall1(e.AccessFile(part)).BeNil(t)
		n.Base().SetFullCommand(fmt.Sprintf("echo %d > %s", i, part))
		testerr.Shall(top.Base().AddDep(n)).BeNil(t)
		catCmd += " " + part
	}
	top.Base().SetFullCommand(catCmd + " > all.txt")
	top.Base().BeTarget()

	e.Jobs = 4
	testerr.Shall(e.BuildAll()).BeNil(t)
	data := testerr.Shall1(os.ReadFile(
		filepath.Join(e.Paths().ProjectRoot, "all.txt"),
	)).BeNil(t)
	if string(data) != "0\n1\n2\n3\n" {
		t.Errorf("built content %q", data)
	}
}

func TestEngine_BuildAll_failure(t *testing.T) {
	e := testEngine(t)
	n := testerr.Shall1(e.AccessFile("broken.txt")).BeNil(t)
	n.Base().SetFullCommand("false")
	n.Base().BeTarget()
	e.Jobs = 1
	testerr.Shall(e.BuildAll()).Check(t,
		testerr.Msg(fmt.Sprintf("build '%s': exit status 1", n.Base().Path())))

	t.Run("concurrent", func(t *testing.T) {
		e := testEngine(t)
		n := testerr.Shall1(e.AccessFile("broken.txt")).BeNil(t)
		n.Base().SetFullCommand("false")
		n.Base().BeTarget()
		e.Jobs = 2
		if err := e.BuildAll(); err == nil {
			t.Error("failing target must stop the build")
		}
	})
}

func TestEngine_runners(t *testing.T) {
	e := testEngine(t)
	n := testerr.Shall1(e.AccessFile("out.txt")).BeNil(t)
	n.Base().SetFullCommand("echo out > out.txt")
	n.Base().BeTarget()
	var order []string
	e.PreRun(func(*Engine) error { order = append(order, "pre"); return nil })
	e.PostRun(func(*Engine) error { order = append(order, "post"); return nil })
	e.Jobs = 1
	testerr.Shall(e.BuildAll()).BeNil(t)
	if len(order) != 2 || order[0] != "pre" || order[1] != "post" {
		t.Errorf("runners ran as %v", order)
	}
}

func TestEngine_InstallAll(t *testing.T) {
	e := testEngine(t)
	root := e.Paths().ProjectRoot
	n := testerr.Shall1(e.AccessFile("tool.txt")).BeNil(t)
	n.Base().SetFullCommand("echo tool > tool.txt")
	n.Base().BeTarget()
	dest := filepath.Join(root, "dist")
	e.RegisterInstall(n, dest, false)
	e.Jobs = 1
	testerr.Shall(e.BuildAll()).BeNil(t)
	testerr.Shall(e.InstallAll()).BeNil(t)
	data := testerr.Shall1(os.ReadFile(filepath.Join(dest, "tool.txt"))).BeNil(t)
	if string(data) != "tool\n" {
		t.Errorf("installed content %q", data)
	}

	t.Run("symlink", func(t *testing.T) {
		e := testEngine(t)
		root := e.Paths().ProjectRoot
		n := testerr.Shall1(e.AccessFile("tool.txt")).BeNil(t)
		n.Base().SetFullCommand("echo tool > tool.txt")
		n.Base().BeTarget()
		dest := filepath.Join(root, "dist")
		e.RegisterInstall(n, dest, true)
		e.Jobs = 1
		testerr.Shall(e.BuildAll()).BeNil(t)
		testerr.Shall(e.InstallAll()).BeNil(t)
		tgt := testerr.Shall1(os.Readlink(filepath.Join(dest, "tool.txt"))).BeNil(t)
		if tgt != n.Base().Path() {
			t.Errorf("symlink points to '%s'", tgt)
		}
	})
}
