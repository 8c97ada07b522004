package zmakore

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"git.fractalqb.de/fractalqb/testerr"
)

func TestObject_Compose(t *testing.T) {
	e := testEngine(t)
	var obj *Object
	testerr.Shall(e.InDir("core", func(e *Engine) (err error) {
		if obj, err = e.AccessObject("util.cpp"); err != nil {
			return err
		}
		return obj.AddSrc("util.cpp")
	})).BeNil(t)

	if has := testerr.Shall1(obj.Compose()).BeNil(t); !has {
		t.Fatal("object has nothing to build")
	}
	root := e.Paths().ProjectRoot
	src := filepath.Join(root, "core", "util.cpp")
	want := fmt.Sprintf("g++ -c -o %s -MD -MF %s.d -idirafter %s -idirafter %s %s",
		obj.Path(), obj.Path(), root, e.Paths().BuildRoot, src)
	cmd := testerr.Shall1(obj.FullCommand(false)).BeNil(t)
	if cmd != want {
		t.Errorf("composed\n'%s', want\n'%s'", cmd, want)
	}

	t.Run("include dirs and flags", func(t *testing.T) {
		e := testEngine(t)
		e.SetOptimizationLevel(2)
		var obj *Object
		testerr.Shall(e.InDir("core", func(e *Engine) (err error) {
			if obj, err = e.AccessObject("util.cpp"); err != nil {
				return err
			}
			if err = obj.AddSrc("util.cpp"); err != nil {
				return err
			}
			obj.AddIncludeDir("inc")
			obj.AddIncludeDir("inc")
			obj.SetFlag("-std=c++17")
			return nil
		})).BeNil(t)
		testerr.Shall1(obj.Compose()).BeNil(t)
		root := e.Paths().ProjectRoot
		want := fmt.Sprintf(
			"g++ -c -o %s -MD -MF %s.d -idirafter %s -idirafter %s -std=c++17 -idirafter %s %s -O2",
			obj.Path(), obj.Path(),
			root, filepath.Join(root, "core", "inc"), e.Paths().BuildRoot,
			filepath.Join(root, "core", "util.cpp"),
		)
		cmd := testerr.Shall1(obj.FullCommand(false)).BeNil(t)
		if cmd != want {
			t.Errorf("composed\n'%s', want\n'%s'", cmd, want)
		}
	})

	t.Run("no source", func(t *testing.T) {
		e := testEngine(t)
		obj := testerr.Shall1(e.AccessObject("lone.o")).BeNil(t)
		testerr.Shall1(obj.Compose()).Check(t,
			testerr.Msg(fmt.Sprintf("object '%s' has no source", obj.Path())))
	})
}

func TestLibrary_Compose(t *testing.T) {
	t.Run("static", func(t *testing.T) {
		e := testEngine(t)
		var lib *Library
		testerr.Shall(e.InDir("core", func(e *Engine) (err error) {
			if lib, err = e.AccessLibrary("util", false); err != nil {
				return err
			}
			return lib.AddObjs("util.cpp")
		})).BeNil(t)
		testerr.Shall1(lib.Compose()).BeNil(t)
		obj := filepath.Join(e.Paths().BuildRoot, "core", "util.o")
		want := fmt.Sprintf("ar crs %s %s", lib.Path(), obj)
		cmd := testerr.Shall1(lib.FullCommand(false)).BeNil(t)
		if cmd != want {
			t.Errorf("composed\n'%s', want\n'%s'", cmd, want)
		}
	})

	t.Run("shared", func(t *testing.T) {
		e := testEngine(t)
		var lib, dep *Library
		testerr.Shall(e.InDir("core", func(e *Engine) (err error) {
			if dep, err = e.AccessLibrary("base", false); err != nil {
				return err
			}
			if err = dep.AddObjs("base.cpp"); err != nil {
				return err
			}
			if lib, err = e.AccessLibrary("gfx", true); err != nil {
				return err
			}
			if err = lib.AddObjs("gfx.cpp"); err != nil {
				return err
			}
			return lib.AddLib("base")
		})).BeNil(t)
		if !lib.Shared() {
			t.Fatal("lib is not shared")
		}
		obj := testerr.Shall1(e.AccessObject("core/gfx.o")).BeNil(t)
		if !obj.Config().Has("-fPIC") {
			t.Error("shared lib object misses -fPIC")
		}
		testerr.Shall1(lib.Compose()).BeNil(t)
		want := fmt.Sprintf("g++ -shared -o %s %s -Wl,--whole-archive %s -Wl,--no-whole-archive",
			lib.Path(), obj.Path(), dep.Path())
		cmd := testerr.Shall1(lib.FullCommand(false)).BeNil(t)
		if cmd != want {
			t.Errorf("composed\n'%s', want\n'%s'", cmd, want)
		}
	})

	t.Run("uninitialized", func(t *testing.T) {
		e := testEngine(t)
		lib := testerr.Shall1(e.AccessLibrary("empty", false)).BeNil(t)
		testerr.Shall1(lib.Compose()).Check(t,
			testerr.Msg("found uninitialized library '/empty'"))
	})
}

func TestLibrary_IncludeDirs(t *testing.T) {
	e := testEngine(t)
	var lib *Library
	testerr.Shall(e.InDir("core", func(e *Engine) (err error) {
		lib, err = e.AccessLibrary("util", false)
		return err
	})).BeNil(t)
	dirs := lib.IncludeDirs()
	if len(dirs) != 1 || dirs[0] != filepath.Join(e.Paths().ProjectRoot, "core") {
		t.Errorf("include dirs: %v", dirs)
	}
	incDir := filepath.Join(e.Paths().ProjectRoot, "vendor", "inc")
	testerr.Shall(os.MkdirAll(incDir, 0777)).BeNil(t)
	testerr.Shall(lib.AddIncludeDir(incDir, "")).BeNil(t)
	dirs = lib.IncludeDirs()
	if len(dirs) != 2 {
		t.Errorf("include dirs: %v", dirs)
	}
}

func TestBinary_Compose(t *testing.T) {
	e := testEngine(t)
	var bin *Binary
	var lib *Library
	testerr.Shall(e.InDir("core", func(e *Engine) (err error) {
		if lib, err = e.AccessLibrary("util", false); err != nil {
			return err
		}
		return lib.AddObjs("util.cpp")
	})).BeNil(t)
	testerr.Shall(e.InDir("app", func(e *Engine) (err error) {
		if bin, err = e.AccessBinary("app"); err != nil {
			return err
		}
		if _, err = bin.AddObj("main.cpp"); err != nil {
			return err
		}
		if err = bin.AddLib("/core/util"); err != nil {
			return err
		}
		bin.AddLinkDir("deps")
		return nil
	})).BeNil(t)

	testerr.Shall1(bin.Compose()).BeNil(t)
	mainObj := filepath.Join(e.Paths().BuildRoot, "app", "main.o")
	want := fmt.Sprintf("g++ -o %s %s -L%s %s",
		bin.Path(), mainObj,
		filepath.Join(e.Paths().ProjectRoot, "app", "deps"),
		lib.Path(),
	)
	cmd := testerr.Shall1(bin.FullCommand(false)).BeNil(t)
	if cmd != want {
		t.Errorf("composed\n'%s', want\n'%s'", cmd, want)
	}

	t.Run("whole archive needs static lib", func(t *testing.T) {
		e := testEngine(t)
		shl := testerr.Shall1(e.AccessLibrary("gfx", true)).BeNil(t)
		testerr.Shall(shl.AddObjs("gfx.cpp")).BeNil(t)
		bin := testerr.Shall1(e.AccessBinary("app")).BeNil(t)
		testerr.Shall(bin.AddWholeArchiveLib("gfx")).Check(t,
			testerr.Msg("whole-archive lib 'gfx' is not a static library"))
	})
}

func TestBinary_Compose_importedLibs(t *testing.T) {
	e := testEngine(t)
	ext := filepath.Join(e.Paths().ProjectRoot, "ext")
	testerr.Shall(os.MkdirAll(ext, 0777)).BeNil(t)
	mkLib := func(name string) string {
		f := filepath.Join(ext, name)
		testerr.Shall(os.WriteFile(f, []byte("!<arch>\n"), 0666)).BeNil(t)
		return f
	}
	sys := mkLib("libboost_system.a")
	thr := mkLib("libboost_thread.a")
	zso := filepath.Join(ext, "libz.so")
	testerr.Shall(os.WriteFile(zso, []byte{0x7f}, 0666)).BeNil(t)

	testerr.Shall1(e.ImportLibrary("@boost/boost_system", sys)).BeNil(t)
	testerr.Shall1(e.ImportLibrary("@boost/boost_thread", thr)).BeNil(t)
	testerr.Shall1(e.ImportLibrary("@z/z", zso)).BeNil(t)

	bin := testerr.Shall1(e.AccessBinary("app")).BeNil(t)
	testerr.Shall(bin.AddLibs("@boost/boost_system", "@boost/boost_thread", "@z/z")).BeNil(t)
	testerr.Shall1(bin.Compose()).BeNil(t)

	want := fmt.Sprintf(`g++ -o %s -Wl,"-(" %s %s -Wl,"-)" -L%s -lz`,
		bin.Path(), sys, thr, ext)
	cmd := testerr.Shall1(bin.FullCommand(false)).BeNil(t)
	if cmd != want {
		t.Errorf("composed\n'%s', want\n'%s'", cmd, want)
	}
}
