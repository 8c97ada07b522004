package zmakore

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Library is the node of a static archive or shared object. Libraries built
// by the project live in the build tree under their rules directory,
// imported ones keep their external file.
type Library struct {
	File

	shared   bool
	imported bool

	explicitInc []string
	incSet      map[string]bool

	objsConf *Config
	linkConf *Config
}

func newLibrary(e *Engine, key string, shared bool) (*Library, error) {
	dir, leaf := path.Split(key)
	fname := leaf
	if !strings.HasPrefix(fname, "lib") {
		fname = "lib" + fname
	}
	if shared {
		fname += ".so"
	} else {
		fname += ".a"
	}
	bp, err := e.paths.Build(e.cwd, path.Join(dir, fname))
	if err != nil {
		return nil, err
	}
	l := &Library{File: *e.newFile(key, bp, leaf, KindLibrary), shared: shared}
	if key[0] == '/' {
		l.cwd = filepath.Join(e.paths.ProjectRoot, dir)
	}
	l.needBuild = true
	return l, nil
}

func newImportedLibrary(e *Engine, key, file string, incDirs []string) *Library {
	l := &Library{
		File:        *e.newFile(key, file, strings.TrimSuffix(path.Base(key), "/"), KindLibrary),
		shared:      !strings.HasSuffix(file, ".a"),
		imported:    true,
		explicitInc: incDirs,
		incSet:      make(map[string]bool),
	}
	for _, d := range incDirs {
		l.incSet[d] = true
	}
	l.buildDone = true
	return l
}

func (l *Library) Shared() bool   { return l.shared }
func (l *Library) Imported() bool { return l.imported }

// LinkName is the name the library is linked with, i.e. its file name
// without the lib prefix and the extension.
func (l *Library) LinkName() string {
	n := path.Base(l.file)
	n = strings.TrimPrefix(n, "lib")
	if i := strings.LastIndexByte(n, '.'); i >= 0 {
		n = n[:i]
	}
	return n
}

// ObjsConfig holds flags applied to every object added to the library.
func (l *Library) ObjsConfig() *Config {
	if l.objsConf == nil {
		l.objsConf = new(Config)
	}
	return l.objsConf
}

// LinkConfig holds flags contributed to link commands that pull in the
// library whole.
func (l *Library) LinkConfig() *Config {
	if l.linkConf == nil {
		l.linkConf = new(Config)
	}
	return l.linkConf
}

// AddObj wires the object for name into the library. Shared libraries force
// -fPIC onto their objects.
func (l *Library) AddObj(name string) (*Object, error) {
	o, err := l.eng.AccessObject(name)
	if err != nil {
		return nil, err
	}
	return o, l.addObject(o)
}

func (l *Library) AddObjs(names ...string) error {
	for _, nm := range names {
		if _, err := l.AddObj(nm); err != nil {
			return err
		}
	}
	return nil
}

func (l *Library) addObject(o *Object) error {
	if l.shared {
		o.SetFlag("-fPIC")
	}
	o.Config().Merge(l.objsConf, false)
	return l.AddDep(l.eng.self(&o.File))
}

// AddLib wires another library of the project as dep.
func (l *Library) AddLib(name string) error {
	d, err := l.eng.AccessLibrary(name, false)
	if err != nil {
		return err
	}
	return l.AddDep(l.eng.self(&d.File))
}

// AddProto compiles file with protoc and wires the generated object into
// the library. The protobuf runtime must have been imported before.
func (l *Library) AddProto(file string) (*Proto, error) {
	rt := l.eng.nodesWithPrefix("@protobuf/")
	if len(rt) == 0 {
		return nil, fmt.Errorf("lib '@protobuf' must be imported before adding protos")
	}
	if err := l.AddDep(rt[0]); err != nil {
		return nil, err
	}
	p, err := l.eng.AccessProto(file)
	if err != nil {
		return nil, err
	}
	o, err := p.SpawnObj()
	if err != nil {
		return nil, err
	}
	return p, l.addObject(o)
}

// AddIncludeDir exposes dir to users of the library. With a non-empty alias
// the dir becomes reachable as "<alias>/…" through a symlink in the build
// tree.
func (l *Library) AddIncludeDir(dir, alias string) error {
	if !filepath.IsAbs(dir) {
		dir = filepath.Clean(filepath.Join(l.cwd, dir))
	}
	if alias != "" {
		base, err := l.eng.paths.Build(l.cwd, ".")
		if err != nil {
			return err
		}
		if err := os.MkdirAll(base, 0777); err != nil {
			return err
		}
		link := filepath.Join(base, alias)
		if tgt, err := os.Readlink(link); err == nil {
			if tgt != dir {
				return fmt.Errorf("include alias '%s' already points to '%s'", alias, tgt)
			}
		} else if err := os.Symlink(dir, link); err != nil {
			return fmt.Errorf("include alias '%s': %w", alias, err)
		}
		dir = base
	}
	if l.incSet == nil {
		l.incSet = make(map[string]bool)
	}
	if !l.incSet[dir] {
		l.incSet[dir] = true
		l.explicitInc = append(l.explicitInc, dir)
	}
	return nil
}

// IncludeDirs returns the sorted set of dirs the library exposes: the
// explicit ones plus its rules directory, or the build root when every
// object is compiled from generated protobuf sources.
func (l *Library) IncludeDirs() []string {
	set := make(map[string]bool, len(l.explicitInc)+1)
	for _, d := range l.explicitInc {
		set[d] = true
	}
	if !l.imported {
		allPB, any := true, false
		for _, d := range l.deps {
			o, ok := d.(*Object)
			if !ok {
				continue
			}
			any = true
			src := o.source()
			if src == nil || !strings.HasSuffix(src.Base().Path(), ".pb.cc") {
				allPB = false
			}
		}
		if any && allPB {
			set[l.eng.paths.BuildRoot] = true
		} else {
			set[l.cwd] = true
		}
	}
	dirs := make([]string, 0, len(set))
	for d := range set {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return dirs
}

func (l *Library) objectFiles() []string {
	var res []string
	for _, d := range l.deps {
		if d.Base().Kind() == KindObject {
			res = append(res, d.Base().Path())
		}
	}
	return res
}

func (l *Library) depLibs() []*Library {
	var res []*Library
	for _, d := range l.deps {
		if dl, ok := d.(*Library); ok {
			res = append(res, dl)
		}
	}
	return res
}

// Compose builds the archive or link command. Imported libraries have
// nothing to build.
func (l *Library) Compose() (bool, error) {
	if l.imported {
		l.buildDone = true
		return false, nil
	}
	if l.cmd != "" {
		return true, nil
	}
	if len(l.deps) == 0 {
		return false, fmt.Errorf("found uninitialized library '%s'", l.key)
	}
	objs := l.objectFiles()
	var sb strings.Builder
	if l.shared {
		fmt.Fprintf(&sb, "%s -shared -o %s", l.compiler, l.file)
		for _, o := range objs {
			sb.WriteByte(' ')
			sb.WriteString(o)
		}
		if libs := l.depLibs(); len(libs) > 0 {
			sb.WriteString(" -Wl,--whole-archive")
			for _, dl := range libs {
				sb.WriteByte(' ')
				sb.WriteString(dl.file)
			}
			sb.WriteString(" -Wl,--no-whole-archive")
		}
		if cf := l.Config().Render(nil); cf != "" {
			sb.WriteByte(' ')
			sb.WriteString(cf)
		}
		l.cmd = l.eng.applyOpt(sb.String())
	} else {
		fmt.Fprintf(&sb, "%s %s %s", l.compiler, l.Config().Render(l.eng.defArConf), l.file)
		for _, o := range objs {
			sb.WriteByte(' ')
			sb.WriteString(o)
		}
		l.cmd = sb.String()
	}
	return true, nil
}
