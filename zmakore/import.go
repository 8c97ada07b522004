package zmakore

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ExternalProject remembers an imported project so that its libraries can be
// re-exported together with the importing project's own.
type ExternalProject struct {
	Name string
	Root string
	Libs []*Library
}

func (e *Engine) ExternalProjects() []*ExternalProject { return e.externals }

// ImportLibrary registers one prebuilt library under an '@' key. Importing
// the same name twice is fine as long as the file agrees; the include dirs
// of a repeated import are not compared and not added.
func (e *Engine) ImportLibrary(name, file string, incDirs ...string) (*Library, error) {
	key, err := e.paths.FormalizeLibName(e.cwd, name, true)
	if err != nil {
		return nil, err
	}
	for _, d := range incDirs {
		if _, err := os.Stat(d); err != nil {
			return nil, fmt.Errorf("import '%s': include dir '%s': %w", name, d, err)
		}
	}
	if n := e.nodeByKey(key); n != nil {
		l, ok := n.(*Library)
		if !ok || l.file != file {
			return nil, fmt.Errorf("import '%s' conflicts with existing node '%s'", name, key)
		}
		return l, nil
	}
	l := newImportedLibrary(e, key, file, incDirs)
	e.register(l)
	return l, nil
}

var importedLibFile = regexp.MustCompile(`^lib.*(\.a|\.so)$`)

// ImportLibraries imports every library of a conventionally laid out
// package dir: archives under <dir>/lib, headers under <dir>/include. For a
// single-lib package the bare package name addresses the library too.
func (e *Engine) ImportLibraries(pkg, dir string) error {
	if !filepath.IsAbs(dir) {
		dir = filepath.Clean(filepath.Join(e.cwd, dir))
	}
	incDir := filepath.Join(dir, "include")
	if _, err := os.Stat(incDir); err != nil {
		incDir = dir
	}
	libDir := filepath.Join(dir, "lib")
	des, err := os.ReadDir(libDir)
	if err != nil {
		return fmt.Errorf("import package '%s': %w", pkg, err)
	}
	files := make(map[string]string)
	for _, de := range des {
		fn := de.Name()
		if de.IsDir() || !importedLibFile.MatchString(fn) {
			continue
		}
		stem := strings.TrimSuffix(strings.TrimSuffix(fn, ".a"), ".so")
		if old, ok := files[stem]; ok && strings.HasSuffix(old, ".a") {
			continue
		}
		files[stem] = fn
	}
	if len(files) == 0 {
		return fmt.Errorf("no libraries under '%s'", libDir)
	}
	var imported []*Library
	for stem, fn := range files {
		name := "@" + pkg + "/" + strings.TrimPrefix(stem, "lib")
		l, err := e.ImportLibrary(name, filepath.Join(libDir, fn), incDir)
		if err != nil {
			return err
		}
		imported = append(imported, l)
	}
	if len(imported) == 1 {
		l := imported[0]
		if l.key != "@"+pkg+"/"+pkg {
			e.nodes["@"+pkg+"/"+pkg] = e.self(&l.File)
		}
		e.nodes["@"+pkg+"/"] = e.self(&l.File)
	}
	return nil
}

// ImportExternalProject imports every library another project of this tool
// exported to its build tree. Deps between the imported libraries are wired
// after all of them exist.
func (e *Engine) ImportExternalProject(root string) (*ExternalProject, error) {
	if !filepath.IsAbs(root) {
		root = filepath.Clean(filepath.Join(e.cwd, root))
	}
	name := filepath.Base(root)
	libsFile := filepath.Join(root, DefaultBuildDirName, LibsFileName)
	data, err := os.ReadFile(libsFile)
	if err != nil {
		return nil, fmt.Errorf("import project '%s': %w", name, err)
	}
	xp := &ExternalProject{Name: name, Root: root}
	rekey := func(n string) string {
		if n == "" || n[0] == '@' {
			return n
		}
		return "@" + name + n
	}
	type pendingDeps struct {
		lib  *Library
		deps []string
	}
	var pend []pendingDeps
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || line[0] == '#' {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			return nil, fmt.Errorf("bad line in '%s': %q", libsFile, line)
		}
		key := rekey(fields[0])
		var incDirs []string
		for _, d := range strings.Split(fields[1], ";") {
			if d != "" {
				incDirs = append(incDirs, d)
			}
		}
		incDirs = append(incDirs, root)
		l, err := e.ImportLibrary(key, fields[2], incDirs...)
		if err != nil {
			return nil, err
		}
		xp.Libs = append(xp.Libs, l)
		if len(fields) > 3 && fields[3] != "" {
			pend = append(pend, pendingDeps{lib: l, deps: strings.Split(fields[3], ";")})
		}
	}
	for _, p := range pend {
		for _, dn := range p.deps {
			if dn == "" {
				continue
			}
			d := e.nodeByKey(rekey(dn))
			if d == nil {
				e.trace.Warn("unresolved dep `dep` of imported lib `lib`",
					"dep", dn, "lib", p.lib.key)
				continue
			}
			if err := p.lib.AddDep(d); err != nil {
				return nil, err
			}
		}
	}
	e.externals = append(e.externals, xp)
	return xp, nil
}
