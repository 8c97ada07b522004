package zmakore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// Binary is the node of a linked executable.
type Binary struct {
	File

	waLibs   []*Library
	linkDirs []string
}

func newBinary(base *File) *Binary {
	b := &Binary{File: *base}
	b.needBuild = true
	return b
}

// AddObj wires the object for name into the binary.
func (b *Binary) AddObj(name string) (*Object, error) {
	o, err := b.eng.AccessObject(name)
	if err != nil {
		return nil, err
	}
	return o, b.AddDep(b.eng.self(&o.File))
}

func (b *Binary) AddObjs(names ...string) error {
	for _, nm := range names {
		if _, err := b.AddObj(nm); err != nil {
			return err
		}
	}
	return nil
}

// AddLib links the library for name into the binary.
func (b *Binary) AddLib(name string) error {
	l, err := b.eng.AccessLibrary(name, false)
	if err != nil {
		return err
	}
	return b.AddDep(b.eng.self(&l.File))
}

func (b *Binary) AddLibs(names ...string) error {
	for _, nm := range names {
		if err := b.AddLib(nm); err != nil {
			return err
		}
	}
	return nil
}

// AddWholeArchiveLib links the library for name with every object, not only
// the referenced ones. The lib's link flags join the binary's.
func (b *Binary) AddWholeArchiveLib(name string) error {
	l, err := b.eng.AccessLibrary(name, false)
	if err != nil {
		return err
	}
	if l.shared {
		return fmt.Errorf("whole-archive lib '%s' is not a static library", name)
	}
	if err := b.AddDep(b.eng.self(&l.File)); err != nil {
		return err
	}
	b.waLibs = append(b.waLibs, l)
	return nil
}

// AddLinkDir adds dir to the linker's -L search path.
func (b *Binary) AddLinkDir(dir string) {
	if !filepath.IsAbs(dir) {
		dir = filepath.Clean(filepath.Join(b.cwd, dir))
	}
	b.linkDirs = append(b.linkDirs, dir)
}

// Compose builds the link command: objects, the whole-archive group, link
// dirs, then the discovered libraries: project static archives, imported
// static archives grouped per package, and last every shared library, own
// or imported, as a -L/-l pair.
func (b *Binary) Compose() (bool, error) {
	if b.cmd != "" {
		return true, nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s -o %s", b.compiler, b.file)
	for _, d := range b.deps {
		if d.Base().Kind() == KindObject {
			sb.WriteByte(' ')
			sb.WriteString(d.Base().Path())
		}
	}
	waSet := make(map[*Library]bool, len(b.waLibs))
	if len(b.waLibs) > 0 {
		sb.WriteString(" -Wl,--whole-archive")
		for _, l := range b.waLibs {
			waSet[l] = true
			sb.WriteByte(' ')
			sb.WriteString(l.Path())
			b.Config().Merge(l.linkConf, false)
		}
		sb.WriteString(" -Wl,--no-whole-archive")
	}
	for _, d := range b.linkDirs {
		sb.WriteString(" -L")
		sb.WriteString(d)
	}
	b.composeLibs(&sb, waSet)
	if cf := b.Config().Render(nil); cf != "" {
		sb.WriteByte(' ')
		sb.WriteString(cf)
	}
	b.cmd = b.eng.applyOpt(sb.String())
	return true, nil
}

func (b *Binary) composeLibs(sb *strings.Builder, skip map[*Library]bool) {
	var libs []*Library
	var visited bitset.BitSet
	collect := func(n Node) error {
		if l, ok := n.(*Library); ok && !skip[l] {
			libs = append(libs, l)
		}
		return nil
	}
	walkDeps(b.eng.self(&b.File), &visited, collect)
	for _, wl := range b.waLibs {
		walkDeps(b.eng.self(&wl.File), &visited, collect)
	}

	var static []*Library
	var shared []*Library
	extGroups := make(map[string][]*Library)
	var extOrder []string
	for i := len(libs) - 1; i >= 0; i-- {
		l := libs[i]
		switch {
		case l.imported && !l.shared:
			if _, err := os.Stat(l.file); err != nil {
				b.eng.trace.Warn("skip missing imported lib `file`", "file", l.file)
				continue
			}
			pkg := extPkg(l.key)
			if extGroups[pkg] == nil {
				extOrder = append(extOrder, pkg)
			}
			extGroups[pkg] = append(extGroups[pkg], l)
		case l.shared:
			shared = append(shared, l)
		default:
			static = append(static, l)
		}
	}
	for _, l := range static {
		sb.WriteByte(' ')
		sb.WriteString(l.file)
	}
	for _, pkg := range extOrder {
		grp := extGroups[pkg]
		if len(grp) > 1 {
			sb.WriteString(` -Wl,"-("`)
		}
		for _, l := range grp {
			sb.WriteByte(' ')
			sb.WriteString(l.file)
		}
		if len(grp) > 1 {
			sb.WriteString(` -Wl,"-)"`)
		}
	}
	for _, l := range shared {
		sb.WriteString(" -L")
		sb.WriteString(filepath.Dir(l.file))
		sb.WriteString(" -l")
		sb.WriteString(l.LinkName())
	}
}

// extPkg extracts the package part of an imported lib key "@pkg/name".
func extPkg(key string) string {
	k := strings.TrimPrefix(key, "@")
	if i := strings.IndexByte(k, '/'); i >= 0 {
		return k[:i]
	}
	return k
}
