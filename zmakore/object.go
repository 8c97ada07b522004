package zmakore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// Object is the node of one compiled translation unit. Its artifact and the
// compiler's .d dep file live in the build tree.
type Object struct {
	File

	incDirs []string
	incSet  map[string]bool
}

func newObject(base *File) *Object {
	o := &Object{File: *base}
	o.needBuild = true
	return o
}

// AddSrc wires the source file of the object. An object holds at most one
// source.
func (o *Object) AddSrc(file string) error {
	n, err := o.eng.AccessFile(file)
	if err != nil {
		return err
	}
	if n.Base().Kind() != KindSource {
		return fmt.Errorf("'%s' is not a source file", file)
	}
	if s := o.source(); s != nil && s != n {
		return fmt.Errorf("object '%s' already has source '%s'", o.file, s.Base().Path())
	}
	return o.AddDep(n)
}

func (o *Object) source() Node {
	for _, d := range o.deps {
		if d.Base().Kind() == KindSource {
			return d
		}
	}
	return nil
}

// AddIncludeDir adds dir to the object's -idirafter list. Relative dirs are
// resolved against the object's rules directory.
func (o *Object) AddIncludeDir(dir string) {
	if !filepath.IsAbs(dir) {
		dir = filepath.Clean(filepath.Join(o.cwd, dir))
	}
	if o.incSet == nil {
		o.incSet = make(map[string]bool)
	}
	if o.incSet[dir] {
		return
	}
	o.incSet[dir] = true
	o.incDirs = append(o.incDirs, dir)
}

// loadDepFile replays the compiler's .d file from an earlier build so that
// header changes retrigger the object without building first.
func (o *Object) loadDepFile() error {
	data, err := os.ReadFile(o.file + ".d")
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return o.addDepFileHeaders(string(data))
}

func (o *Object) addDepFileHeaders(depFile string) error {
	body := depFile
	if i := strings.IndexByte(body, ':'); i >= 0 {
		body = body[i+1:]
	}
	body = strings.ReplaceAll(body, "\\\n", " ")
	body = strings.ReplaceAll(body, "\\\r\n", " ")
	for _, tok := range strings.Fields(body) {
		n, err := o.eng.AccessFile(tok)
		if err != nil {
			return err
		}
		if err := o.AddDep(n); err != nil {
			return err
		}
	}
	return nil
}

// Compose builds the compile command: compiler, dep file generation, the
// include dirs of the object and of every library that uses or feeds it,
// flags and finally the source.
func (o *Object) Compose() (bool, error) {
	if o.cmd != "" {
		return true, nil
	}
	src := o.source()
	if src == nil {
		return false, fmt.Errorf("object '%s' has no source", o.file)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s -c -o %s -MD -MF %s.d", o.compiler, o.file, o.file)
	for _, d := range o.composeIncDirs() {
		sb.WriteString(" -idirafter ")
		sb.WriteString(d)
	}
	if cf := o.Config().Render(o.eng.defObjConf); cf != "" {
		sb.WriteByte(' ')
		sb.WriteString(cf)
	}
	sb.WriteByte(' ')
	sb.WriteString(src.Base().Path())
	o.cmd = o.eng.applyOpt(sb.String())
	return true, nil
}

// composeIncDirs collects the project root, the object's own include dirs
// and the include dirs of every library found below or above the object.
func (o *Object) composeIncDirs() []string {
	var dirs []string
	seen := make(map[string]bool)
	add := func(d string) {
		if !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}
	add(o.eng.paths.ProjectRoot)
	for _, d := range o.incDirs {
		add(d)
	}
	addLib := func(n Node) error {
		if l, ok := n.(*Library); ok {
			for _, d := range l.IncludeDirs() {
				add(d)
			}
		}
		return nil
	}
	var visited bitset.BitSet
	walkDeps(o.eng.self(&o.File), &visited, addLib)
	walkUsers(o.eng.self(&o.File), &visited, addLib)
	return dirs
}

// walkUsers visits every transitive user of n exactly once.
func walkUsers(n Node, visited *bitset.BitSet, visit func(Node) error) error {
	for _, u := range n.Base().users {
		id := u.Base().id
		if visited.Test(id) {
			continue
		}
		visited.Set(id)
		if err := visit(u); err != nil {
			return err
		}
		if err := walkUsers(u, visited, visit); err != nil {
			return err
		}
	}
	return nil
}
