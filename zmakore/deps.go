package zmakore

import (
	"fmt"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

func (f *File) Deps() []Node  { return f.deps }
func (f *File) Users() []Node { return f.users }

// AddDep wires dep below the node. Duplicates are dropped silently, cycles
// are an error. Objects are kept in front of non-object deps so that link
// commands list objects before archives.
func (f *File) AddDep(dep Node) error {
	db := dep.Base()
	if db == f {
		return fmt.Errorf("node '%s' depends on itself", f.file)
	}
	if f.uniqDeps.Test(db.id) {
		return nil
	}
	if dependsOn(dep, f) {
		return fmt.Errorf("circular dependency between '%s' and '%s'", f.file, db.file)
	}
	f.uniqDeps.Set(db.id)
	f.deps = append(f.deps, dep)
	if db.kind == KindObject {
		i := len(f.deps) - 2
		for i >= 0 && f.deps[i].Base().kind != KindObject {
			i--
		}
		last := len(f.deps) - 1
		if i+1 != last {
			f.deps[i+1], f.deps[last] = f.deps[last], f.deps[i+1]
		}
	}
	self := f.eng.self(f)
	if !db.uniqUsers.Test(f.id) {
		db.uniqUsers.Set(f.id)
		db.users = append(db.users, self)
	}
	return nil
}

// AddDeps resolves every name through the engine's generic file access and
// adds the result as dep.
func (f *File) AddDeps(names ...string) error {
	for _, nm := range names {
		n, err := f.eng.AccessFile(nm)
		if err != nil {
			return err
		}
		if err := f.AddDep(n); err != nil {
			return err
		}
	}
	return nil
}

// dependsOn reports whether n's dep tree contains target.
func dependsOn(n Node, target *File) bool {
	var visited bitset.BitSet
	found := false
	walkDeps(n, &visited, func(d Node) error {
		if d.Base() == target {
			found = true
		}
		return nil
	})
	return found
}

// walkDeps visits every node in n's dep tree exactly once and calls post for
// each after its own deps, i.e. in post-order. Deps are iterated in reverse,
// n itself is not reported.
func walkDeps(n Node, visited *bitset.BitSet, post func(Node) error) error {
	deps := n.Base().deps
	for i := len(deps) - 1; i >= 0; i-- {
		d := deps[i]
		id := d.Base().id
		if visited.Test(id) {
			continue
		}
		visited.Set(id)
		if err := walkDeps(d, visited, post); err != nil {
			return err
		}
		if err := post(d); err != nil {
			return err
		}
	}
	return nil
}

// DumpDeps writes the dep tree of n to the engine's trace, one node per
// line, indented by depth.
func (e *Engine) DumpDeps(n Node) {
	var dump func(n Node, depth int)
	dump = func(n Node, depth int) {
		b := n.Base()
		e.trace.Debug(strings.Repeat("  ", depth)+"`kind` `file`",
			"kind", b.kind, "file", b.file)
		for _, d := range b.deps {
			dump(d, depth+1)
		}
	}
	dump(n, 0)
}
