package zmakore

import (
	"fmt"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// Proto is the node of one .proto file. Building it runs protoc, which
// drops the generated .pb.h and .pb.cc into the build tree.
type Proto struct {
	File

	genH  Node
	genCC Node

	impDirs []string
}

func newProto(base *File) *Proto {
	p := &Proto{File: *base}
	p.needBuild = true
	return p
}

// declareGenerated registers the generated companion files as nodes that
// depend on the proto and cannot be built on their own.
func (p *Proto) declareGenerated() error {
	base := strings.TrimSuffix(p.file, ".proto")
	self := p.eng.self(&p.File)
	for i, sx := range []string{".pb.h", ".pb.cc"} {
		bp, err := p.eng.paths.Build(p.cwd, base+sx)
		if err != nil {
			return err
		}
		n, err := p.eng.AccessFile(bp)
		if err != nil {
			return err
		}
		n.Base().setGeneratedByDep(true)
		if err := n.Base().AddDep(self); err != nil {
			return err
		}
		if i == 0 {
			p.genH = n
		} else {
			p.genCC = n
		}
	}
	return nil
}

func (p *Proto) GeneratedHeader() Node { return p.genH }
func (p *Proto) GeneratedSource() Node { return p.genCC }

// AddImport wires the proto for file as dep, matching an import statement
// in the proto source.
func (p *Proto) AddImport(file string) (*Proto, error) {
	d, err := p.eng.AccessProto(file)
	if err != nil {
		return nil, err
	}
	return d, p.AddDep(p.eng.self(&d.File))
}

// AddImportDir adds dir to protoc's -I search path.
func (p *Proto) AddImportDir(dir string) { p.impDirs = append(p.impDirs, dir) }

// SpawnObj creates the object that compiles the generated .pb.cc, wired to
// both generated files and to those of every proto the proto imports.
func (p *Proto) SpawnObj() (*Object, error) {
	o, err := p.eng.AccessObject(p.genCC.Base().Path())
	if err != nil {
		return nil, err
	}
	if err := o.AddDep(p.genCC); err != nil {
		return nil, err
	}
	if err := o.AddDep(p.genH); err != nil {
		return nil, err
	}
	cwdBuild, err := p.eng.paths.Build(p.cwd, ".")
	if err != nil {
		return nil, err
	}
	o.AddIncludeDir(cwdBuild)
	o.AddIncludeDir(p.eng.paths.BuildRoot)
	var visited bitset.BitSet
	err = walkDeps(p.eng.self(&p.File), &visited, func(n Node) error {
		dp, ok := n.(*Proto)
		if !ok {
			return nil
		}
		if err := o.AddDep(dp.genH); err != nil {
			return err
		}
		return o.AddDep(dp.genCC)
	})
	return o, err
}

// Compose builds the protoc command with a uniq -I list: project root, the
// proto's directory, the directories of imported protos and the explicit
// import dirs.
func (p *Proto) Compose() (bool, error) {
	if p.cmd != "" {
		return true, nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s --cpp_out=%s", p.compiler, p.eng.paths.BuildRoot)
	seen := make(map[string]bool)
	addI := func(d string) {
		if !seen[d] {
			seen[d] = true
			sb.WriteString(" -I")
			sb.WriteString(d)
		}
	}
	addI(p.eng.paths.ProjectRoot)
	addI(p.cwd)
	var visited bitset.BitSet
	walkDeps(p.eng.self(&p.File), &visited, func(n Node) error {
		if dp, ok := n.(*Proto); ok {
			addI(dp.cwd)
		}
		return nil
	})
	for _, d := range p.impDirs {
		addI(d)
	}
	if cf := p.Config().Render(nil); cf != "" {
		sb.WriteByte(' ')
		sb.WriteString(cf)
	}
	sb.WriteByte(' ')
	sb.WriteString(p.file)
	p.cmd = sb.String()
	return true, nil
}
