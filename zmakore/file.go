package zmakore

import (
	"fmt"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

type FileKind int

const (
	KindNone FileKind = iota
	KindNormal
	KindHeader
	KindSource
	KindProto
	KindObject
	KindLibrary
	KindBinary
)

func (k FileKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNormal:
		return "file"
	case KindHeader:
		return "header"
	case KindSource:
		return "source"
	case KindProto:
		return "proto"
	case KindObject:
		return "object"
	case KindLibrary:
		return "library"
	case KindBinary:
		return "binary"
	}
	return fmt.Sprintf("FileKind(%d)", int(k))
}

var (
	sourceSuffixes = []string{".cpp", ".cc", ".c", ".cxx", ".CPP", ".CC", ".C", ".CXX"}
	headerSuffixes = []string{".h", ".hh", ".hpp", ".hxx", ".H", ".HH", ".HPP", ".HXX"}
)

func hasAnySuffix(s string, suffixes []string) bool {
	for _, sx := range suffixes {
		if strings.HasSuffix(s, sx) {
			return true
		}
	}
	return false
}

func replaceAnySuffix(s string, suffixes []string, repl string) string {
	for _, sx := range suffixes {
		if strings.HasSuffix(s, sx) {
			return s[:len(s)-len(sx)] + repl
		}
	}
	return s
}

// Node is the common view onto all build node kinds held by the registry.
type Node interface {
	Base() *File

	// Compose derives the node's shell command once and reports whether the
	// node has anything to build at all.
	Compose() (bool, error)
}

// File is the base of every build node and the node kind of generic files,
// headers and sources without their own rule. Build state flags are only
// touched by the worker that owns the node during a build.
type File struct {
	eng *Engine
	id  uint

	key      string
	file     string
	name     string
	kind     FileKind
	compiler string
	cwd      string

	conf *Config
	gen  *Generator

	deps      []Node
	uniqDeps  bitset.BitSet
	users     []Node
	uniqUsers bitset.BitSet

	cmd string

	needBuild      bool
	buildDone      bool
	hasBeenBuilt   bool
	forcedBuild    bool
	generatedByDep bool
}

func (f *File) Base() *File { return f }

func (f *File) Key() string      { return f.key }
func (f *File) Path() string     { return f.file }
func (f *File) Name() string     { return f.name }
func (f *File) Kind() FileKind   { return f.kind }
func (f *File) Cwd() string      { return f.cwd }
func (f *File) Compiler() string { return f.compiler }

func (f *File) SetCompiler(c string) { f.compiler = c }

// Config returns the node's own flag set, creating it on first use.
func (f *File) Config() *Config {
	if f.conf == nil {
		f.conf = new(Config)
	}
	return f.conf
}

func (f *File) SetConfig(conf *Config) {
	if f.conf != nil && !f.conf.Empty() {
		f.eng.trace.Warn("substitute the existing config of `file`", "file", f.file)
	}
	f.conf = conf.clone()
}

func (f *File) SetFlag(flag string) *File {
	f.Config().Set(flag)
	return f
}

func (f *File) SetFlags(flags ...string) *File {
	f.Config().SetAll(flags...)
	return f
}

func (f *File) SetGenerator(g *Generator) *File {
	f.gen = &Generator{rule: g.rule}
	return f
}

func (f *File) Generator() *Generator { return f.gen }

// SetFullCommand overrides command composition with a verbatim command.
func (f *File) SetFullCommand(cmd string) { f.cmd = cmd }

// FullCommand composes the command if necessary and returns it. With pretty
// set, the argument part is broken into one line per argument.
func (f *File) FullCommand(pretty bool) (string, error) {
	if f.cmd == "" {
		if _, err := f.eng.self(f).Compose(); err != nil {
			return "", err
		}
	}
	if !pretty {
		return f.cmd, nil
	}
	if p := strings.Index(f.cmd, " -o "); p >= 0 {
		if q := strings.IndexByte(f.cmd[p+4:], ' '); q >= 0 {
			h := p + 4 + q
			return f.cmd[:h] + strings.ReplaceAll(f.cmd[h:], " ", "\n"), nil
		}
	}
	return strings.ReplaceAll(f.cmd, " ", "\n"), nil
}

// Compose of a plain file consults the node's generator or the default
// generator for the file's extension. Headers and files without any rule
// have nothing to build.
func (f *File) Compose() (bool, error) {
	if f.cmd == "" && !f.generatedByDep {
		switch g := f.generatorFor(); {
		case g != nil:
			cmd, err := g.Generate(f.file)
			if err != nil {
				return false, err
			}
			f.cmd = cmd
		case hasAnySuffix(f.file, headerSuffixes):
			f.kind = KindHeader
			f.buildDone = true
			return false, nil
		default:
			f.eng.trace.Warn("no need to build `file`", "file", f.file)
			f.buildDone = true
			return false, nil
		}
	}
	return f.cmd != "" || f.generatedByDep, nil
}

func (f *File) generatorFor() *Generator {
	if f.gen != nil {
		return f.gen
	}
	ext := ""
	if i := strings.LastIndexByte(f.file, '.'); i >= 0 && i > strings.LastIndexByte(f.file, '/') {
		ext = f.file[i:]
	}
	return f.eng.generators[ext]
}

// BeTarget adds the node to the engine's target set.
func (f *File) BeTarget() { f.eng.AddTargetNode(f.eng.self(f)) }

func (f *File) setGeneratedByDep(v bool) { f.generatedByDep = v }
