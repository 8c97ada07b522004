package zmakore

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
)

// DefaultJobs is the parallelism used when the caller does not choose one.
func DefaultJobs() int {
	if n := runtime.NumCPU() / 4; n > 1 {
		return n
	}
	return 1
}

// Runner is a user hook called before or after the build of all targets.
type Runner func(*Engine) error

type installEntry struct {
	node    Node
	destDir string
	symlink bool
}

// Engine holds the node registry of one project and drives analysis and
// build. It is not safe for concurrent rule editing; the build phase uses
// its own synchronization.
type Engine struct {
	paths *Paths
	trace *Trace

	Out io.Writer
	Err io.Writer

	Verbose bool
	Debug   int
	Jobs    int

	mu sync.Mutex

	optLevel int
	optSet   bool

	cwd string

	nodes    map[string]Node
	dispatch map[*File]Node
	nextID   uint

	compilers  map[string]string
	defObjConf *Config
	defArConf  *Config
	generators map[string]*Generator

	targets    []Node
	targetSet  map[uint]bool
	installs   []installEntry
	preRun     []Runner
	postRun    []Runner

	externals []*ExternalProject

	md5s *Md5Cache
}

func NewEngine(projectRoot, buildDirName string, trace *Trace) (*Engine, error) {
	ps, err := NewPaths(projectRoot, buildDirName)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		paths:     ps,
		trace:     trace,
		Out:       os.Stdout,
		Err:       os.Stderr,
		Jobs:      DefaultJobs(),
		cwd:       ps.ProjectRoot,
		nodes:     make(map[string]Node),
		dispatch:  make(map[*File]Node),
		targetSet: make(map[uint]bool),
		compilers: map[string]string{
			".c":     "gcc",
			".C":     "gcc",
			".a":     "ar",
			".so":    "g++",
			".proto": "protoc",
			".cu":    "nvcc",
		},
		generators: make(map[string]*Generator),
	}
	e.defObjConf = new(Config).Set("-idirafter " + ps.BuildRoot)
	e.defArConf = new(Config).Set("crs")
	e.md5s = NewMd5Cache(ps.BuildRoot)
	return e, nil
}

func (e *Engine) Paths() *Paths { return e.paths }
func (e *Engine) Trace() *Trace { return e.trace }

// Cwd is the directory rule edits are relative to. It starts at the project
// root and is switched per rules directory.
func (e *Engine) Cwd() string { return e.cwd }

// InDir runs do with the engine's cwd switched to dir, given relative to the
// project root.
func (e *Engine) InDir(dir string, do func(*Engine) error) error {
	old := e.cwd
	e.cwd = filepath.Join(e.paths.ProjectRoot, dir)
	defer func() { e.cwd = old }()
	return do(e)
}

// SetOptimizationLevel forces level onto every compile and link command of
// objects, shared libraries and binaries, replacing -O flags the rules
// chose. Archive and protoc commands are left as they are. Legal levels are
// 0…3.
func (e *Engine) SetOptimizationLevel(level int) {
	e.optLevel = level
	e.optSet = true
}

// RegisterGenerator installs rule as the default build rule for files with
// the given extension, e.g. ".txt".
func (e *Engine) RegisterGenerator(ext, rule string) {
	e.generators[ext] = NewGenerator(rule)
}

func (e *Engine) compilerFor(file string) string {
	for _, sx := range sourceSuffixes {
		if strings.HasSuffix(file, sx) {
			if c, ok := e.compilers[sx]; ok {
				return c
			}
			return "g++"
		}
	}
	if i := strings.LastIndexByte(file, '.'); i >= 0 {
		if c, ok := e.compilers[file[i:]]; ok {
			return c
		}
	}
	return "g++"
}

func (e *Engine) newFile(key, file, name string, kind FileKind) *File {
	f := &File{
		eng:      e,
		id:       e.nextID,
		key:      key,
		file:     file,
		name:     name,
		kind:     kind,
		compiler: e.compilerFor(file),
		cwd:      e.cwd,
	}
	e.nextID++
	return f
}

func (e *Engine) register(n Node) Node {
	b := n.Base()
	e.dispatch[b] = n
	e.nodes[b.key] = n
	return n
}

func (e *Engine) self(f *File) Node { return e.dispatch[f] }

func (e *Engine) nodeByKey(key string) Node { return e.nodes[key] }

// Nodes returns every registered node in key order.
func (e *Engine) Nodes() []Node { return e.nodesWithPrefix("") }

// nodesWithPrefix returns all registered nodes whose key starts with prefix,
// in key order.
func (e *Engine) nodesWithPrefix(prefix string) []Node {
	var keys []string
	for k := range e.nodes {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	res := make([]Node, len(keys))
	for i, k := range keys {
		res[i] = e.nodes[k]
	}
	return res
}

func classifyFile(file string) FileKind {
	switch {
	case hasAnySuffix(file, sourceSuffixes):
		return KindSource
	case hasAnySuffix(file, headerSuffixes):
		return KindHeader
	case strings.HasSuffix(file, ".proto"):
		return KindProto
	case strings.HasSuffix(file, ".o"):
		return KindObject
	case strings.HasSuffix(file, ".a"), strings.HasSuffix(file, ".so"):
		return KindLibrary
	}
	return KindNormal
}

// AccessFile finds or creates the generic node for file. Sources, headers,
// protos and other plain files are keyed by their absolute path, object and
// library files by their absolute path in the build tree; none of these keys
// is a project-inner path.
func (e *Engine) AccessFile(file string) (Node, error) {
	if file == "" {
		return nil, fmt.Errorf("access file with empty name")
	}
	if file[0] == '@' {
		n := e.nodeByKey(file)
		if n == nil {
			return nil, fmt.Errorf("lib '%s' must be imported first", file)
		}
		return n, nil
	}
	kind := classifyFile(file)
	var key, fp string
	switch kind {
	case KindSource, KindHeader, KindProto, KindNormal:
		fp = file
		if !filepath.IsAbs(fp) {
			fp = filepath.Clean(filepath.Join(e.cwd, fp))
		}
		key = fp
	default:
		var err error
		fp, err = e.paths.Build(e.cwd, file)
		if err != nil {
			return nil, err
		}
		key = fp
	}
	if n := e.nodeByKey(key); n != nil {
		return n, nil
	}
	switch kind {
	case KindObject:
		o := newObject(e.newFile(key, fp, path.Base(file), kind))
		e.register(o)
		return o, o.loadDepFile()
	case KindProto:
		return e.accessProtoAt(key, fp)
	default:
		return e.register(e.newFile(key, fp, path.Base(file), kind)), nil
	}
}

// AccessObject finds or creates the object node for name. Source file names
// are mapped onto their object by suffix replacement.
func (e *Engine) AccessObject(name string) (*Object, error) {
	file := name
	if hasAnySuffix(file, sourceSuffixes) {
		file = replaceAnySuffix(file, sourceSuffixes, ".o")
	}
	if !strings.HasSuffix(file, ".o") {
		return nil, fmt.Errorf("'%s' does not name an object file", name)
	}
	bp, err := e.paths.Build(e.cwd, file)
	if err != nil {
		return nil, err
	}
	if n := e.nodeByKey(bp); n != nil {
		o, ok := n.(*Object)
		if !ok {
			return nil, fmt.Errorf("'%s' is a %s, not an object", name, n.Base().Kind())
		}
		return o, nil
	}
	o := newObject(e.newFile(bp, bp, path.Base(file), KindObject))
	e.register(o)
	return o, o.loadDepFile()
}

// AccessBinary finds or creates the binary node for name. The binary file
// lives in the build tree next to the rules directory that declared it.
func (e *Engine) AccessBinary(name string) (*Binary, error) {
	bp, err := e.paths.Build(e.cwd, name)
	if err != nil {
		return nil, err
	}
	if n := e.nodeByKey(bp); n != nil {
		b, ok := n.(*Binary)
		if !ok {
			return nil, fmt.Errorf("'%s' is a %s, not a binary", name, n.Base().Kind())
		}
		return b, nil
	}
	b := newBinary(e.newFile(bp, bp, path.Base(name), KindBinary))
	e.register(b)
	return b, nil
}

// AccessLibrary finds or creates the library node named name. The name is
// formalized first, so "net", "/core/net", "//core:net" and ":net" address
// the same library from the respective directories.
func (e *Engine) AccessLibrary(name string, shared bool) (*Library, error) {
	key, err := e.paths.FormalizeLibName(e.cwd, name, false)
	if err != nil {
		return nil, err
	}
	if n := e.findLibraryNode(key); n != nil {
		l, ok := n.(*Library)
		if !ok {
			return nil, fmt.Errorf("'%s' is a %s, not a library", name, n.Base().Kind())
		}
		return l, nil
	}
	if key[0] == '@' {
		return nil, fmt.Errorf("lib '%s' must be imported first", name)
	}
	l, err := newLibrary(e, key, shared)
	if err != nil {
		return nil, err
	}
	e.register(l)
	return l, nil
}

// findLibraryNode resolves key with the "/a/a" alias: the library a in
// directory a may be addressed as "/a" and vice versa.
func (e *Engine) findLibraryNode(key string) Node {
	if n := e.nodeByKey(key); n != nil {
		return n
	}
	dir, leaf := path.Split(key)
	dir = strings.TrimSuffix(dir, "/")
	if path.Base(dir) == leaf {
		if n := e.nodeByKey(dir); n != nil {
			return n
		}
	}
	if n := e.nodeByKey(key + "/" + leaf); n != nil {
		return n
	}
	return nil
}

// AccessProto finds or creates the proto node for file and its generated
// .pb.h/.pb.cc companions.
func (e *Engine) AccessProto(file string) (*Proto, error) {
	fp := file
	if !filepath.IsAbs(fp) {
		fp = filepath.Clean(filepath.Join(e.cwd, fp))
	}
	if n := e.nodeByKey(fp); n != nil {
		p, ok := n.(*Proto)
		if !ok {
			return nil, fmt.Errorf("'%s' is a %s, not a proto", file, n.Base().Kind())
		}
		return p, nil
	}
	return e.accessProtoAt(fp, fp)
}

func (e *Engine) accessProtoAt(key, fp string) (*Proto, error) {
	f := e.newFile(key, fp, path.Base(fp), KindProto)
	f.cwd = filepath.Dir(fp)
	p := newProto(f)
	e.register(p)
	return p, p.declareGenerated()
}

// AddTargetNode adds n to the target set unless it is already in.
func (e *Engine) AddTargetNode(n Node) {
	id := n.Base().id
	if e.targetSet[id] {
		e.trace.Warn("`file` is already a target", "file", n.Base().file)
		return
	}
	e.targetSet[id] = true
	e.targets = append(e.targets, n)
}

// Targets returns the explicit target set, which may be empty. An empty set
// means build all libraries and binaries.
func (e *Engine) Targets() []Node { return e.targets }

// TargetsUnder returns every library and binary whose rules directory is at
// or below dir.
func (e *Engine) TargetsUnder(dir string) []Node {
	if !filepath.IsAbs(dir) {
		dir = filepath.Clean(filepath.Join(e.cwd, dir))
	}
	var res []Node
	for _, n := range e.nodesWithPrefix("") {
		switch t := n.(type) {
		case *Library:
			if t.imported {
				continue
			}
		case *Binary:
		default:
			continue
		}
		if c := n.Base().Cwd(); c == dir || strings.HasPrefix(c, dir+"/") {
			res = append(res, n)
		}
	}
	return res
}

// DefaultObjectConfig is the flag set appended to every compile command
// that does not override its keys.
func (e *Engine) DefaultObjectConfig() *Config { return e.defObjConf }

// ClearTargets drops the explicit target set.
func (e *Engine) ClearTargets() {
	e.targets = nil
	e.targetSet = make(map[uint]bool)
}

// FindTarget resolves name the way the access functions do, without creating
// a node.
func (e *Engine) FindTarget(name string) Node {
	if n := e.nodeByKey(name); n != nil {
		return n
	}
	if strings.HasSuffix(name, ".o") || hasAnySuffix(name, sourceSuffixes) {
		file := replaceAnySuffix(name, sourceSuffixes, ".o")
		if bp, err := e.paths.Build(e.cwd, file); err == nil {
			if n := e.nodeByKey(bp); n != nil {
				return n
			}
		}
	}
	if key, err := e.paths.FormalizeLibName(e.cwd, name, false); err == nil {
		if n := e.findLibraryNode(key); n != nil {
			return n
		}
	}
	if bp, err := e.paths.Build(e.cwd, name); err == nil {
		if n := e.nodeByKey(bp); n != nil {
			return n
		}
	}
	fp := name
	if !filepath.IsAbs(fp) {
		fp = filepath.Clean(filepath.Join(e.cwd, fp))
	}
	return e.nodeByKey(fp)
}

// RegisterInstall schedules node's artifact for installation to destDir
// during the install stage.
func (e *Engine) RegisterInstall(n Node, destDir string, symlink bool) {
	e.installs = append(e.installs, installEntry{node: n, destDir: destDir, symlink: symlink})
}

func (e *Engine) PreRun(r Runner)  { e.preRun = append(e.preRun, r) }
func (e *Engine) PostRun(r Runner) { e.postRun = append(e.postRun, r) }
