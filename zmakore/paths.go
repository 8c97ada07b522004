package zmakore

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// DefaultBuildDirName is the directory under the project root that receives
// every generated artifact.
const DefaultBuildDirName = ".zmade"

// Paths maps user-supplied paths onto the two address spaces of a project:
// the canonical project-inner key space and the build tree below BuildRoot.
//
// Inner keys start with "/" for project files and with "@pkg/" for imported
// third-party libraries. The key "/core/net" of a library named net in
// <root>/core maps to the artifact <root>/.zmade/core/libnet.a.
type Paths struct {
	ProjectRoot string
	BuildRoot   string
}

func NewPaths(projectRoot, buildDirName string) (*Paths, error) {
	if projectRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		projectRoot = wd
	}
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("project root '%s': %w", projectRoot, err)
	}
	if buildDirName == "" {
		buildDirName = DefaultBuildDirName
	}
	return &Paths{
		ProjectRoot: filepath.Clean(abs),
		BuildRoot:   filepath.Join(abs, buildDirName),
	}, nil
}

// Inner converts p into a project-inner path. Paths that already start with
// '/' or '@' pass through unchanged. Relative paths are resolved against cwd
// and then relativized against the project root.
func (ps *Paths) Inner(cwd, p string) string {
	if p == "" {
		return p
	}
	if p[0] == '/' || p[0] == '@' {
		return p
	}
	abs := filepath.Clean(filepath.Join(cwd, p))
	rel, err := filepath.Rel(ps.ProjectRoot, abs)
	if err != nil {
		return abs
	}
	if rel == "." {
		return "/"
	}
	return "/" + rel
}

// Build maps p into the build tree and creates the parent directory of the
// result. Paths already below BuildRoot pass through.
func (ps *Paths) Build(cwd, p string) (string, error) {
	if p == "" {
		return p, nil
	}
	bp := p
	if p[0] != '/' || !ps.InBuildTree(p) {
		inner := ps.Inner(cwd, p)
		if strings.HasPrefix(inner, ps.ProjectRoot+"/") {
			bp = ps.BuildRoot + inner[len(ps.ProjectRoot):]
		} else {
			bp = filepath.Join(ps.BuildRoot, inner[1:])
		}
	}
	bp = filepath.Clean(bp)
	if err := os.MkdirAll(filepath.Dir(bp), 0777); err != nil {
		return bp, fmt.Errorf("build path for '%s': %w", p, err)
	}
	return bp, nil
}

func (ps *Paths) InBuildTree(p string) bool {
	return p == ps.BuildRoot || strings.HasPrefix(p, ps.BuildRoot+"/")
}

// FormalizeLibName canonicalizes a library name: a leading ':' is stripped,
// a trailing ":leaf" in the file part becomes "/leaf" and imported names are
// forced onto the '@' key space. The bazel shorthands "//a:b", "//:b", ":b"
// and "@pkg//:lib" all collapse onto the plain inner form.
func (ps *Paths) FormalizeLibName(cwd, name string, imported bool) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty lib name")
	}
	n := name
	if imported && n[0] != '@' {
		n = "@" + n
	}
	if n[0] == ':' {
		n = n[1:]
	}
	dir, fn := path.Split(n)
	if p := strings.LastIndexByte(fn, ':'); p >= 0 {
		fn = fn[:p] + "/" + fn[p+1:]
		if strings.IndexByte(fn, ':') >= 0 {
			return "", fmt.Errorf(
				"the filename part of lib name '%s' may hold one ':' at most",
				name,
			)
		}
		n = dir + fn
	}
	n = ps.Inner(cwd, n)
	if n[0] == '@' && !strings.Contains(n, "/") {
		n += "/"
	}
	if c := path.Clean(n); strings.HasSuffix(n, "/") && !strings.HasSuffix(c, "/") {
		n = c + "/"
	} else {
		n = c
	}
	return n, nil
}
