package zmakore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LibsFileName is the file below the build root that carries the project's
// exported library table.
const LibsFileName = "BUILD.libs"

// ExportLibs writes the library table of the project: one row per own
// library, followed by one row per imported library, whether it came from
// an imported project or was imported directly. Other
// projects import the table to link against this one.
func (e *Engine) ExportLibs() error {
	var sb strings.Builder
	sb.WriteString("#format: lib_name \\t lib_include_dirs \\t [lib_file \\t [deps]]\n")
	sb.WriteString("#using ';' as the separator for lib_include_dirs and deps\n")
	for _, n := range e.nodesWithPrefix("/") {
		l, ok := n.(*Library)
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "%s\t%s\t%s\t%s\n",
			l.key,
			strings.Join(l.IncludeDirs(), ";"),
			l.file,
			strings.Join(exportDepNames(l), ";"),
		)
	}
	for _, n := range e.nodesWithPrefix("@") {
		l, ok := n.(*Library)
		if !ok || !l.imported {
			continue
		}
		if !strings.HasSuffix(l.key, "/") && e.nodes[l.key] == n {
			fmt.Fprintf(&sb, "%s\t%s\t%s\n",
				l.key, strings.Join(l.IncludeDirs(), ";"), l.file)
		}
	}
	file := filepath.Join(e.paths.BuildRoot, LibsFileName)
	if err := os.MkdirAll(e.paths.BuildRoot, 0777); err != nil {
		return err
	}
	if err := os.WriteFile(file, []byte(sb.String()), 0666); err != nil {
		return fmt.Errorf("export libs: %w", err)
	}
	e.trace.Info("exported library table to `file`", "file", file)
	return nil
}

// exportDepNames lists a library's dep libraries for the export table. Deps
// on an imported library collapse onto the whole package.
func exportDepNames(l *Library) []string {
	var res []string
	seen := make(map[string]bool)
	for _, d := range l.depLibs() {
		n := d.key
		if n != "" && n[0] == '@' {
			n = "@" + extPkg(n) + "/"
		}
		if !seen[n] {
			seen[n] = true
			res = append(res, n)
		}
	}
	return res
}
