package zmake

import (
	"fmt"
	"io"
)

// Usage writes the command line help of a rules executable.
func Usage(w io.Writer) {
	fmt.Fprint(w, `usage: run from the project root with any of
  -h        show this help
  -v        print every executed command
  -d[N]     debug output, level N (default 1)
  -g        compile objects with -g
  -O<n>     force optimization level n onto compile and link commands (0..3)
  -e        export the library table to the build tree
  -j<n>     build with n parallel jobs
  -t<a;b>   build only these targets; sources map onto their objects
  -b<dir>   build all targets under dir (-c<dir> is the same)
  -A<tgt>   dump the dependency tree of tgt
  -l[dir]   list targets, optionally only under dir
`)
}
