// This is an example zmake project that offers you a practical approach.
package main

import "git.fractalqb.de/fractalqb/zmake"

func main() { zmake.Main(rules) }

func rules(prj zmake.ProjectEd) {
	prj.InDir("core", func(d zmake.DirEd) {
		d.Library("util", "util.cpp").
			Flags("-Wall").
			ObjsFlags("-std=c++17")
	})

	prj.InDir("app", func(d zmake.DirEd) {
		d.Binary("app", "main.cpp").
			Libs("/core/util").
			Flags("-pthread").
			Install("bin", false)
	})
}
