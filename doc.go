// Package zmake builds C and C++ projects from rules written in Go. Instead
// of a rules DSL, a project carries a small Go program that registers its
// libraries, binaries and protos with an [Engine] and then hands over to
// [Main]. Running that program analyzes the dependency graph, decides what
// is out of date and drives the compiler in parallel.
//
//	"mk.go" is the recommended file name for a rules program
//
// A typical project looks like
//
//	project/
//	├── WORKSPACE.yaml
//	├── mk.go
//	├── core/
//	│   ├── util.h
//	│   └── util.cpp
//	└── app/
//	    └── main.cpp
//
// and is built with
//
//	project$ go run mk.go
//
// Every artifact lands under the build directory .zmade next to the source
// tree, together with the bookkeeping the incremental rebuild needs: a
// .cmd file per artifact with the command that produced it and a BUILD.md5s
// content-hash table. With -e the project exports a BUILD.libs table that
// other projects import to link against it.
//
// The rule editing API lives on [ProjectEd] and friends and panics on
// errors; [Edit] turns those panics back into ordinary error values. The
// engine itself, package [git.fractalqb.de/fractalqb/zmake/zmakore], keeps
// idiomatic error returns.
package zmake
