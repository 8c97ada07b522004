package zmake

import (
	"context"
	"fmt"
	"os"

	"git.fractalqb.de/fractalqb/zmake/zmakore"
)

// RulesFileName is the conventional name of a project's rules program.
const RulesFileName = "mk.go"

// Main parses os.Args, evaluates rules and runs the requested stages. It is
// the entry point of a project's rules program.
func Main(rules func(ProjectEd)) { os.Exit(Run(os.Args[1:], rules)) }

// Run is Main without the process exit. It returns the exit code: 0 on
// success, 1 on usage or rule errors, 2 on build failure.
func Run(args []string, rules func(ProjectEd)) int {
	tr := DefaultTracer()
	opts, err := ParseArgs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "[Error]", err)
		Usage(os.Stderr)
		return 1
	}
	if opts.Help {
		Usage(os.Stdout)
		return 0
	}
	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, "[Error]", err)
		return 1
	}
	if !isProjectRoot(wd) {
		fmt.Fprintf(os.Stderr,
			"[Error] '%s' is no project root, run from the directory holding %s or %s\n",
			wd, RulesFileName, WorkspaceFileName)
		return 1
	}
	if opts.Debug > 0 {
		tr.Log |= zmakore.TraceInfo | zmakore.TraceDebug
	}
	trace := NewTrace(context.Background(), tr)
	ws, err := LoadWorkspace(wd)
	if err != nil {
		trace.Error("`err`", "err", err)
		return 1
	}
	eng, err := NewEngine(wd, ws.BuildDir, trace)
	if err != nil {
		trace.Error("`err`", "err", err)
		return 1
	}
	eng.Verbose = opts.Verbose
	eng.Debug = opts.Debug
	if opts.Jobs > 0 {
		eng.Jobs = opts.Jobs
	}
	if opts.OptSet {
		eng.SetOptimizationLevel(opts.OptLevel)
	}
	if opts.DebugInfo {
		eng.DefaultObjectConfig().Set("-g")
	}

	trace.StartStage("analyze targets under the directory " + wd)
	if err := ws.Apply(eng); err != nil {
		trace.Error("`err`", "err", err)
		return 1
	}
	if err := Edit(eng, rules); err != nil {
		trace.Error("`err`", "err", err)
		return 1
	}

	if opts.DumpTarget != "" {
		n := eng.FindTarget(opts.DumpTarget)
		if n == nil {
			trace.Error("can't find the target `name`", "name", opts.DumpTarget)
			return 1
		}
		tr.Log |= zmakore.TraceDebug
		eng.DumpDeps(n)
		return 0
	}
	if opts.List {
		listTargets(eng, opts.ListDir)
		return 0
	}
	if err := selectTargets(eng, opts); err != nil {
		trace.Error("`err`", "err", err)
		return 1
	}
	if err := eng.BuildAll(); err != nil {
		trace.Error("`err`", "err", err)
		return 2
	}
	if opts.Export {
		if err := eng.ExportLibs(); err != nil {
			trace.Error("`err`", "err", err)
			return 1
		}
	}
	if err := eng.InstallAll(); err != nil {
		trace.Error("`err`", "err", err)
		return 1
	}
	return 0
}

func isProjectRoot(dir string) bool {
	for _, f := range []string{RulesFileName, WorkspaceFileName} {
		if _, err := os.Stat(dir + "/" + f); err == nil {
			return true
		}
	}
	return false
}

// selectTargets narrows the build to the -t and -b/-c choices. A target
// naming an object also rebuilds the libraries holding it.
func selectTargets(eng *Engine, opts *Options) error {
	for _, t := range opts.Targets {
		n := eng.FindTarget(t)
		if n == nil {
			return fmt.Errorf("can't find the target '%s'", t)
		}
		eng.AddTargetNode(n)
		if o, ok := n.(*Object); ok {
			for _, u := range o.Users() {
				if _, isLib := u.(*Library); isLib {
					eng.AddTargetNode(u)
				}
			}
		}
	}
	for _, d := range opts.TargetDirs {
		ts := eng.TargetsUnder(d)
		if len(ts) == 0 {
			return fmt.Errorf("no targets under '%s'", d)
		}
		for _, n := range ts {
			eng.AddTargetNode(n)
		}
	}
	return nil
}

func listTargets(eng *Engine, dir string) {
	var ns []Node
	if dir == "" {
		ns = eng.Nodes()
	} else {
		ns = eng.TargetsUnder(dir)
	}
	for _, n := range ns {
		switch n.Base().Kind() {
		case zmakore.KindHeader, zmakore.KindSource, zmakore.KindNone:
			continue
		}
		fmt.Printf("target:%s, path:%s\n", n.Base().Key(), n.Base().Path())
	}
}
