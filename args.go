package zmake

import (
	"fmt"
	"strconv"
	"strings"
)

// Options is the parsed command line of a rules executable. Values attach
// directly to their flag, e.g. -j8 or -tnet;core/util.
type Options struct {
	Help      bool
	Verbose   bool
	Debug     int
	DebugInfo bool
	OptLevel  int
	OptSet    bool
	Export    bool
	Jobs      int

	Targets    []string
	TargetDirs []string
	DumpTarget string
	List       bool
	ListDir    string
}

func ParseArgs(args []string) (*Options, error) {
	opts := new(Options)
	for _, a := range args {
		if len(a) < 2 || a[0] != '-' {
			return nil, fmt.Errorf("unexpected argument '%s'", a)
		}
		val := a[2:]
		switch a[1] {
		case 'h':
			opts.Help = true
		case 'v':
			opts.Verbose = true
		case 'g':
			opts.DebugInfo = true
		case 'e':
			opts.Export = true
		case 'd':
			if val == "" {
				opts.Debug = 1
			} else {
				n, err := strconv.Atoi(val)
				if err != nil {
					return nil, fmt.Errorf("debug level '%s': %w", val, err)
				}
				opts.Debug = n
			}
		case 'O':
			n, err := strconv.Atoi(val)
			if err != nil || n < 0 || n > 3 {
				return nil, fmt.Errorf("illegal optimization level '%s'", val)
			}
			opts.OptLevel, opts.OptSet = n, true
		case 'j':
			n, err := strconv.Atoi(val)
			if err != nil || n < 1 {
				return nil, fmt.Errorf("illegal job count '%s'", val)
			}
			opts.Jobs = n
		case 't':
			for _, t := range strings.Split(val, ";") {
				if t != "" {
					opts.Targets = append(opts.Targets, t)
				}
			}
		case 'b', 'c':
			if val == "" {
				val = "."
			}
			opts.TargetDirs = append(opts.TargetDirs, val)
		case 'A':
			if val == "" {
				return nil, fmt.Errorf("-A needs a target")
			}
			opts.DumpTarget = val
		case 'l':
			opts.List, opts.ListDir = true, val
		default:
			return nil, fmt.Errorf("unknown flag '%s'", a)
		}
	}
	return opts, nil
}
