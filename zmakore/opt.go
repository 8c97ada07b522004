package zmakore

import (
	"fmt"
	"strings"
)

var optLevels = []string{"0", "1", "2", "3", "g", "s", "fast", ""}

// findOptFlag returns the position and length of the first " -O…" flag in
// cmd starting at from, or -1.
func findOptFlag(cmd string, from int) (pos, length int) {
	for {
		p := strings.Index(cmd[from:], " -O")
		if p < 0 {
			return -1, 0
		}
		p += from
		rest := cmd[p+3:]
		lvl := rest
		if i := strings.IndexByte(rest, ' '); i >= 0 {
			lvl = rest[:i]
		}
		for _, l := range optLevels {
			if lvl == l {
				return p, 3 + len(lvl)
			}
		}
		from = p + 3
	}
}

// applyOpt forces the engine's optimization level onto cmd: the first -O
// flag is rewritten, later ones are dropped. Without any -O flag the level
// is appended unless it is 0.
func (e *Engine) applyOpt(cmd string) string {
	if !e.optSet {
		return cmd
	}
	flag := fmt.Sprintf(" -O%d", e.optLevel)
	p, l := findOptFlag(cmd, 0)
	if p < 0 {
		if e.optLevel == 0 {
			return cmd
		}
		return cmd + flag
	}
	cmd = cmd[:p] + flag + cmd[p+l:]
	from := p + len(flag)
	for {
		q, ql := findOptFlag(cmd, from)
		if q < 0 {
			return cmd
		}
		cmd = cmd[:q] + cmd[q+ql:]
		from = q
	}
}
