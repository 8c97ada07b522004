package zmake

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"git.fractalqb.de/fractalqb/sllm/v3"
	"git.fractalqb.de/fractalqb/zmake/zmakore"
)

// WriteTracer writes the engine's progress to W, stage banners and target
// reports colored when Color is set.
type WriteTracer struct {
	W     io.Writer
	Log   zmakore.TraceLog
	Color bool
}

func DefaultTracer() *WriteTracer {
	tr := &WriteTracer{W: os.Stdout, Log: zmakore.TraceWarn}
	if st, err := os.Stdout.Stat(); err == nil {
		tr.Color = st.Mode()&os.ModeCharDevice != 0
	}
	return tr
}

func (tr *WriteTracer) ParseLogFlag(f string) error {
	switch f {
	case "":
		return nil
	case "off":
		tr.Log = 0
	case "warn", "w":
		tr.Log = zmakore.TraceWarn
	case "info", "i":
		tr.Log = zmakore.TraceWarn | zmakore.TraceInfo
	case "debug", "d":
		tr.Log = zmakore.TraceWarn | zmakore.TraceInfo | zmakore.TraceDebug
	default:
		return fmt.Errorf("write tracer: illegal log flag '%s'", f)
	}
	return nil
}

const (
	sgrCyan   = "\x1b[96m"
	sgrYellow = "\x1b[93m"
	sgrRed    = "\x1b[91m"
	sgrReset  = "\x1b[0m"
)

func (tr *WriteTracer) colored(sgr, line string) string {
	if !tr.Color {
		return line
	}
	return sgr + line + sgrReset
}

func (tr *WriteTracer) Debug(t *zmakore.Trace, msg string, args ...any) {
	if tr.Log&zmakore.TraceDebug == 0 {
		return
	}
	sllm.Fprint(tr.W, msg, sllmArgs(args).append)
	fmt.Fprintln(tr.W)
}

func (tr *WriteTracer) Info(t *zmakore.Trace, msg string, args ...any) {
	if tr.Log&(zmakore.TraceInfo|zmakore.TraceDebug) == 0 {
		return
	}
	sllm.Fprint(tr.W, msg, sllmArgs(args).append)
	fmt.Fprintln(tr.W)
}

func (tr *WriteTracer) Warn(t *zmakore.Trace, msg string, args ...any) {
	if tr.Log&(zmakore.TraceWarn|zmakore.TraceInfo|zmakore.TraceDebug) == 0 {
		return
	}
	fmt.Fprint(tr.W, "[Warning] ")
	sllm.Fprint(tr.W, msg, sllmArgs(args).append)
	fmt.Fprintln(tr.W)
}

func (tr *WriteTracer) Error(t *zmakore.Trace, msg string, args ...any) {
	fmt.Fprint(tr.W, tr.colored(sgrRed, "[Error] "))
	sllm.Fprint(tr.W, msg, sllmArgs(args).append)
	fmt.Fprintln(tr.W)
}

func (tr *WriteTracer) StartStage(t *zmakore.Trace, stage string) {
	fmt.Fprintln(tr.W, tr.colored(sgrCyan, "* Start to "+stage))
}

func (tr *WriteTracer) TargetReport(t *zmakore.Trace, name, file string, ok bool, dt time.Duration) {
	res := "OK"
	sgr := sgrYellow
	if !ok {
		res = "failed"
		sgr = sgrRed
	}
	fmt.Fprintln(tr.W, tr.colored(sgr, fmt.Sprintf(
		"@ Build target %s %s, file: %s, spend: %d ms",
		name, res, file, dt.Milliseconds(),
	)))
}

func (tr *WriteTracer) TargetCommand(t *zmakore.Trace, cmd string) {
	pw := newPrefixWriter(tr.W, "# ")
	io.WriteString(pw, cmd)
	fmt.Fprintln(tr.W)
}

type sllmArgs []any

func (as sllmArgs) append(buf []byte, _ int, n string) ([]byte, error) {
	for len(as) > 0 {
		switch k := as[0].(type) {
		case string:
			if len(as) == 1 {
				return buf, fmt.Errorf("no value for key '%s'", n)
			}
			if k == n {
				return sllm.AppendArg(buf, as[1]), nil
			}
			as = as[2:]
		case slog.Attr:
			if k.Key == n {
				return sllm.AppendArg(buf, k.Value), nil
			}
			as = as[1:]
		default:
			return buf, fmt.Errorf("illegal key type %T", k)
		}
	}
	return buf, fmt.Errorf("no key '%s", n)
}
