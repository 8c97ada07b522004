package zmakore

import (
	"context"
	"time"
)

type TraceLog uint

const (
	TraceWarn TraceLog = (1 << iota)
	TraceInfo
	TraceDebug
)

// Tracer receives the engine's progress reporting. Implementations decide
// about formatting, coloring and log levels.
type Tracer interface {
	Debug(t *Trace, msg string, args ...any)
	Info(t *Trace, msg string, args ...any)
	Warn(t *Trace, msg string, args ...any)
	Error(t *Trace, msg string, args ...any)

	// StartStage marks entering a build phase, e.g. analyzing a rules
	// directory, building all targets or installing.
	StartStage(t *Trace, stage string)

	// TargetReport is emitted once per executed target command.
	TargetReport(t *Trace, name, file string, ok bool, dt time.Duration)

	// TargetCommand carries the full shell command of the last report.
	TargetCommand(t *Trace, cmd string)
}

type Trace struct {
	root *traceRoot
}

func NewTrace(ctx context.Context, tr Tracer) *Trace {
	return &Trace{root: &traceRoot{ctx: ctx, tr: tr}}
}

func (t *Trace) Ctx() context.Context { return t.root.ctx }

func (t *Trace) Debug(msg string, args ...any) { t.root.tr.Debug(t, msg, args...) }
func (t *Trace) Info(msg string, args ...any)  { t.root.tr.Info(t, msg, args...) }
func (t *Trace) Warn(msg string, args ...any)  { t.root.tr.Warn(t, msg, args...) }
func (t *Trace) Error(msg string, args ...any) { t.root.tr.Error(t, msg, args...) }

func (t *Trace) StartStage(stage string) { t.root.tr.StartStage(t, stage) }

func (t *Trace) targetReport(name, file string, ok bool, dt time.Duration) {
	t.root.tr.TargetReport(t, name, file, ok, dt)
}

func (t *Trace) targetCommand(cmd string) { t.root.tr.TargetCommand(t, cmd) }

type traceRoot struct {
	ctx context.Context
	tr  Tracer
}
