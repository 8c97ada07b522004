package zmake

import (
	"testing"
	"time"

	"git.fractalqb.de/fractalqb/zmake/zmakore"
)

type TestTracer struct{ t *testing.T }

var _ zmakore.Tracer = TestTracer{}

func (tr TestTracer) Debug(t *zmakore.Trace, msg string, args ...any) {
	tr.t.Logf("zmake-DEBUG: "+msg+" %v", args)
}

func (tr TestTracer) Info(t *zmakore.Trace, msg string, args ...any) {
	tr.t.Logf("zmake-INFO: "+msg+" %v", args)
}

func (tr TestTracer) Warn(t *zmakore.Trace, msg string, args ...any) {
	tr.t.Logf("zmake-WARN: "+msg+" %v", args)
}

func (tr TestTracer) Error(t *zmakore.Trace, msg string, args ...any) {
	tr.t.Logf("zmake-ERROR: "+msg+" %v", args)
}

func (tr TestTracer) StartStage(t *zmakore.Trace, stage string) {
	tr.t.Logf("zmake-StartStage: %s", stage)
}

func (tr TestTracer) TargetReport(t *zmakore.Trace, name, file string, ok bool, dt time.Duration) {
	tr.t.Logf("zmake-TargetReport: %s ok=%t file=%s took %s", name, ok, file, dt)
}

func (tr TestTracer) TargetCommand(t *zmakore.Trace, cmd string) {
	tr.t.Logf("zmake-TargetCommand: %s", cmd)
}
