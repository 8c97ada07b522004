package zmake

import (
	"context"
	"errors"
	"fmt"

	"git.fractalqb.de/fractalqb/zmake/zmakore"
)

type (
	Engine  = zmakore.Engine
	Node    = zmakore.Node
	Object  = zmakore.Object
	Library = zmakore.Library
	Binary  = zmakore.Binary
	Proto   = zmakore.Proto
	Config  = zmakore.Config
	Paths   = zmakore.Paths
	Trace   = zmakore.Trace
	Tracer  = zmakore.Tracer
	Runner  = zmakore.Runner
)

// DefaultBuildDirName is the directory under the project root that receives
// every generated artifact.
const DefaultBuildDirName = zmakore.DefaultBuildDirName

func NewEngine(projectRoot, buildDirName string, trace *Trace) (*Engine, error) {
	return zmakore.NewEngine(projectRoot, buildDirName, trace)
}

func NewTrace(ctx context.Context, tr Tracer) *Trace { return zmakore.NewTrace(ctx, tr) }

// Edit calls do with wrappers of [zmakore] types that allow easy editing of
// build rules. Edit recovers from any panic and returns it as an error, so
// the idiomatic error handling within do can be skipped.
func Edit(eng *Engine, do func(ProjectEd)) (err error) {
	defer func() {
		if p := recover(); p != nil {
			switch p := p.(type) {
			case error:
				err = p
			case string:
				err = errors.New(p)
			default:
				err = fmt.Errorf("panic: %+v", p)
			}
		}
	}()
	do(ProjectEd{eng})
	return
}

func mustEd(err error) {
	if err != nil {
		panic(err)
	}
}

func mustRet[T any](v T, err error) T {
	mustEd(err)
	return v
}
