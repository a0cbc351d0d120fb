package debugloop

import (
	"context"

	"github.com/danshapiro/actcore/internal/scout"
)

// EditRequest is what the Debug Loop hands to the editing black box: the
// parsed task plus the aggregated Scout context.
type EditRequest struct {
	Task    *TaskConstraints
	ScoutA  *scout.Report
	ScoutB  *scout.Report
}

// Editor mutates the repository working tree to attempt the task. Its
// implementation is a black box per spec.md §1 ("source-code editing
// primitives... treated as a black box bounded by the Write Boundary
// Enforcer"); the Debug Loop only calls it and classifies the error it
// returns.
type Editor interface {
	Edit(ctx context.Context, req EditRequest) error
}

// EditorFunc adapts a plain function to the Editor interface.
type EditorFunc func(ctx context.Context, req EditRequest) error

func (f EditorFunc) Edit(ctx context.Context, req EditRequest) error { return f(ctx, req) }
