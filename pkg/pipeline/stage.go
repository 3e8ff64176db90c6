// Package pipeline holds the post-extraction stage contract and the value
// types passed between the orchestrator and its stages.
package pipeline

import "context"

// Stage turns one input value into one output value. The orchestrator runs
// stages after the thumbnail loop, so they may take their time and use
// their own workers.
type Stage[In, Out any] interface {
	Execute(ctx context.Context, input In) (Out, error)
}

// StageFunc lets a plain function serve as a Stage, e.g. a fake in tests.
type StageFunc[In, Out any] func(ctx context.Context, input In) (Out, error)

func (f StageFunc[In, Out]) Execute(ctx context.Context, input In) (Out, error) {
	return f(ctx, input)
}

// ContactSheetStage is the stage that renders tiles into a sheet.
type ContactSheetStage = Stage[ContactSheetInput, ContactSheetResult]
