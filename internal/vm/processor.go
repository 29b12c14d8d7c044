package vm

import (
	"errors"
	"fmt"

	"github.com/funvibe/luax/internal/pipeline"
)

// CompilerProcessor drains the token stream into a Chunk
type CompilerProcessor struct{}

func (cp *CompilerProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.Failed() {
		return ctx
	}
	if ctx.Tokens == nil {
		ctx.AddError(errors.New("compiler: no token stream"))
		return ctx
	}
	chunk, err := NewCompiler(ctx.Tokens).Compile()
	if err != nil {
		if ctx.FilePath != "" {
			err = fmt.Errorf("%s:%w", ctx.FilePath, err)
		}
		ctx.AddError(err)
		return ctx
	}
	chunk.File = ctx.FilePath
	ctx.Chunk = chunk
	return ctx
}

// ExecutionProcessor runs the compiled chunk against State
type ExecutionProcessor struct {
	State *State
}

// NewExecutionProcessor creates the execution stage for state
func NewExecutionProcessor(state *State) *ExecutionProcessor {
	return &ExecutionProcessor{State: state}
}

func (p *ExecutionProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.Failed() {
		return ctx
	}
	chunk, ok := ctx.Chunk.(*Chunk)
	if !ok || chunk == nil {
		ctx.AddError(errors.New("execution: no compiled chunk"))
		return ctx
	}
	if err := p.State.Execute(chunk); err != nil {
		ctx.AddError(err)
	}
	return ctx
}
