package pipeline

import (
	"io"

	"github.com/funvibe/luax/internal/token"
)

// Processor is a single pipeline stage.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// TokenStream is a lazy token sequence with one token of lookahead.
type TokenStream interface {
	// Next returns and consumes the next token.
	Next() (token.Token, error)
	// Peek returns the next token without consuming it.
	Peek() (token.Token, error)
}

// PipelineContext carries one run from source bytes to execution.
type PipelineContext struct {
	FilePath string
	Source   io.ReadSeeker

	// Tokens is set by the lexer stage and drained by the compiler stage.
	Tokens TokenStream

	// Chunk holds the compiled unit (*vm.Chunk) once the compiler stage ran.
	// Typed as any so this package stays below vm in the import graph.
	Chunk any

	Errors []error
}

// NewPipelineContext creates a context reading from source.
func NewPipelineContext(source io.ReadSeeker) *PipelineContext {
	return &PipelineContext{Source: source}
}

// Failed reports whether any stage recorded an error.
func (ctx *PipelineContext) Failed() bool {
	return len(ctx.Errors) > 0
}

// AddError records a stage failure.
func (ctx *PipelineContext) AddError(err error) {
	ctx.Errors = append(ctx.Errors, err)
}
