package lexer

import (
	"errors"

	"github.com/funvibe/luax/internal/pipeline"
)

// LexerProcessor is the pipeline stage that opens the token stream.
// Tokens are produced lazily as the compiler stage pulls them.
type LexerProcessor struct{}

func (lp *LexerProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.Failed() {
		return ctx
	}
	if ctx.Source == nil {
		ctx.AddError(errors.New("lexer: no source"))
		return ctx
	}
	ctx.Tokens = New(ctx.Source)
	return ctx
}
