package vm

import (
	"fmt"

	"github.com/funvibe/luax/internal/config"
)

// RegisterBuiltins registers all standard builtins in the globals
func (s *State) RegisterBuiltins() {
	s.globals[config.PrintFuncName] = Func(config.PrintFuncName, builtinPrint)
}

// builtinPrint writes its single argument and a newline
func builtinPrint(s *State) int {
	fmt.Fprintln(s.out, s.Arg(0).String())
	return 0
}
