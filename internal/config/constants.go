package config

// SourceFileExtensions are all recognized source file extensions
var SourceFileExtensions = []string{".lua", ".luax"}

// Built-in function names
const (
	PrintFuncName = "print"
)

// Logger names passed to commonlog.GetLogger
const (
	VMLoggerName  = "luax.vm"
	CLILoggerName = "luax.cli"
)

// LogVerbosity is handed to commonlog.Configure by the CLI.
// 0 caps output at notice level: warnings such as runtime soft failures
// are written, info and debug lines are not. 2 adds debug lines.
const LogVerbosity = 0

// Operand limits of the instruction encoding
const (
	MaxRegisters    = 256   // A/B/C operands are 8 bits
	MaxConstants8   = 256   // constant operands of the global instructions
	MaxConstants16  = 65536 // Bx operand of LOADK
	MinSmallInteger = -32768
	MaxSmallInteger = 32767
)

// UsageLine is printed when the CLI gets no source file.
const UsageLine = "Usage: %s <lua file>"
