package config

// Version is the current lkr toolchain version. Set at build time via
// -ldflags, or by editing this file directly.
var Version = "0.1.0"

const SourceFileExt = ".lkr"

// SourceFileExtensions are all recognized source file extensions.
var SourceFileExtensions = []string{".lkr"}

// BytecodeFileExt is the compiled-module extension written by `lkr compile`
// and read back by the bare-FILE magic-sniff path in cmd/lkr.
const BytecodeFileExt = ".lkrb"

// TrimSourceExt removes any recognized source extension from a filename.
// Returns the original string if no extension matches.
func TrimSourceExt(name string) string {
	for _, ext := range SourceFileExtensions {
		if len(name) >= len(ext) && name[len(name)-len(ext):] == ext {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}

// HasSourceExt returns true if the path ends with any recognized source extension.
func HasSourceExt(path string) bool {
	for _, ext := range SourceFileExtensions {
		if len(path) >= len(ext) && path[len(path)-len(ext):] == ext {
			return true
		}
	}
	return false
}

// IsTestMode indicates if the program is running in test mode. Set by
// internal/cli's runCheck when handling the `check` subcommand.
var IsTestMode = false

// Built-in function names. internal/stdlib defines print, len and type_of
// as globals before running any user program; it defines no `raise`
// global, and RaiseFuncName is not referenced elsewhere.
const (
	PrintFuncName  = "print"
	RaiseFuncName  = "raise"
	LenFuncName    = "len"
	TypeOfFuncName = "type_of"
)

// Built-in namespace names, each bound to a Map of native functions.
const (
	StreamNamespace  = "stream"
	ChannelNamespace = "channel"
	TaskNamespace    = "task"
)
