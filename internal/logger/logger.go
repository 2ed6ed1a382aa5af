package logger

import (
	"github.com/fatih/color"
)

// Leveled printf-style output. Info goes to the user on every run; Debug is
// a no-op unless enabled via the --debug flag.
var (
	Info  = color.New(color.FgGreen).PrintfFunc()
	Warn  = color.New(color.FgYellow).PrintfFunc()
	Error = color.New(color.FgRed).PrintfFunc()
	Debug = func(format string, a ...any) {}
)

func Init(enableDebug bool) {
	if enableDebug {
		Debug = color.New(color.FgCyan).PrintfFunc()
	} else {
		Debug = func(format string, a ...any) {}
	}
}
