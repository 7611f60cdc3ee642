package main

import (
	"io"
	stdlog "log"
	"os"
	"time"

	"github.com/fatih/color"
)

type logger struct {
	verbose bool
	std     *stdlog.Logger
}

var log = logger{
	std: stdlog.New(os.Stderr, "", stdlog.LstdFlags),
}

var (
	infoPrefix  = color.New(color.FgGreen).Sprint("[INFO]")
	warnPrefix  = color.New(color.FgYellow).Sprint("[WARN]")
	errorPrefix = color.New(color.FgRed).Sprint("[ERROR]")
)

func (l *logger) SetOutput(w io.Writer) {
	l.std.SetOutput(w)
}

func (l *logger) SetVerbose(v bool) {
	l.verbose = v
}

// Info is only printed in verbose mode, stdout is reserved for the HTML
func (l *logger) Info(format string, value ...any) {
	if !l.verbose {
		return
	}
	l.std.Printf(infoPrefix+" "+format, value...)
}

func (l *logger) Warn(format string, value ...any) {
	l.std.Printf(warnPrefix+" "+format, value...)
}

func (l *logger) Err(format string, value ...any) {
	l.std.Printf(errorPrefix+" "+format, value...)
}

// func to calculate and print execution time
func measure(name string) func() {
	start := time.Now()
	return func() {
		log.Info("%s execution time: %v\n", name, time.Since(start))
	}
}
