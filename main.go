package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/pflag"
)

const usage = `md2html - convert a Markdown file to HTML

Usage: md2html [OPTIONS] [--] <FILE>

A single argument is always the file. Use -- before a file name starting
with a dash when options are given.

Options:
	-c, --config <CONFIG> TOML file with conversion option overrides
	-o, --output <OUTPUT> Write HTML to this file instead of standard output
	-d, --document        Wrap the HTML in a complete HTML document
	-w, --watch           Convert again whenever the file changes
	-v, --verbose         Print timing information to standard error
	-h, --help            Print this help
`

// convertFile reads the Markdown file at path and returns it as HTML
func convertFile(path string, opts Options) (string, error) {
	defer measure("convertFile")()

	src, err := readSource(path)
	if err != nil {
		return "", err
	}

	out, err := newConverter(opts).Convert(src)
	if err != nil {
		return "", &ConversionError{Path: path, Err: err}
	}

	return out, nil
}

// writeOutput writes html followed by exactly one newline, either to
// the file at dest or to stdout when dest is empty
func writeOutput(html string, dest string, stdout io.Writer) error {
	html = strings.TrimRight(html, "\n") + "\n"

	if dest != "" {
		if err := os.WriteFile(dest, []byte(html), 0644); err != nil {
			return &IOError{Path: dest, Err: err}
		}
		return nil
	}

	if _, err := io.WriteString(stdout, html); err != nil {
		return &IOError{Path: "stdout", Err: err}
	}
	return nil
}

func run(ctx context.Context, args []string, stdout io.Writer, stderr io.Writer) error {
	var (
		configFile       string
		outputFile       string
		completeDocument bool
		watch            bool
		verbose          bool
	)

	flags := pflag.NewFlagSet("md2html", pflag.ContinueOnError)
	flags.SetOutput(io.Discard)
	flags.Usage = func() {}
	flags.StringVarP(&configFile, "config", "c", "", "")
	flags.StringVarP(&outputFile, "output", "o", "", "")
	flags.BoolVarP(&completeDocument, "document", "d", false, "")
	flags.BoolVarP(&watch, "watch", "w", false, "")
	flags.BoolVarP(&verbose, "verbose", "v", false, "")

	var path string
	if len(args) == 1 && args[0] != "-h" && args[0] != "--help" {
		// a lone argument is the Markdown file, even when it starts with a dash
		path = args[0]
	} else {
		if err := flags.Parse(args); err != nil {
			if errors.Is(err, pflag.ErrHelp) {
				fmt.Fprint(stderr, usage)
				return nil
			}
			return &ArgumentError{Msg: "invalid arguments", Err: err}
		}

		if flags.NArg() != 1 {
			return &ArgumentError{Msg: fmt.Sprintf("expected exactly one Markdown file, got %d arguments", flags.NArg())}
		}
		path = flags.Arg(0)
	}

	log.SetVerbose(verbose)

	cfg := defaultConfig()
	if configFile != "" {
		if err := parseConfig(cfg, configFile); err != nil {
			return &ArgumentError{Msg: "error reading configuration file " + configFile, Err: err}
		}
	}
	if completeDocument {
		cfg.CompleteHTMLDocument = ptr(true)
	}

	opts, err := cfg.Options()
	if err != nil {
		return &ArgumentError{Msg: "invalid configuration", Err: err}
	}

	// create the watcher before converting, so no write is missed in between
	var fw *fileWatcher
	if watch {
		fw, err = watchFile(path)
		if err != nil {
			return &IOError{Path: path, Err: err}
		}
	}

	html, err := convertFile(path, opts)
	if err == nil {
		err = writeOutput(html, outputFile, stdout)
	}
	if err != nil {
		if fw != nil {
			fw.Close()
		}
		return err
	}
	if fw == nil {
		return nil
	}

	log.Info("Watching %s for changes\n", path)
	return fw.Run(ctx, func() {
		html, err := convertFile(path, opts)
		if err == nil {
			err = writeOutput(html, outputFile, stdout)
		}
		if err != nil {
			log.Warn("%s\n", err)
		}
	})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		log.Err("%s\n", err)
		stop()
		os.Exit(exitCode(err))
	}
}
