package main

import (
	"bufio"
	"encoding/json"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/pybridge/bridge"
	"github.com/wippyai/pybridge/errors"
)

const (
	exitOK        = 0
	exitRaised    = 1
	exitBootstrap = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	libPath := flag.String("lib", "", "path to the interpreter shared library (default $"+bridge.EnvLibrary+")")
	code := flag.String("c", "", "source to run")
	file := flag.String("file", "", "file to run")
	modeName := flag.String("mode", "", "statement, module or expression (default module, or auto with -i)")
	debug := flag.Bool("debug", false, "track references and log leaks on exit")
	asJSON := flag.Bool("json", false, "print expression results as JSON")
	interactive := flag.Bool("i", false, "interactive mode")
	vars := map[string]any{}
	flag.Func("var", "define a __main__ global as name=<json>", func(s string) error {
		name, raw, ok := strings.Cut(s, "=")
		if !ok || name == "" {
			return fmt.Errorf("expected name=value, got %q", s)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			// bare words are taken as strings
			v = raw
		}
		vars[name] = v
		return nil
	})
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Runs source in an embedded interpreter.")
		fmt.Fprintln(os.Stderr, "\nOptions:")
		flag.PrintDefaults()
		fmt.Fprintln(os.Stderr, "\nExamples:")
		fmt.Fprintf(os.Stderr, "  %s -c 'print(1 + 2)'\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -mode expression -c '[1, 2, 3]'\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -var limit=10 -mode expression -json -c 'limit * 2'\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -i\n", os.Args[0])
	}
	flag.Parse()

	mode := modeAuto
	if *modeName != "" {
		m, err := bridge.ParseMode(*modeName)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitBootstrap
		}
		mode = m
	} else if !*interactive {
		mode = bridge.ModeModule
	}

	src, err := source(*code, *file, *interactive)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		return exitBootstrap
	}

	opts := []bridge.Option{bridge.WithDebug(*debug)}
	if *libPath != "" {
		opts = append(opts, bridge.WithLibraryPath(*libPath))
	}
	if *debug {
		logger, err := zap.NewDevelopment()
		if err == nil {
			defer logger.Sync()
			opts = append(opts, bridge.WithLogger(logger))
		}
	}

	w, err := startWorker(vars, opts...)
	if err != nil {
		fmt.Fprintln(os.Stderr, bootstrapMessage(err))
		return exitBootstrap
	}
	defer w.stop()

	if *interactive {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			if err := runInteractive(w, mode, *asJSON); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				return exitBootstrap
			}
			return exitOK
		}
		return runLines(w, os.Stdin, os.Stdout, mode, *asJSON)
	}

	res := w.eval(src, mode, *asJSON)
	if res.err != nil {
		fmt.Fprintln(os.Stderr, traceback(res.err))
		return exitRaised
	}
	if res.output != "" {
		fmt.Println(res.output)
	}
	return exitOK
}

func source(code, file string, interactive bool) (string, error) {
	switch {
	case code != "" && file != "":
		return "", fmt.Errorf("-c and -file are mutually exclusive")
	case code != "":
		return code, nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read source: %w", err)
		}
		return string(data), nil
	case interactive:
		return "", nil
	}
	return "", fmt.Errorf("nothing to run: use -c, -file or -i")
}

// runLines evaluates stdin line by line when it is not a terminal.
func runLines(w *worker, in io.Reader, out io.Writer, mode bridge.Mode, asJSON bool) int {
	status := exitOK
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		res := w.eval(line, mode, asJSON)
		if res.err != nil {
			fmt.Fprintln(out, traceback(res.err))
			status = exitRaised
			continue
		}
		if res.output != "" {
			fmt.Fprintln(out, res.output)
		}
	}
	if err := sc.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "read stdin: %v\n", err)
		return exitBootstrap
	}
	return status
}

// traceback renders an error the way the interpreter prints the last line
// of a traceback.
func traceback(err error) string {
	var e *errors.Error
	if stderrors.As(err, &e) && e.Kind == errors.KindForeignException {
		if e.Detail == "" {
			return e.ForeignType
		}
		return e.ForeignType + ": " + e.Detail
	}
	return err.Error()
}

func bootstrapMessage(err error) string {
	var missing *errors.MissingSymbolsError
	if stderrors.As(err, &missing) {
		return "library is not a usable interpreter: " + err.Error()
	}
	var e *errors.Error
	if stderrors.As(err, &e) {
		switch e.Kind {
		case errors.KindConfigMissing:
			return fmt.Sprintf("%s; set it or pass -lib", e.Detail)
		case errors.KindLoadFailed:
			return "cannot load interpreter: " + err.Error()
		}
	}
	return err.Error()
}
