package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/wippyai/pybridge/bridge"
	"github.com/wippyai/pybridge/convert"
	"github.com/wippyai/pybridge/errors"
)

// modeAuto evaluates as an expression first and falls back to a statement
// when the source does not parse as one, like an interactive prompt.
const modeAuto bridge.Mode = 0

type request struct {
	src    string
	mode   bridge.Mode
	asJSON bool
	reply  chan result
}

type result struct {
	output string
	err    error
}

// worker owns the interpreter. The session is created and used on one
// goroutine because the interpreter is bound to the thread that started it.
type worker struct {
	reqs    chan request
	done    chan struct{}
	version string
}

// startWorker opens a session on a dedicated goroutine and defines vars in
// __main__.
func startWorker(vars map[string]any, opts ...bridge.Option) (*worker, error) {
	w := &worker{
		reqs: make(chan request),
		done: make(chan struct{}),
	}
	ready := make(chan error, 1)

	go func() {
		defer close(w.done)

		b, err := bridge.Open(opts...)
		if err != nil {
			ready <- err
			return
		}
		defer b.Close()

		if err := defineVars(b, vars); err != nil {
			ready <- err
			return
		}
		w.version = b.Version().String()
		ready <- nil

		for req := range w.reqs {
			out, err := evaluate(b, req.src, req.mode, req.asJSON)
			req.reply <- result{output: out, err: err}
		}
	}()

	if err := <-ready; err != nil {
		<-w.done
		return nil, err
	}
	return w, nil
}

// eval runs src on the interpreter goroutine.
func (w *worker) eval(src string, mode bridge.Mode, asJSON bool) result {
	reply := make(chan result, 1)
	w.reqs <- request{src: src, mode: mode, asJSON: asJSON, reply: reply}
	return <-reply
}

// stop closes the session and waits for the goroutine to exit.
func (w *worker) stop() {
	close(w.reqs)
	<-w.done
}

func defineVars(b bridge.Bridge, vars map[string]any) error {
	if len(vars) == 0 {
		return nil
	}
	globals, err := b.MainDict()
	if err != nil {
		return err
	}
	enc := convert.NewEncoder(b)
	for name, v := range vars {
		obj, err := enc.Encode(v)
		if err != nil {
			return fmt.Errorf("define %s: %w", name, err)
		}
		status, err := b.DictSetItemString(globals, name, obj)
		_ = b.Release(obj)
		if err != nil {
			return err
		}
		if status != 0 {
			return b.FetchError()
		}
	}
	return nil
}

func evaluate(b bridge.Bridge, src string, mode bridge.Mode, asJSON bool) (string, error) {
	if mode != modeAuto {
		return runMode(b, src, mode, asJSON)
	}

	out, err := runMode(b, src, bridge.ModeExpression, asJSON)
	var fe *errors.Error
	if err != nil && stderrors.As(err, &fe) && fe.Kind == errors.KindForeignException && fe.ForeignType == "SyntaxError" {
		return runMode(b, src, bridge.ModeStatement, asJSON)
	}
	return out, err
}

func runMode(b bridge.Bridge, src string, mode bridge.Mode, asJSON bool) (string, error) {
	obj, err := b.Run(src, mode, nil, nil)
	if err != nil {
		return "", err
	}
	if obj.IsNull() {
		if err := b.FetchError(); err != nil {
			return "", err
		}
		return "", errors.NullReference(errors.PhaseRuntime, "PyRun_StringFlags")
	}
	defer b.Release(obj)

	if mode != bridge.ModeExpression {
		return "", nil
	}
	if asJSON {
		v, err := convert.NewDecoder(b).Decode(obj)
		if err != nil {
			return "", err
		}
		data, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	repr, err := b.Repr(obj)
	if err != nil {
		return "", err
	}
	if repr.IsNull() {
		return "", b.FetchError()
	}
	defer b.Release(repr)
	s, _, err := b.Text(repr)
	return s, err
}
