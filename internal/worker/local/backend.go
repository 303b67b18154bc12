// Package local runs participant code in process. Code is a text/template
// whose trimmed output is the action, e.g.
//
//	{{ with nearestScore .World .Avatar.X .Avatar.Y }}move {{ toward $.Avatar.X $.Avatar.Y (index . 0) (index . 1) }}{{ end }}
//
// Templates get the sprig functions plus log, toward, nearestScore and free.
package local

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/pixil98/go-gridgame/internal/roster"
	"github.com/pixil98/go-gridgame/internal/worker"
	"github.com/pixil98/go-gridgame/internal/world"
)

// maxOutput bounds how much a template may print per turn.
const maxOutput = 64 << 10

var baseFuncs = func() template.FuncMap {
	fm := sprig.TxtFuncMap()
	// Removed so templates cannot read the host environment.
	delete(fm, "env")
	delete(fm, "expandenv")

	fm["toward"] = toward
	fm["nearestScore"] = nearestScore
	fm["free"] = free
	fm["log"] = func(...any) string { return "" }
	return fm
}()

var (
	sprigUntil     = baseFuncs["until"].(func(int) []int)
	sprigUntilStep = baseFuncs["untilStep"].(func(int, int, int) []int)
	sprigSeq       = baseFuncs["seq"].(func(...int) string)
)

type Backend struct{}

func New() *Backend {
	return &Backend{}
}

func (b *Backend) Spawn(_ context.Context, p roster.Participant) (worker.Runner, error) {
	tmpl, err := Compile(p.Code)
	if err != nil {
		return nil, err
	}
	return &Runner{tmpl: tmpl}, nil
}

// Compile parses participant code.
func Compile(code string) (*template.Template, error) {
	tmpl, err := template.New("participant").Funcs(baseFuncs).Option("missingkey=zero").Parse(code)
	if err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}
	return tmpl, nil
}

type Runner struct {
	mu   sync.Mutex
	tmpl *template.Template
	dead bool
}

func (r *Runner) NextAction(ctx context.Context, v worker.View) (worker.Turn, error) {
	r.mu.Lock()
	tmpl, dead := r.tmpl, r.dead
	r.mu.Unlock()
	if dead {
		return worker.Turn{}, fmt.Errorf("runner terminated")
	}

	// Each call gets its own clone so log output never crosses calls.
	var logBuf bytes.Buffer
	call, err := tmpl.Clone()
	if err != nil {
		return worker.Turn{}, fmt.Errorf("cloning template: %w", err)
	}
	call.Funcs(callFuncs(ctx, &logBuf))

	out := &limitedBuffer{ctx: ctx, max: maxOutput}
	if err := call.Execute(out, v); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return worker.Turn{Log: logBuf.String()}, ctxErr
		}
		return worker.Turn{Log: logBuf.String()}, fmt.Errorf("executing template: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return worker.Turn{Log: logBuf.String()}, err
	}

	a, err := world.ParseAction(out.String())
	if err != nil {
		return worker.Turn{Log: logBuf.String()}, err
	}
	return worker.Turn{Action: a, Log: logBuf.String()}, nil
}

func (r *Runner) UpdateCode(_ context.Context, code string) error {
	tmpl, err := Compile(code)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tmpl = tmpl
	return nil
}

func (r *Runner) Terminate(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dead = true
	return nil
}

// callFuncs shadows the functions a template can loop or block on with
// versions that fail once ctx is done, which stops the execution.
func callFuncs(ctx context.Context, logBuf *bytes.Buffer) template.FuncMap {
	return template.FuncMap{
		"log": func(args ...any) (string, error) {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			fmt.Fprintln(logBuf, args...)
			return "", nil
		},
		"until": func(n int) ([]int, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return sprigUntil(n), nil
		},
		"untilStep": func(start, stop, step int) ([]int, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return sprigUntilStep(start, stop, step), nil
		},
		"seq": func(params ...int) (string, error) {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			return sprigSeq(params...), nil
		},
		"toward": func(fromX, fromY, toX, toY int) (string, error) {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			return toward(fromX, fromY, toX, toY), nil
		},
		"nearestScore": func(s *world.Snapshot, x, y int) ([]int, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return nearestScore(s, x, y), nil
		},
		"free": func(s *world.Snapshot, x, y int) (bool, error) {
			if err := ctx.Err(); err != nil {
				return false, err
			}
			return free(s, x, y), nil
		},
	}
}

type limitedBuffer struct {
	bytes.Buffer
	ctx context.Context
	max int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if err := b.ctx.Err(); err != nil {
		return 0, err
	}
	if b.Len()+len(p) > b.max {
		return 0, fmt.Errorf("output exceeds %d bytes", b.max)
	}
	return b.Buffer.Write(p)
}
