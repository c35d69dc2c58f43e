package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jcorbin/stackwasm/internal/flushio"
	"github.com/jcorbin/stackwasm/internal/programs"
	"github.com/jcorbin/stackwasm/internal/vm"
)

func main() {
	ctx := context.Background()

	var cfg config
	cfg.bind(flag.CommandLine)
	flag.Parse()

	logger := zap.NewNop()
	if cfg.trace {
		var err error
		if logger, err = zap.NewDevelopment(); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %+v\n", err)
			os.Exit(1)
		}
	}
	defer logger.Sync()

	if cfg.timeout != 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}
	if err := run(ctx, cfg, flag.Args(), os.Stdout, logger.Sugar()); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %+v\n", err)
		os.Exit(1)
	}
}

// job is one program to compile and run.
type job struct {
	name    string
	input   []int64
	results int

	compile  func(logf func(mess string, args ...interface{})) (programs.Compiled, error)
	compiled programs.Compiled
}

// run compiles the selected programs concurrently, then runs each in turn,
// writing results to w.
//
// With no args every registered program runs on its sample input. Otherwise
// args name a program and, optionally, its input; with -asm they are all
// input.
func run(ctx context.Context, cfg config, args []string, w io.Writer, log *zap.SugaredLogger) error {
	out := flushio.NewWriteFlusher(w)

	if cfg.list {
		for _, prog := range programs.All() {
			if err := flushio.WriteString(out, fmt.Sprintf("%v\t%v\n", prog.Name, prog.Doc)); err != nil {
				return err
			}
		}
		return out.Flush()
	}

	jobs, err := selectJobs(cfg, args)
	if err != nil {
		return err
	}

	var eg errgroup.Group
	for i := range jobs {
		j := &jobs[i]
		eg.Go(func() error {
			compiled, err := j.compile(cfg.compilerLogf(log, j.name))
			if err != nil {
				return errors.WithMessagef(err, "compiling %v", j.name)
			}
			j.compiled = compiled
			log.Debugw("compiled", "program", j.name, "instructions", len(compiled.Instructions))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	for _, j := range jobs {
		if err := j.run(ctx, cfg, out, log); err != nil {
			return err
		}
	}
	return out.Flush()
}

func selectJobs(cfg config, args []string) ([]job, error) {
	if cfg.asm != "" {
		input, err := parseInput(args)
		if err != nil {
			return nil, err
		}
		return []job{{
			name:  cfg.asm,
			input: input,
			compile: func(func(mess string, args ...interface{})) (programs.Compiled, error) {
				return readAsm(cfg.asm)
			},
		}}, nil
	}

	if len(args) == 0 {
		var jobs []job
		for _, prog := range programs.All() {
			jobs = append(jobs, programJob(prog, prog.Input))
		}
		return jobs, nil
	}

	prog, ok := programs.Get(args[0])
	if !ok {
		return nil, errors.Errorf("no program named %q", args[0])
	}
	input := prog.Input
	if len(args) > 1 {
		var err error
		if input, err = parseInput(args[1:]); err != nil {
			return nil, err
		}
	}
	return []job{programJob(prog, input)}, nil
}

func programJob(prog programs.Program, input []int64) job {
	return job{
		name:    prog.Name,
		input:   input,
		results: len(prog.Want),
		compile: prog.Compile,
	}
}

func (j job) run(ctx context.Context, cfg config, out flushio.WriteFlusher, log *zap.SugaredLogger) error {
	if cfg.code {
		if err := writeCode(out, j.compiled); err != nil {
			return err
		}
	}
	if cfg.tree {
		if err := writeTree(out, j.compiled); err != nil {
			return err
		}
	}

	m := vm.New(j.compiled.Instructions, cfg.vmOptions(log)...)
	if err := m.Run(ctx, j.input...); err != nil {
		err = errors.WithMessagef(err, "running %v", j.name)
		if cfg.dump {
			err = multierr.Append(err, errors.WithMessage(writeDump(out, m, j.compiled), "dumping"))
		}
		return err
	}

	top := m.Stack()
	if j.results > 0 && j.results <= len(top) {
		top = top[len(top)-j.results:]
	}
	if err := writeResult(out, j.name, j.input, top, m.Steps()); err != nil {
		return err
	}
	if cfg.dump {
		return writeDump(out, m, j.compiled)
	}
	return nil
}
