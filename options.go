package main

import (
	"flag"
	"time"

	"go.uber.org/zap"

	"github.com/jcorbin/stackwasm/internal/vm"
)

type config struct {
	timeout    time.Duration
	trace      bool
	list       bool
	code       bool
	tree       bool
	dump       bool
	asm        string
	stackLimit uint
	stepLimit  uint
}

func (cfg *config) bind(fs *flag.FlagSet) {
	fs.DurationVar(&cfg.timeout, "timeout", 0, "specify a time limit")
	fs.BoolVar(&cfg.trace, "trace", false, "enable compiler and machine trace logging")
	fs.BoolVar(&cfg.list, "list", false, "list the registered programs")
	fs.BoolVar(&cfg.code, "code", false, "print the compiled instructions")
	fs.BoolVar(&cfg.tree, "tree", false, "print the debug tree as json")
	fs.BoolVar(&cfg.dump, "dump", false, "dump the machine after running")
	fs.StringVar(&cfg.asm, "asm", "", "run an instruction text file instead of a registered program")
	fs.UintVar(&cfg.stackLimit, "stack-limit", 0, "limit the data stack depth")
	fs.UintVar(&cfg.stepLimit, "step-limit", 0, "limit how many instructions run")
}

func (cfg config) vmOptions(log *zap.SugaredLogger) []vm.Option {
	opts := []vm.Option{
		vm.WithStackLimit(cfg.stackLimit),
		vm.WithStepLimit(cfg.stepLimit),
	}
	if cfg.trace {
		opts = append(opts, vm.WithLogf(log.Debugf))
	}
	return opts
}

// compilerLogf returns the compiler's logging function for a named program.
func (cfg config) compilerLogf(log *zap.SugaredLogger, name string) func(mess string, args ...interface{}) {
	if !cfg.trace {
		return nil
	}
	return log.With("program", name).Debugf
}
