package vm

// Option customizes a VM.
type Option interface{ apply(vm *VM) }

var defaults = []Option{
	withStackLimit(0),
	withStepLimit(0),
}

func (vm *VM) apply(opts ...Option) {
	for _, opt := range defaults {
		if opt != nil {
			opt.apply(vm)
		}
	}
	for _, opt := range opts {
		if opt != nil {
			opt.apply(vm)
		}
	}
}

// WithLogf enables trace logging of every executed instruction.
func WithLogf(logfn func(mess string, args ...interface{})) Option { return withLogfn(logfn) }

// WithStackLimit bounds the data stack depth; zero means unlimited.
func WithStackLimit(limit uint) Option { return withStackLimit(limit) }

// WithStepLimit bounds the number of executed instructions; zero means
// unlimited.
func WithStepLimit(limit uint) Option { return withStepLimit(limit) }

// WithPageSize sets the allocation granule of the data stack.
func WithPageSize(size uint) Option { return pageSizeOption(size) }

type withLogfn func(mess string, args ...interface{})
type withStackLimit uint
type withStepLimit uint
type pageSizeOption uint

func (logfn withLogfn) apply(vm *VM) { vm.logfn = logfn }
func (lim withStackLimit) apply(vm *VM) { vm.stack.Limit = uint(lim) }
func (lim withStepLimit) apply(vm *VM) { vm.stepLimit = uint(lim) }
func (size pageSizeOption) apply(vm *VM) { vm.stack.PageSize = uint(size) }
