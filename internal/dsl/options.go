package dsl

// Option customizes a Program.
type Option interface{ apply(p *Program) }

func (p *Program) apply(opts ...Option) {
	for _, opt := range opts {
		if opt != nil {
			opt.apply(p)
		}
	}
}

// WithLogf enables logging of function definitions and flattening.
func WithLogf(logfn func(mess string, args ...interface{})) Option { return withLogfn(logfn) }

type withLogfn func(mess string, args ...interface{})

func (logfn withLogfn) apply(p *Program) { p.logfn = logfn }
