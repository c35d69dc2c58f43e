package translate

// Option customizes translation.
type Option interface{ apply(cfg *config) }

type config struct {
	pageSize       int
	chunkThreshold int
	logfn          func(mess string, args ...interface{})
}

var defaults = []Option{
	WithPageSize(DefaultPageSize),
	WithChunkThreshold(DefaultChunkThreshold),
}

func (cfg *config) apply(opts ...Option) {
	for _, opt := range defaults {
		opt.apply(cfg)
	}
	for _, opt := range opts {
		if opt != nil {
			opt.apply(cfg)
		}
	}
}

func (cfg *config) logf(mess string, args ...interface{}) {
	if cfg.logfn != nil {
		cfg.logfn(mess, args...)
	}
}

// DefaultChunkThreshold is the shortest zero run that install writes with a
// loop rather than byte by byte.
const DefaultChunkThreshold = 8

// WithPageSize sets how many byte slots a memory page takes.
func WithPageSize(size int) Option { return pageSizeOption(size) }

// WithChunkThreshold sets the shortest zero run of an initial memory image
// that is written with a loop.
func WithChunkThreshold(n int) Option { return chunkThresholdOption(n) }

// WithLogf enables logging of translation progress.
func WithLogf(logfn func(mess string, args ...interface{})) Option { return withLogfn(logfn) }

type pageSizeOption int
type chunkThresholdOption int
type withLogfn func(mess string, args ...interface{})

func (size pageSizeOption) apply(cfg *config)    { cfg.pageSize = int(size) }
func (n chunkThresholdOption) apply(cfg *config) { cfg.chunkThreshold = int(n) }
func (logfn withLogfn) apply(cfg *config)        { cfg.logfn = logfn }
