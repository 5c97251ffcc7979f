package allocator

import (
	"io"
	"log"
	"os"
)

// config configures a Heap. Its zero value is never used directly; build
// one with defaultConfig and the Option functions below.
type config struct {
	pageSource PageSource
	out        io.Writer
	logger     *log.Logger
	debug      bool
}

// Option configures a Heap at construction time.
type Option func(*config)

func defaultConfig() *config {
	return &config{
		pageSource: osPageSource{},
		out:        os.Stdout,
		logger:     log.New(os.Stderr, "allocator: ", log.LstdFlags),
	}
}

// WithPageSource overrides the OS page-mapping collaborator, primarily for
// tests that want to observe or fake map/unmap calls without touching real
// process memory.
func WithPageSource(ps PageSource) Option {
	return func(c *config) { c.pageSource = ps }
}

// WithOutput overrides where ShowAllocMem writes its dump. Defaults to
// os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(c *config) { c.out = w }
}

// WithLogger overrides the logger used for non-fatal internal diagnostics
// (page-mapping failures, zone lifecycle when debug logging is enabled).
func WithLogger(l *log.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithDebug enables verbose zone lifecycle logging (zone creation and
// retirement). Off by default: the allocator's hot path must stay quiet.
func WithDebug(enabled bool) Option {
	return func(c *config) { c.debug = enabled }
}
