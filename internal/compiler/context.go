// Package compiler encapsulates per-compile state — line buffers,
// interner arena, symbol hash table, code buffer — in a single value
// with one lifecycle: construct at compile start, discard at compile
// end. Parser flags live in the parser.Parser built over a Context.
// Two compiles never share mutable state this way, even though each
// individual Context remains single-threaded and non-reentrant.
package compiler

import (
	"io"

	"github.com/cplteam/cplc/internal/codebuf"
	"github.com/cplteam/cplc/internal/config"
	"github.com/cplteam/cplc/internal/intern"
	"github.com/cplteam/cplc/internal/source"
	"github.com/cplteam/cplc/internal/symtab"
)

// Context bundles one compile's worth of state.
type Context struct {
	Source  *source.Source
	Interns *intern.Table
	Symbols *symtab.Table
	Code    *codebuf.Buffer
	Config  *config.Config
}

// New constructs a Context reading source text from r, configured by
// cfg (nil selects config.DefaultConfig()).
func New(r io.Reader, cfg *config.Config) *Context {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	interns := intern.New()
	return &Context{
		Source:  source.New(r, cfg.TabWidth(), cfg.LineWidth(), cfg.MaxAnnotationsPerLine()),
		Interns: interns,
		Symbols: symtab.New(interns, cfg.HashSize(), cfg.MaxHashLength()),
		Code:    codebuf.New(cfg.CodeBufferCapacity()),
		Config:  cfg,
	}
}
