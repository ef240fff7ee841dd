// Package listing renders the tab-expanded source listing, with its
// inline error annotations, and the symbol cross-reference dump: the
// two external-facing reports a compile produces alongside the code
// file itself.
package listing

import (
	"bufio"
	"fmt"
	"io"

	"github.com/cplteam/cplc/internal/source"
	"github.com/cplteam/cplc/internal/symtab"
)

// Write renders lines, one three-digit-numbered row per physical
// source line followed by its error annotations (four spaces, an
// indent to the offending column, a caret, then the message), to w.
func Write(w io.Writer, lines []source.Line) error {
	bw := bufio.NewWriter(w)
	for _, line := range lines {
		if err := writeLine(bw, line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeLine(w *bufio.Writer, line source.Line) error {
	if line.Continuation {
		// Continuation segment: no line number prefix.
		if _, err := fmt.Fprintf(w, "    %s\n", line.Text); err != nil {
			return err
		}
	} else {
		if _, err := fmt.Fprintf(w, "%3d %s\n", line.Number, line.Text); err != nil {
			return err
		}
	}
	for _, a := range line.Annotations {
		if err := writeAnnotation(w, a); err != nil {
			return err
		}
	}
	return nil
}

func writeAnnotation(w *bufio.Writer, a source.Annotation) error {
	indent := a.Column
	if indent < 0 {
		indent = 0
	}
	if _, err := fmt.Fprintf(w, "    %*s^\n", indent, ""); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "    %s\n", a.Message)
	return err
}

// DumpSymbols writes the final program-scope symbol table (name,
// kind, address), lexicographically sorted, to w — the payload of the
// -dump-symbols diagnostic flag.
func DumpSymbols(w io.Writer, table *symtab.Table) error {
	entries := table.Dump(1)
	bw := bufio.NewWriter(w)
	for _, e := range entries {
		addr := "-"
		if e.Sym.Address >= 0 {
			addr = fmt.Sprintf("%d", e.Sym.Address)
		}
		if _, err := fmt.Fprintf(bw, "%-20s %-16s scope=%d addr=%s\n", e.Name, e.Sym.Kind, e.Sym.Scope, addr); err != nil {
			return err
		}
	}
	return bw.Flush()
}
