package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sibikrish3000/tscbridge/internal/compile"
)

// termHost plays the editor for a terminal session: "opening" a file prints
// it, scratch buffers print their contents, and modal errors go to stderr.
type termHost struct {
	out    io.Writer
	errOut io.Writer
	color  bool // stdout is a terminal

	mu     sync.Mutex
	failed bool
}

func newTermHost(out, errOut io.Writer, color bool) *termHost {
	return &termHost{out: out, errOut: errOut, color: color}
}

func (h *termHost) header(title string) {
	if h.color {
		fmt.Fprintf(h.out, "\033[1m== %s ==\033[0m\n", title)
		return
	}
	fmt.Fprintf(h.out, "== %s ==\n", title)
}

func (h *termHost) OpenFile(path, syntax string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(h.errOut, "[tscrun] Opened %s (syntax: %s)\n", path, syntax)
	h.header(path)
	h.out.Write(data)
	if len(data) > 0 && data[len(data)-1] != '\n' {
		fmt.Fprintln(h.out)
	}
	return nil
}

func (h *termHost) NewScratch(name string) (compile.Scratch, error) {
	h.mu.Lock()
	h.failed = true
	h.mu.Unlock()

	h.header(name)
	return &termScratch{out: h.out, readOnly: true}, nil
}

func (h *termHost) ErrorMessage(msg string) {
	h.mu.Lock()
	h.failed = true
	h.mu.Unlock()

	fmt.Fprintf(h.errOut, "Error: %s\n", strings.TrimRight(msg, "\n"))
}

// Failed reports whether anything other than clean output was presented.
func (h *termHost) Failed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.failed
}

// termScratch writes inserted text straight to the terminal.
type termScratch struct {
	out      io.Writer
	readOnly bool
}

func (s *termScratch) SetReadOnly(ro bool) { s.readOnly = ro }

func (s *termScratch) Insert(text string) error {
	if s.readOnly {
		return fmt.Errorf("scratch buffer is read-only")
	}
	_, err := io.WriteString(s.out, text)
	return err
}
