package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/JonnyTran/heydev/pkg/gate"
)

// IOHandler defines the strategy for interacting with the user.
type IOHandler interface {
	// Prompt presents a pending gate to the user.
	Prompt(ctx context.Context, g *gate.Gate) error

	// Input reads a response from the user.
	Input(ctx context.Context) (string, error)

	// Notify shows an out-of-band message (status updates, errors).
	Notify(ctx context.Context, msg string) error
}

// ContentRenderer transforms markdown before outputting it. This allows TUI
// rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) string

// TextHandler implements the standard text-based interface.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &TextHandler{
		Reader: bufio.NewReader(r),
		Writer: w,
	}
}

func (h *TextHandler) Prompt(ctx context.Context, g *gate.Gate) error {
	output := g.Prompt()
	if h.Renderer != nil {
		output = h.Renderer(output)
	}
	fmt.Fprintln(h.Writer, strings.TrimSpace(output))
	if opts := g.Options(); len(opts) > 0 {
		fmt.Fprintf(h.Writer, "[%s]\n", strings.Join(opts, " / "))
	}
	return nil
}

func (h *TextHandler) Input(ctx context.Context) (string, error) {
	fmt.Fprint(h.Writer, "> ")

	text, err := h.Reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (h *TextHandler) Notify(ctx context.Context, msg string) error {
	fmt.Fprintln(h.Writer, msg)
	return nil
}
