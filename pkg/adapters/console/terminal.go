package console

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// NewMarkdownRenderer returns a Renderer backed by glamour.
func NewMarkdownRenderer() (Renderer, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	return r.Render, nil
}

// PrintBanner writes the AutiConnect banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.EnvColorProfile()
	if f, ok := w.(*os.File); !ok || !IsTerminal(f) {
		p = termenv.Ascii
	}

	lines := []struct {
		text  string
		color string
	}{
		{"    _         _   _  ____                            _   ", "#38bdf8"},
		{"   / \\  _   _| |_(_)/ ___|___  _ __  _ __   ___  ___| |_ ", "#22d3ee"},
		{"  / _ \\| | | | __| | |   / _ \\| '_ \\| '_ \\ / _ \\/ __| __|", "#2dd4bf"},
		{" / ___ \\ |_| | |_| | |__| (_) | | | | | | |  __/ (__| |_ ", "#34d399"},
		{"/_/   \\_\\__,_|\\__|_|\\____\\___/|_| |_|_| |_|\\___|\\___|\\__|", "#4ade80"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, p.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, p.String("  v"+version+"  ·  /ajuda para comandos, /sair para encerrar").Faint())
	fmt.Fprintln(w)
}
