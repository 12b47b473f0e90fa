package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/custodia-labs/suitetalk/internal/core/domain"
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// writeResults writes output rows as JSON lines, or as one JSON array when format is json.
// Terminal output is indented.
func writeResults(w io.Writer, results []domain.Result, format string) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if isTerminal(w) {
		enc.SetIndent("", "  ")
	}

	switch format {
	case "json":
		if results == nil {
			results = []domain.Result{}
		}
		return enc.Encode(results)
	case "", "jsonl":
		for _, r := range results {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: output format %q (want jsonl or json)", domain.ErrInvalidInput, format)
	}
}

// flatten concatenates per-item results in input order.
func flatten(groups [][]domain.Result) []domain.Result {
	var out []domain.Result
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

var (
	noticeStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Bold(true)
	urlStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Underline(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
)

// printAuthURL shows the authorization URL the user must open.
func printAuthURL(w io.Writer, authURL string) {
	if !isTerminal(w) {
		fmt.Fprintf(w, "Open this URL to authorize suitetalk:\n%s\n", authURL)
		return
	}
	body := strings.Join([]string{
		titleStyle.Render("Authorize suitetalk with NetSuite"),
		"",
		"Open this URL in a browser and approve access:",
		urlStyle.Render(authURL),
		"",
		"Waiting for the redirect...",
	}, "\n")
	fmt.Fprintln(w, noticeStyle.Render(body))
}

// printSuccess prints a short confirmation line.
func printSuccess(w io.Writer, msg string) {
	if isTerminal(w) {
		fmt.Fprintln(w, okStyle.Render("✓")+" "+msg)
		return
	}
	fmt.Fprintln(w, msg)
}
