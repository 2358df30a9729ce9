// Package menu implements the numbered terminal menus used to pick a site and
// a gateway.
package menu

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// ErrQuit is returned when the user asks to quit or input ends.
	ErrQuit = errors.New("menu: quit")
	// ErrBack is returned when the user asks to go back a level.
	ErrBack = errors.New("menu: back")
	// ErrEmpty is returned when there is nothing to choose from.
	ErrEmpty = errors.New("menu: no items to choose from")
)

var titleStyle = lipgloss.NewStyle().Bold(true)

// SelectionError describes input that is not a valid menu choice.
type SelectionError struct {
	Input string
	Max   int
}

func (e *SelectionError) Error() string {
	if e.Max <= 0 {
		return fmt.Sprintf("invalid choice %q", e.Input)
	}
	return fmt.Sprintf("invalid choice %q: enter a number between 1 and %d", e.Input, e.Max)
}

// ParseChoice turns one line of input into a 0-based index into a menu of n
// items. Quit words yield ErrQuit, "b" or "back" yields ErrBack, and anything
// else that is not a number in range yields a *SelectionError.
func ParseChoice(input string, n int) (int, error) {
	choice := strings.ToLower(strings.TrimSpace(input))
	switch choice {
	case "q", "quit", "x", "exit":
		return 0, ErrQuit
	case "b", "back":
		return 0, ErrBack
	}
	idx, err := strconv.Atoi(choice)
	if err != nil || idx < 1 || idx > n {
		return 0, &SelectionError{Input: strings.TrimSpace(input), Max: n}
	}
	return idx - 1, nil
}

// Selector reads menu choices from in and writes menus to out.
type Selector struct {
	in  *bufio.Scanner
	out io.Writer
}

// New creates a Selector over the given input and output.
func New(in io.Reader, out io.Writer) *Selector {
	return &Selector{in: bufio.NewScanner(in), out: out}
}

// Choose prints a numbered menu and blocks until a valid choice is entered.
// It returns the 0-based index, ErrQuit, or ErrEmpty.
func (s *Selector) Choose(title string, items []string) (int, error) {
	return s.choose(title, items, false)
}

// ChooseWithBack is Choose with an extra "b. Back" entry.
func (s *Selector) ChooseWithBack(title string, items []string) (int, error) {
	return s.choose(title, items, true)
}

func (s *Selector) choose(title string, items []string, allowBack bool) (int, error) {
	if len(items) == 0 {
		return 0, ErrEmpty
	}

	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, titleStyle.Render(title))
	for i, item := range items {
		fmt.Fprintf(s.out, "  %d. %s\n", i+1, item)
	}
	if allowBack {
		fmt.Fprintln(s.out, "  b. Back")
	}
	fmt.Fprintln(s.out, "  q. Quit")

	for {
		line, err := s.Prompt("Enter choice: ")
		if err != nil {
			return 0, err
		}
		idx, err := ParseChoice(line, len(items))
		switch {
		case err == nil:
			return idx, nil
		case errors.Is(err, ErrQuit):
			return 0, ErrQuit
		case errors.Is(err, ErrBack) && allowBack:
			return 0, ErrBack
		}
		var selErr *SelectionError
		if !errors.As(err, &selErr) {
			selErr = &SelectionError{Input: line, Max: len(items)}
		}
		fmt.Fprintf(s.out, "%v, or 'q' to quit.\n", selErr)
	}
}

// Prompt writes label and returns the next input line, trimmed. End of input
// is reported as ErrQuit.
func (s *Selector) Prompt(label string) (string, error) {
	fmt.Fprint(s.out, label)
	if !s.in.Scan() {
		fmt.Fprintln(s.out)
		if err := s.in.Err(); err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		return "", ErrQuit
	}
	return strings.TrimSpace(s.in.Text()), nil
}

// Pause waits for the user to press Enter.
func (s *Selector) Pause(label string) error {
	if label == "" {
		label = "Press Enter to continue..."
	}
	_, err := s.Prompt(label)
	return err
}
