// Package console drives an inventory from a terminal.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/metal-toolbox/stockroom/internal/model"
	"github.com/pkg/errors"
)

const (
	SearchPrompt = "scan> "

	// cancelAnswer on a line of its own cancels a prompt.
	cancelAnswer = "."
)

// Operator answers inventory prompts from a line based reader and writes
// notices to a writer.
type Operator struct {
	mu      sync.Mutex
	scanner *bufio.Scanner
	out     io.Writer
	focus   bool
	answers []string

	once  sync.Once
	lines chan lineResult
}

type lineResult struct {
	line string
	err  error
}

// NewOperator returns an Operator over in and out.
func NewOperator(in io.Reader, out io.Writer) *Operator {
	return &Operator{
		scanner: bufio.NewScanner(in),
		out:     out,
		lines:   make(chan lineResult),
	}
}

// scan feeds input lines to ReadLine. It holds at most one line ahead of
// the reader and stays blocked on the input after a cancelled read.
func (o *Operator) scan() {
	defer close(o.lines)

	for o.scanner.Scan() {
		o.lines <- lineResult{line: strings.TrimRight(o.scanner.Text(), "\r")}
	}

	if err := o.scanner.Err(); err != nil {
		o.lines <- lineResult{err: errors.Wrap(err, "read input")}
	}
}

// ReadLine reads the next input line, io.EOF when input is exhausted and
// the context error when ctx is done first.
func (o *Operator) ReadLine(ctx context.Context) (string, error) {
	o.once.Do(func() { go o.scan() })

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r, ok := <-o.lines:
		if !ok {
			return "", io.EOF
		}

		return r.line, r.err
	}
}

// Prompt blocks until a line is read or ctx is done. EOF or a lone "."
// cancel the prompt.
func (o *Operator) Prompt(ctx context.Context, question string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	if answer, ok := o.nextAnswer(); ok {
		return answer, true, nil
	}

	fmt.Fprintf(o.out, "%s (\"%s\" to cancel) ", question, cancelAnswer)

	line, err := o.ReadLine(ctx)
	if errors.Is(err, io.EOF) {
		fmt.Fprintln(o.out)
		return "", false, nil
	}

	if err != nil {
		return "", false, err
	}

	if strings.TrimSpace(line) == cancelAnswer {
		return "", false, nil
	}

	return line, true, nil
}

// Answer queues an answer for the next prompt, for answers given up front
// on the command line.
func (o *Operator) Answer(answer string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.answers = append(o.answers, answer)
}

func (o *Operator) nextAnswer() (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if len(o.answers) == 0 {
		return "", false
	}

	answer := o.answers[0]
	o.answers = o.answers[1:]

	return answer, true
}

func (o *Operator) Notify(notice model.Notice) {
	switch notice.Kind {
	case model.NoticeRejected:
		fmt.Fprintf(o.out, "Error: %s\n", notice.Message)
	default:
		fmt.Fprintln(o.out, notice.Message)
	}
}

// FocusSearch hands the next input line to the search prompt.
func (o *Operator) FocusSearch() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.focus = true
}

// takeFocus reports and resets a pending FocusSearch.
func (o *Operator) takeFocus() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	focus := o.focus
	o.focus = false

	return focus
}
