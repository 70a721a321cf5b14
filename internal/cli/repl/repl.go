package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Executor runs one command line already split into arguments.
type Executor func(ctx context.Context, args []string) error

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	input     io.Reader
	output    io.Writer
	exec      Executor
	prompt    func() string
	completer *Completer
	history   *History
}

// Option configures a REPL.
type Option func(*REPL)

// WithPrompt sets a function evaluated before every line.
func WithPrompt(fn func() string) Option {
	return func(r *REPL) { r.prompt = fn }
}

// WithHistory records entered lines into h.
func WithHistory(h *History) Option {
	return func(r *REPL) { r.history = h }
}

// WithCommands sets the names offered by the help builtin.
func WithCommands(names ...string) Option {
	return func(r *REPL) { r.completer = NewCompleter(names...) }
}

// New creates a REPL reading from in and writing to out.
func New(in io.Reader, out io.Writer, exec Executor, opts ...Option) *REPL {
	r := &REPL{
		input:     in,
		output:    out,
		exec:      exec,
		prompt:    func() string { return "lexdesk> " },
		completer: NewCompleter(),
		history:   NewHistory(""),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run starts the REPL loop. It returns nil on exit, quit or end of input.
func (r *REPL) Run(ctx context.Context) error {
	reader := bufio.NewReader(r.input)

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		fmt.Fprint(r.output, r.prompt())

		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		eof := errors.Is(err, io.EOF)

		line = strings.TrimSpace(line)
		if line == "" {
			if eof {
				fmt.Fprintln(r.output)
				return nil
			}
			continue
		}

		r.history.Add(line)

		if line == "exit" || line == "quit" {
			return nil
		}

		if err := r.execute(ctx, line); err != nil {
			fmt.Fprintf(r.output, "Error: %v\n", err)
		}
		if eof {
			return nil
		}
	}
}

func (r *REPL) execute(ctx context.Context, line string) error {
	args, err := SplitArgs(line)
	if err != nil {
		return err
	}

	if args[0] == "help" && len(args) <= 2 {
		prefix := ""
		if len(args) == 2 {
			prefix = args[1]
		}
		for _, name := range r.completer.Complete(prefix) {
			fmt.Fprintln(r.output, "  "+name)
		}
		return nil
	}

	return r.exec(ctx, args)
}

// SplitArgs splits a command line on whitespace, honouring single and
// double quotes.
func SplitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		quote   rune
		inToken bool
	)
	for _, ch := range line {
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			} else {
				cur.WriteRune(ch)
			}
		case ch == '"' || ch == '\'':
			quote = ch
			inToken = true
		case ch == ' ' || ch == '\t':
			if inToken {
				args = append(args, cur.String())
				cur.Reset()
				inToken = false
			}
		default:
			cur.WriteRune(ch)
			inToken = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if inToken {
		args = append(args, cur.String())
	}
	if len(args) == 0 {
		return nil, errors.New("empty command")
	}
	return args, nil
}
