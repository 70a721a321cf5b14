package repl

import (
	"sort"
	"strings"
)

// Completer offers command names matching a prefix.
type Completer struct {
	commands []string
}

// NewCompleter creates a Completer over names plus the shell builtins.
func NewCompleter(names ...string) *Completer {
	commands := append([]string{"help", "exit", "quit"}, names...)
	sort.Strings(commands)
	return &Completer{commands: commands}
}

// Complete returns completion suggestions for the given prefix.
func (c *Completer) Complete(prefix string) []string {
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}
