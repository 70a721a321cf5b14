package repl

import (
	"reflect"
	"testing"
)

func TestCompleter_Complete(t *testing.T) {
	c := NewCompleter("login", "logout", "whoami", "config show", "config path")

	tests := []struct {
		name   string
		prefix string
		want   []string
	}{
		{name: "shared prefix", prefix: "log", want: []string{"login", "logout"}},
		{name: "subcommand", prefix: "config s", want: []string{"config show"}},
		{name: "builtin", prefix: "ex", want: []string{"exit"}},
		{name: "no match", prefix: "nonexistent", want: nil},
		{
			name:   "empty prefix lists everything sorted",
			prefix: "",
			want:   []string{"config path", "config show", "exit", "help", "login", "logout", "quit", "whoami"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Complete(tt.prefix); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Complete(%q) = %v, want %v", tt.prefix, got, tt.want)
			}
		})
	}
}
