// Package command provides the CLI command definitions for lexdesk.
//
// Every invocation is one process start: the session is bootstrapped from
// the durable token slot, one command runs, and the store is closed. The
// shell command keeps a single session open across many commands.
package command
