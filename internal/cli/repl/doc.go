// Package repl provides the interactive shell mode for lexdesk.
//
// A shell keeps one session alive across commands, so a forced logout
// raised by one command is visible to the next. Lines are split into
// arguments and handed to an Executor; the prompt reflects the current
// session state.
package repl
