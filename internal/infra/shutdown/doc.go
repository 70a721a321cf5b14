// Package shutdown runs cleanup hooks when the process is asked to stop.
//
// Hooks run once, in reverse registration order, under a shared timeout.
// The CLI calls Shutdown directly when a command returns. The web client
// calls Wait, which returns on SIGINT/SIGTERM or when its context ends.
package shutdown
