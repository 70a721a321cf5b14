// Package app wires the session core from a loaded configuration.
//
// Both front-ends build the same graph: token store, request gateway,
// backend adapter and session manager, with the manager registered as the
// gateway's authorization observer and the logging and metrics subscribers
// attached.
package app
