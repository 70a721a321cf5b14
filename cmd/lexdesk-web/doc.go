// Package main provides the entry point for lexdesk-web.
//
// lexdesk-web serves the browser client on a loopback address. It shares
// the token store and configuration file with the lexdesk CLI, so a login
// made in one is visible to the other after a restart.
package main
