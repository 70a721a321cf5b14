// Package main provides the entry point for lexdesk.
//
// lexdesk signs in to a lexdesk backend and keeps the access token in a
// local store, so later invocations run as the signed-in user:
//
//   - Session commands (login, logout, register, reset-password)
//   - Inspection (whoami, status, version)
//   - Configuration management (config show, path, init, validate)
//
// Usage:
//
//	lexdesk login --email ada@example.com --password-stdin < pw.txt
//	lexdesk -o json whoami
//	lexdesk shell
package main
