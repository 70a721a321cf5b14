// Package config provides client configuration for lexdesk.
//
//   - spec.go: Config struct definition
//   - default.go: default values and the defaults layer fed to confloader
//   - verify.go: validation of a loaded configuration
//   - sanitize.go: masking of secrets before logging or printing
//   - load.go: loading through internal/infra/confloader, saving as YAML
//
// The same file drives the CLI and the local web client.
package config
