// Package output renders lexdesk CLI results.
//
//   - formatter.go: Formatter interface and factory
//   - table.go: key/value and tabular rendering
//   - json.go, yaml.go: machine-readable output for scripting
//   - spinner.go: progress animation, driven by session transitions
package output
