// Package buildinfo exposes build information injected via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/lexdesk-go/internal/infra/buildinfo.Version=v1.0.0 \
//	  -X github.com/yndnr/lexdesk-go/internal/infra/buildinfo.Commit=abc123"
//
// The Go version is read from the binary itself.
package buildinfo
