// Package buildinfo exposes version information injected at build time:
//
//	go build -ldflags "-X github.com/yndnr/redikv/internal/infra/buildinfo.Version=v0.3.0 \
//	    -X github.com/yndnr/redikv/internal/infra/buildinfo.Commit=$(git rev-parse --short HEAD)"
//
// Both redikv-server and redikv-cli print it from --version, and the server
// logs it at startup.
package buildinfo
