// Package version exposes build information injected at link time, e.g.
//
//	go build -ldflags "-X github.com/uftp-network/uftp-engine/internal/version.version=v1.2.0"
package version

var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

// Info describes the running build.
type Info struct {
	Version   string
	BuildDate string
	GitCommit string
}

// Get returns the build information for this binary.
func Get() Info {
	return Info{
		Version:   version,
		BuildDate: buildDate,
		GitCommit: gitCommit,
	}
}
