// Package buildinfo carries version information stamped in at link time:
//
//	go build -ldflags "-X github.com/matzehuels/hopgraph/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/hopgraph/pkg/buildinfo.Commit=$(git rev-parse HEAD)"
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info is the build information reported by the health endpoint.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Get returns the current build information.
func Get() Info {
	return Info{Version: Version, Commit: Commit, Date: Date}
}

// UserAgent returns the User-Agent sent with outgoing requests.
func UserAgent() string {
	return "hopgraph/" + Version
}

// Template returns the version template for cobra.
func Template() string {
	return fmt.Sprintf("{{.Name}} %s (commit %s, built %s)\n", Version, Commit, Date)
}
