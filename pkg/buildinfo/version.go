// Package buildinfo holds the version stamped into topoview at build time.
//
//	go build -ldflags "-X github.com/matzehuels/topoview/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/matzehuels/topoview/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/topoview/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package buildinfo

import (
	"fmt"
	"runtime"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info describes the running binary. The HTTP server reports it from
// /healthz.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go"`
}

// Get returns the build information of the running binary.
func Get() Info {
	return Info{Version: Version, Commit: Commit, Date: Date, GoVersion: runtime.Version()}
}

// ShortCommit returns the first seven characters of the commit.
func (i Info) ShortCommit() string {
	if len(i.Commit) > 7 {
		return i.Commit[:7]
	}
	return i.Commit
}

// Template returns the cobra version template.
func Template() string {
	i := Get()
	return fmt.Sprintf("{{.Name}} %s (%s, built %s, %s)\n", i.Version, i.ShortCommit(), i.Date, i.GoVersion)
}

// UserAgent is sent with every request to the topology backend.
func UserAgent() string {
	return "topoview/" + Version
}
