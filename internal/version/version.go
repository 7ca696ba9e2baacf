// Package version holds build identification, set with -ldflags:
//
//	-X github.com/LeJamon/goListingd/internal/version.Version=1.2.3
package version

var (
	Version   = "0.1.0-dev"
	GitCommit = ""
)
