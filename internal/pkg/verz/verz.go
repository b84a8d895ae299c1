package verz

import (
	"fmt"

	"github.com/Masterminds/semver"
)

// Set with -ldflags at build time.
var (
	Githash string
	Major   = "0"
	Minor   = "1"
	Build   = "0"
	Date    string
)

func Semver() string {
	return fmt.Sprintf("%s.%s.%s", Major, Minor, Build)
}

// Version parses the linked version. A malformed ldflags value is an error.
func Version() (*semver.Version, error) {
	return semver.NewVersion(Semver())
}
