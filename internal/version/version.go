package version

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// These are variables so that they can be set during the build time.
var (
	BuildDate    = "unknown"
	BuildVersion = "0.0.0"
	Commit       = "unknown"
)

// BaseVersion returns the major and minor version, for example "v1.7".
// It returns "unknown" when BuildVersion is not a semantic version.
func BaseVersion() string {
	v, err := semver.NewVersion(BuildVersion)
	if err != nil {
		return "unknown"
	}
	return fmt.Sprintf("v%d.%d", v.Major(), v.Minor())
}

// String describes the build, for example "notes 1.2.0 (abc123) on 2026-01-02".
func String() string {
	return fmt.Sprintf("notes %s (%s) on %s", BuildVersion, Commit, BuildDate)
}

// Info is the build description served by the HTTP gateway.
type Info struct {
	Version     string `json:"version"`
	BaseVersion string `json:"baseVersion"`
	Commit      string `json:"commit"`
	BuildDate   string `json:"buildDate"`
}

func Get() Info {
	return Info{
		Version:     BuildVersion,
		BaseVersion: BaseVersion(),
		Commit:      Commit,
		BuildDate:   BuildDate,
	}
}
