// Package version exposes the build version of the groupsync binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Info describes the codebase a binary was built from.
type Info struct {
	Major      string `json:"major"`
	Minor      string `json:"minor"`
	Patch      string `json:"patch"`
	PreRelease string `json:"prerelease,omitempty"`
	GitVersion string `json:"gitVersion"`
	GitCommit  string `json:"gitCommit,omitempty"`
	BuildDate  string `json:"buildDate,omitempty"`
	GoVersion  string `json:"goVersion"`
	Platform   string `json:"platform"`
}

// Get derives the version info from the embedded module build info.
func Get() (Info, error) {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return Info{}, fmt.Errorf("could not read build info")
	}
	v, err := semver.NewVersion(strings.TrimPrefix(bi.Main.Version, "v"))
	if err != nil {
		// Local builds report "(devel)"; keep the raw string instead of
		// failing the version command.
		return Info{
			GitVersion: bi.Main.Version,
			GoVersion:  runtime.Version(),
			Platform:   fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		}, nil
	}

	var gitCommit, buildDate string
	if prerelease := v.Prerelease(); prerelease != "" {
		buildDate, gitCommit, _ = strings.Cut(prerelease, "-")
	}

	return Info{
		Major:      strconv.FormatUint(v.Major(), 10),
		Minor:      strconv.FormatUint(v.Minor(), 10),
		Patch:      strconv.FormatUint(v.Patch(), 10),
		PreRelease: v.Prerelease(),
		GitVersion: bi.Main.Version,
		GitCommit:  gitCommit,
		BuildDate:  buildDate,
		GoVersion:  runtime.Version(),
		Platform:   fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}, nil
}
