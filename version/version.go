package version

import (
	"fmt"
	"runtime"
	"strings"
)

// These variables are populated by the Go linker during the build process:
//
//	-ldflags "-X github.com/grovetools/exportshell/version.Version=v0.3.0"
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// Info holds all the versioning information.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// GetInfo returns a struct populated with the version information.
func GetInfo() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String renders the build details one per line, indented under the version line.
func (i Info) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "  Commit:    %s\n", i.Commit)
	fmt.Fprintf(&b, "  Built:     %s\n", i.BuildDate)
	fmt.Fprintf(&b, "  Go:        %s\n", i.GoVersion)
	fmt.Fprintf(&b, "  Platform:  %s", i.Platform)
	return b.String()
}
