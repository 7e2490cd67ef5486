package ovio

import "fmt"

const (
	MajorVersion = 0
	MinorVersion = 2
	PatchVersion = 0
)

var (
	// GitRev is the current HEAD of git of this release
	GitRev = ""
	// BuildTime is the ISO8601 timestamp of the current build
	BuildTime = "unknown"
)

func Version() (int, int, int) {
	return MajorVersion, MinorVersion, PatchVersion
}

func VersionString() string {
	base := fmt.Sprintf("%d.%d.%d", MajorVersion, MinorVersion, PatchVersion)
	if len(GitRev) >= 7 {
		base += "+" + GitRev[:7]
	}

	return base
}
