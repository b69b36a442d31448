package version

import (
	"fmt"
	"runtime"
	"time"

	"golang.org/x/mod/semver"
)

// Version information - these can be overridden at build time using ldflags
var (
	// Version is the semantic version of cairo-flowscan
	Version = "v0.3.0-beta"

	// GitCommit is the git commit hash (set at build time)
	GitCommit = "unknown"

	// BuildTime is when the binary was built (set at build time)
	BuildTime = "unknown"
)

// BuildInfo contains build and version information
type BuildInfo struct {
	Version     string    `json:"version"`
	GitCommit   string    `json:"git_commit"`
	BuildTime   string    `json:"build_time"`
	GoVersion   string    `json:"go_version"`
	Platform    string    `json:"platform"`
	CompileTime time.Time `json:"compile_time"`
}

// GetBuildInfo returns build information
func GetBuildInfo() *BuildInfo {
	compileTime, err := time.Parse(time.RFC3339, BuildTime)
	if err != nil {
		compileTime = time.Time{}
	}

	return &BuildInfo{
		Version:     Version,
		GitCommit:   GitCommit,
		BuildTime:   BuildTime,
		GoVersion:   runtime.Version(),
		Platform:    fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		CompileTime: compileTime,
	}
}

// GetVersion returns the semantic version string
func GetVersion() string {
	return Version
}

// GetVersionWithCommit returns version with git commit info
func GetVersionWithCommit() string {
	if GitCommit != "unknown" && len(GitCommit) >= 7 {
		return fmt.Sprintf("%s (%s)", Version, GitCommit[:7])
	}
	return Version
}

// Release channels reported by Channel
const (
	ChannelStable     = "stable"
	ChannelPrerelease = "prerelease"
	ChannelDev        = "dev"
)

// GetFullVersionString returns a comprehensive version string for CLI display
func GetFullVersionString() string {
	info := GetBuildInfo()
	return fmt.Sprintf("cairo-flowscan %s (%s)\nBuilt: %s\nCommit: %s\nGo: %s\nPlatform: %s",
		info.Version,
		Channel(),
		info.BuildTime,
		info.GitCommit,
		info.GoVersion,
		info.Platform,
	)
}

// IsValid reports whether Version is a valid semantic version
func IsValid() bool {
	return semver.IsValid(Version)
}

// IsPrerelease returns true for alpha, beta and rc builds, and for invalid versions
func IsPrerelease() bool {
	return !semver.IsValid(Version) || semver.Prerelease(Version) != ""
}

// Channel classifies the build: dev for versions that are not semver,
// prerelease for alpha, beta and rc tags, stable otherwise
func Channel() string {
	switch {
	case !IsValid():
		return ChannelDev
	case IsPrerelease():
		return ChannelPrerelease
	default:
		return ChannelStable
	}
}
