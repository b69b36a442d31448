package version

import (
	"strings"
	"testing"
)

func withVersion(t *testing.T, v, commit string) {
	t.Helper()
	oldVersion, oldCommit := Version, GitCommit
	Version, GitCommit = v, commit
	t.Cleanup(func() { Version, GitCommit = oldVersion, oldCommit })
}

func TestIsPrerelease(t *testing.T) {
	tests := []struct {
		version    string
		prerelease bool
		channel    string
	}{
		{"v1.0.0", false, ChannelStable},
		{"v1.2.3", false, ChannelStable},
		{"v0.3.0-beta", true, ChannelPrerelease},
		{"v1.0.0-rc.1", true, ChannelPrerelease},
		{"v2.0.0-alpha", true, ChannelPrerelease},
		{"not-a-version", true, ChannelDev},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			withVersion(t, tt.version, "unknown")
			if got := IsPrerelease(); got != tt.prerelease {
				t.Errorf("IsPrerelease() for %q = %v, want %v", tt.version, got, tt.prerelease)
			}
			if got := Channel(); got != tt.channel {
				t.Errorf("Channel() for %q = %q, want %q", tt.version, got, tt.channel)
			}
			if want := "(" + tt.channel + ")"; !strings.Contains(GetFullVersionString(), want) {
				t.Errorf("GetFullVersionString() for %q should mention %s", tt.version, want)
			}
		})
	}
}

func TestGetVersionWithCommit(t *testing.T) {
	withVersion(t, "v1.0.0", "0123456789abcdef")
	if got := GetVersionWithCommit(); got != "v1.0.0 (0123456)" {
		t.Errorf("GetVersionWithCommit() = %q", got)
	}

	withVersion(t, "v1.0.0", "unknown")
	if got := GetVersionWithCommit(); got != "v1.0.0" {
		t.Errorf("GetVersionWithCommit() = %q", got)
	}
}

func TestGetFullVersionString(t *testing.T) {
	out := GetFullVersionString()
	if !strings.HasPrefix(out, "cairo-flowscan "+Version+" (") {
		t.Errorf("Unexpected version string %q", out)
	}
	if !IsValid() {
		t.Errorf("Default version %q should be valid semver", Version)
	}
}
