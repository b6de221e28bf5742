// Package version reports the build of the council binary. The variables are set
// with -ldflags "-X github.com/mohamed-services/AgentLang/pkg/version.Version=...".
package version

import (
	"fmt"
	"runtime"
)

// Name is the product name used in version strings and the HTTP user agent.
const Name = "agentlang-council"

var (
	// Version is the semantic version, injected at build time.
	Version = "dev"

	// GitCommit is the git commit hash, injected at build time.
	GitCommit = "unknown"

	// BuildTime is the timestamp when the binary was built, injected at build time.
	BuildTime = "unknown"
)

// String returns the human-readable version line.
func String() string {
	return fmt.Sprintf("%s %s (commit: %s, built: %s, go: %s)",
		Name, Version, shortCommit(), BuildTime, runtime.Version())
}

// UserAgent identifies the council to the review system.
func UserAgent() string {
	return Name + "/" + Version
}

// Info returns structured version information.
func Info() map[string]string {
	return map[string]string{
		"name":      Name,
		"version":   Version,
		"commit":    GitCommit,
		"buildTime": BuildTime,
		"goVersion": runtime.Version(),
		"platform":  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func shortCommit() string {
	if len(GitCommit) > 12 {
		return GitCommit[:12]
	}
	return GitCommit
}
