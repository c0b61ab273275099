package version

import (
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
)

// validCharacters is a list of characters valid in the appBuild string
const validCharacters = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-"

const (
	appMajor uint = 0
	appMinor uint = 1
	appPatch uint = 0

	shortRevisionLength = 12
)

// appBuild is defined as a variable so it can be overridden during the build
// process with '-ldflags "-X github.com/zmgnet/zmgd/version.appBuild=foo"' if needed.
// It MUST only contain characters from validCharacters.
var appBuild string

var (
	version     string
	versionOnce sync.Once
)

// Version returns the application version as a properly formed string.
// Build metadata is taken from appBuild, or else from the VCS revision the
// binary was built from.
func Version() string {
	versionOnce.Do(func() {
		version = formatVersion(appBuild, vcsRevision())
	})
	return version
}

func formatVersion(build string, revision string) string {
	formatted := fmt.Sprintf("%d.%d.%d", appMajor, appMinor, appPatch)
	if build == "" {
		build = revision
	}
	if build != "" && isValidAppBuild(build) {
		formatted = fmt.Sprintf("%s-%s", formatted, build)
	}
	return formatted
}

func vcsRevision() string {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range buildInfo.Settings {
		if setting.Key == "vcs.revision" {
			if len(setting.Value) > shortRevisionLength {
				return setting.Value[:shortRevisionLength]
			}
			return setting.Value
		}
	}
	return ""
}

func isValidAppBuild(build string) bool {
	for _, r := range build {
		if !strings.ContainsRune(validCharacters, r) {
			return false
		}
	}
	return true
}
