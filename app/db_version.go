package app

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// currentDatabaseVersion is bumped whenever the on-disk layout changes in
// a way older data cannot be read with.
const currentDatabaseVersion = 1

const versionFileName = "version"

func versionFilePath(dataDir string) string {
	return filepath.Join(dataDir, versionFileName)
}

// checkDatabaseVersion reports whether dataDir carries a version file and
// fails if that file names a version other than currentDatabaseVersion.
// A missing file means a fresh data directory.
func checkDatabaseVersion(dataDir string) (bool, error) {
	path := versionFilePath(dataDir)
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "could not read %s", path)
	}

	version, err := strconv.Atoi(strings.TrimSpace(string(content)))
	if err != nil {
		return true, errors.Wrapf(err, "could not parse the database version file %s", path)
	}
	if version != currentDatabaseVersion {
		return true, errors.Errorf("database version %d is not supported, expected %d",
			version, currentDatabaseVersion)
	}
	return true, nil
}

func createDatabaseVersionFile(dataDir string) error {
	content := []byte(strconv.Itoa(currentDatabaseVersion))
	return errors.WithStack(os.WriteFile(versionFilePath(dataDir), content, 0600))
}
