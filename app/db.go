package app

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/infrastructure/config"
	"github.com/zmgnet/zmgd/infrastructure/db/database"
	"github.com/zmgnet/zmgd/infrastructure/db/database/boltdb"
	"github.com/zmgnet/zmgd/infrastructure/db/database/ldb"
)

const (
	levelDBDirname   = "db"
	boltDBFilename   = "zmgd.db"
	databaseTypeBolt = "bolt"
)

// openDB opens the database in cfg.DataDir, creating it together with its
// version file if it does not exist yet
func openDB(cfg *config.Config) (database.Database, error) {
	versionFileExists, err := checkDatabaseVersion(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	err = os.MkdirAll(cfg.DataDir, 0700)
	if err != nil {
		return nil, errors.Wrapf(err, "could not create the data directory %s", cfg.DataDir)
	}

	var db database.Database
	switch cfg.DbType {
	case databaseTypeBolt:
		dbPath := filepath.Join(cfg.DataDir, boltDBFilename)
		log.Infof("Loading bolt database from '%s'", dbPath)
		db, err = boltdb.NewBoltDB(dbPath)
	default:
		dbPath := filepath.Join(cfg.DataDir, levelDBDirname)
		log.Infof("Loading leveldb database from '%s'", dbPath)
		db, err = ldb.NewLevelDB(dbPath, cfg.DbCacheSizeMiB)
	}
	if err != nil {
		return nil, err
	}

	if !versionFileExists {
		err = createDatabaseVersionFile(cfg.DataDir)
		if err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}
