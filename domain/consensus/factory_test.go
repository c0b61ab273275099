package consensus

import (
	"path/filepath"
	"testing"

	"github.com/zmgnet/zmgd/domain/dagconfig"
	"github.com/zmgnet/zmgd/infrastructure/db/database"
	"github.com/zmgnet/zmgd/infrastructure/db/database/boltdb"
	"github.com/zmgnet/zmgd/infrastructure/db/database/ldb"
)

func TestNewConsensus(t *testing.T) {
	f := NewFactory()
	config := NewConfig(&dagconfig.DevnetParams)

	openers := map[string]func(dir string) (database.Database, error){
		"leveldb": func(dir string) (database.Database, error) {
			return ldb.NewLevelDB(dir, 8)
		},
		"bbolt": func(dir string) (database.Database, error) {
			return boltdb.NewBoltDB(filepath.Join(dir, "zmgd.db"))
		},
	}
	for name, open := range openers {
		db, err := open(t.TempDir())
		if err != nil {
			t.Fatalf("%s: error opening the database: %s", name, err)
		}

		c, err := f.NewConsensus(config, db, nil)
		if err != nil {
			t.Fatalf("%s: error in NewConsensus: %+v", name, err)
		}
		tipHash, tipHeight, err := c.GetBestTip()
		if err != nil {
			t.Fatalf("%s: GetBestTip: %+v", name, err)
		}
		if !tipHash.Equal(config.GenesisHash) || tipHeight != 0 {
			t.Fatalf("%s: expected the genesis tip, got %s at height %d", name, tipHash, tipHeight)
		}
		err = c.VerifyUTXOCommitment()
		if err != nil {
			t.Fatalf("%s: VerifyUTXOCommitment: %+v", name, err)
		}

		err = db.Close()
		if err != nil {
			t.Fatalf("%s: Close: %s", name, err)
		}
	}
}
