package boltdb

import "github.com/zmgnet/zmgd/infrastructure/logger"

var log = logger.RegisterSubSystem("BOLT")
