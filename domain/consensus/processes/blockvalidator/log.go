package blockvalidator

import (
	"github.com/zmgnet/zmgd/infrastructure/logger"
)

var log = logger.RegisterSubSystem("BLVA")
