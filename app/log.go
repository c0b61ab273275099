package app

import (
	"github.com/zmgnet/zmgd/infrastructure/logger"
	"github.com/zmgnet/zmgd/util/panics"
)

var log = logger.RegisterSubSystem("ZMGD")
var spawn = panics.GoroutineWrapperFunc(log)
