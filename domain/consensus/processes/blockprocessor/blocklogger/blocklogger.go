// Copyright (c) 2015-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blocklogger

import (
	"sync"
	"time"

	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/infrastructure/logger"
	"github.com/zmgnet/zmgd/util/mstime"
)

var log = logger.RegisterSubSystem("BLPR")

const logInterval = 10 * time.Second

var (
	statsLock         sync.Mutex
	receivedLogBlocks int64
	receivedLogTx     int64
	lastBlockLogTime  = time.Now()
)

// LogBlock logs the progress of block processing as an information
// message. In order to prevent spam, it limits logging to one message
// every 10 seconds with duration and totals included.
func LogBlock(block *externalapi.DomainBlock) {
	statsLock.Lock()
	defer statsLock.Unlock()

	receivedLogBlocks++
	receivedLogTx += int64(len(block.Transactions))

	now := time.Now()
	duration := now.Sub(lastBlockLogTime)
	if duration < logInterval {
		return
	}

	// Truncate the duration to 10s of milliseconds.
	truncatedDuration := duration.Round(10 * time.Millisecond)

	blockStr := "blocks"
	if receivedLogBlocks == 1 {
		blockStr = "block"
	}
	txStr := "transactions"
	if receivedLogTx == 1 {
		txStr = "transaction"
	}

	log.Infof("Processed %d %s in the last %s (%d %s, %s)",
		receivedLogBlocks, blockStr, truncatedDuration, receivedLogTx, txStr,
		mstime.UnixMilliToTime(block.Header.TimeInMilliseconds))

	receivedLogBlocks = 0
	receivedLogTx = 0
	lastBlockLogTime = now
}
