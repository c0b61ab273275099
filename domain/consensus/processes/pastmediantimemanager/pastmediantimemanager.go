package pastmediantimemanager

import (
	"sort"

	"github.com/zmgnet/zmgd/domain/consensus/model"
	"github.com/zmgnet/zmgd/domain/consensus/utils/blocknode"
)

// pastMedianTimeManager provides a method to resolve the
// past median time of a block
type pastMedianTimeManager struct {
	medianTimeWindowSize int
}

// New instantiates a new PastMedianTimeManager
func New(medianTimeWindowSize int) model.PastMedianTimeManager {
	return &pastMedianTimeManager{
		medianTimeWindowSize: medianTimeWindowSize,
	}
}

// PastMedianTime returns the median timestamp of parent and the blocks
// preceding it. If there aren't enough blocks yet, the window is padded
// with the genesis timestamp.
func (pmtm *pastMedianTimeManager) PastMedianTime(parent *blocknode.Node) int64 {
	timestamps := make([]int64, pmtm.medianTimeWindowSize)
	current := parent
	for i := range timestamps {
		timestamps[i] = current.TimeInMilliseconds
		if !current.IsGenesis() {
			current = current.Parent
		}
	}

	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i] < timestamps[j] })

	// This works when the window size is odd. For an even size the lower
	// of the two middle values is used.
	return timestamps[(len(timestamps)-1)/2]
}
