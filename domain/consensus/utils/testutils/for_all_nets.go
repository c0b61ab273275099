package testutils

import (
	"testing"

	"github.com/zmgnet/zmgd/domain/dagconfig"
)

// ForAllNets runs testFunc as a parallel subtest for every network. Each
// subtest receives its own copy of the parameters.
func ForAllNets(t *testing.T, testFunc func(*testing.T, *dagconfig.Params)) {
	for _, params := range []*dagconfig.Params{
		&dagconfig.MainnetParams,
		&dagconfig.TestnetParams,
		&dagconfig.SimnetParams,
		&dagconfig.DevnetParams,
	} {
		paramsCopy := *params
		t.Run(paramsCopy.Name, func(t *testing.T) {
			t.Parallel()
			testFunc(t, &paramsCopy)
		})
	}
}
