package model

// These are the staging shard IDs of the consensus stores and of the
// chain indexes that commit together with them.
const (
	StagingShardIDBlock StagingShardID = iota
	StagingShardIDBlockIndex
	StagingShardIDUTXOSet
	StagingShardIDUndoData
	StagingShardIDMultiset
	StagingShardIDConsensusState
	StagingShardIDUTXOIndex
	StagingShardIDTXIndex
)
