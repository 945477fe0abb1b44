package private

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fission-suite/wnfs-go/nameaccumulator"
)

func TestPlanContentDefinedShardsSumsToInputLength(t *testing.T) {
	data := make([]byte, maxShardPlaintext*5+123)
	for i := range data {
		data[i] = byte(i*31 + 7)
	}

	sizes, err := PlanContentDefinedShards(data)
	require.NoError(t, err)
	require.NotEmpty(t, sizes)

	total := 0
	for _, s := range sizes {
		require.LessOrEqual(t, s, maxShardPlaintext)
		total += s
	}
	require.Equal(t, len(data), total)
}

func TestPlanContentDefinedShardsEmptyInput(t *testing.T) {
	sizes, err := PlanContentDefinedShards(nil)
	require.NoError(t, err)
	require.Empty(t, sizes)
}

func TestSetContentFixedStrategyUsesUniformShardSize(t *testing.T) {
	setup := nameaccumulator.TrustedSetup()
	f, err := NewFile(setup, nil, 1000)
	require.NoError(t, err)

	data := make([]byte, maxShardPlaintext*2+1)
	f = SetContent(setup, f, data, 1001, ShardStrategyFixed)

	require.NotNil(t, f.Content.External)
	require.Empty(t, f.Content.External.ShardSizes)
	require.Equal(t, uint64(maxShardPlaintext), f.Content.External.BlockContentSize)
	wantBlocks := (len(data) + maxShardPlaintext - 1) / maxShardPlaintext
	require.Equal(t, uint64(wantBlocks), f.Content.External.BlockCount)
}

func TestSetContentContentDefinedStrategyRecordsShardSizes(t *testing.T) {
	setup := nameaccumulator.TrustedSetup()
	f, err := NewFile(setup, nil, 1000)
	require.NoError(t, err)

	data := make([]byte, maxShardPlaintext*3+500)
	for i := range data {
		data[i] = byte(i % 211)
	}
	f = SetContent(setup, f, data, 1001, ShardStrategyContentDefined)

	require.NotNil(t, f.Content.External)
	require.NotEmpty(t, f.Content.External.ShardSizes)
	require.Equal(t, uint64(len(f.Content.External.ShardSizes)), f.Content.External.BlockCount)

	var total uint64
	for _, s := range f.Content.External.ShardSizes {
		total += s
	}
	require.Equal(t, uint64(len(data)), total)
}

func TestSetContentSmallDataStaysInlineRegardlessOfStrategy(t *testing.T) {
	setup := nameaccumulator.TrustedSetup()
	f, err := NewFile(setup, nil, 1000)
	require.NoError(t, err)

	f = SetContent(setup, f, []byte("small"), 1001, ShardStrategyContentDefined)

	require.Nil(t, f.Content.External)
	require.Equal(t, []byte("small"), f.Content.Inline)
}
