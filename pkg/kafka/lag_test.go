package kafka

import (
	"errors"
	"io"
	"testing"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *log.Logger {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return logger
}

type fakeOffsets struct {
	partitions map[string][]int32
	oldest     map[string]map[int32]int64
	end        map[string]map[int32]int64

	partitionsErr map[string]error
	endErr        map[string]map[int32]error
}

func (f *fakeOffsets) Partitions(topic string) ([]int32, error) {
	if err := f.partitionsErr[topic]; err != nil {
		return nil, err
	}
	return f.partitions[topic], nil
}

func (f *fakeOffsets) GetOffset(topic string, partition int32, time int64) (int64, error) {
	if time == sarama.OffsetNewest {
		if err := f.endErr[topic][partition]; err != nil {
			return -1, err
		}
		return f.end[topic][partition], nil
	}
	return f.oldest[topic][partition], nil
}

type fakeCommitted struct {
	resp *sarama.OffsetFetchResponse
	err  error
}

func (f *fakeCommitted) ListConsumerGroupOffsets(string, map[string][]int32) (*sarama.OffsetFetchResponse, error) {
	return f.resp, f.err
}

func committedBlocks(blocks map[string]map[int32]int64) *sarama.OffsetFetchResponse {
	resp := &sarama.OffsetFetchResponse{Blocks: map[string]map[int32]*sarama.OffsetFetchResponseBlock{}}
	for topic, partitions := range blocks {
		resp.Blocks[topic] = map[int32]*sarama.OffsetFetchResponseBlock{}
		for partition, offset := range partitions {
			resp.Blocks[topic][partition] = &sarama.OffsetFetchResponseBlock{Offset: offset}
		}
	}
	return resp
}

func TestGroupLagPartialCommit(t *testing.T) {
	// Two partitions, the group committed on only one of them. The
	// uncommitted partition has unknown lag and the total is a lower bound.
	offsets := &fakeOffsets{
		partitions: map[string][]int32{"orders": {0, 1}},
		end:        map[string]map[int32]int64{"orders": {0: 100, 1: 50}},
	}
	committed := &fakeCommitted{resp: committedBlocks(map[string]map[int32]int64{"orders": {0: 90}})}

	report, err := groupLag("billing", committed, offsets, testLogger())
	require.NoError(t, err)

	require.Len(t, report.Entries, 2)

	p0 := report.Entries[0]
	assert.Equal(t, int32(0), p0.Partition)
	require.NotNil(t, p0.Committed)
	assert.Equal(t, int64(90), *p0.Committed)
	require.NotNil(t, p0.Lag)
	assert.Equal(t, int64(10), *p0.Lag)

	p1 := report.Entries[1]
	assert.Equal(t, int32(1), p1.Partition)
	assert.Nil(t, p1.Committed)
	assert.Nil(t, p1.Lag)
	assert.Equal(t, int64(50), p1.EndOffset)

	assert.Equal(t, int64(10), report.Total)
	assert.False(t, report.Complete)
}

func TestGroupLagComplete(t *testing.T) {
	offsets := &fakeOffsets{
		partitions: map[string][]int32{"orders": {0, 1}},
		end:        map[string]map[int32]int64{"orders": {0: 100, 1: 50}},
	}
	committed := &fakeCommitted{resp: committedBlocks(map[string]map[int32]int64{"orders": {0: 100, 1: 30}})}

	report, err := groupLag("billing", committed, offsets, testLogger())
	require.NoError(t, err)

	assert.Equal(t, int64(20), report.Total)
	assert.True(t, report.Complete)
}

func TestGroupLagNeverNegative(t *testing.T) {
	// A commit observed after the end offset fetch can be ahead of it.
	offsets := &fakeOffsets{
		partitions: map[string][]int32{"orders": {0}},
		end:        map[string]map[int32]int64{"orders": {0: 100}},
	}
	committed := &fakeCommitted{resp: committedBlocks(map[string]map[int32]int64{"orders": {0: 110}})}

	report, err := groupLag("billing", committed, offsets, testLogger())
	require.NoError(t, err)

	require.NotNil(t, report.Entries[0].Lag)
	assert.Equal(t, int64(0), *report.Entries[0].Lag)
	assert.Equal(t, int64(0), report.Total)
	assert.True(t, report.Complete)
}

func TestGroupLagEndOffsetUnavailable(t *testing.T) {
	offsets := &fakeOffsets{
		partitions: map[string][]int32{"orders": {0}},
		end:        map[string]map[int32]int64{"orders": {}},
		endErr:     map[string]map[int32]error{"orders": {0: errors.New("leader not available")}},
	}
	committed := &fakeCommitted{resp: committedBlocks(map[string]map[int32]int64{"orders": {0: 90}})}

	report, err := groupLag("billing", committed, offsets, testLogger())
	require.NoError(t, err)

	entry := report.Entries[0]
	assert.Equal(t, int64(-1), entry.EndOffset)
	require.NotNil(t, entry.Committed)
	assert.Nil(t, entry.Lag)
	assert.False(t, report.Complete)
}

func TestGroupLagCommitFetchError(t *testing.T) {
	offsets := &fakeOffsets{
		partitions: map[string][]int32{"orders": {0}},
		end:        map[string]map[int32]int64{"orders": {0: 100}},
	}
	resp := committedBlocks(map[string]map[int32]int64{"orders": {0: 90}})
	resp.Blocks["orders"][0].Err = sarama.ErrOffsetsLoadInProgress
	committed := &fakeCommitted{resp: resp}

	report, err := groupLag("billing", committed, offsets, testLogger())
	require.NoError(t, err)

	assert.Nil(t, report.Entries[0].Committed)
	assert.Nil(t, report.Entries[0].Lag)
	assert.False(t, report.Complete)
}

func TestGroupLagNoCommitSentinel(t *testing.T) {
	// Brokers report partitions the group never committed to with offset -1.
	offsets := &fakeOffsets{
		partitions: map[string][]int32{"orders": {0}},
		end:        map[string]map[int32]int64{"orders": {0: 100}},
	}
	committed := &fakeCommitted{resp: committedBlocks(map[string]map[int32]int64{"orders": {0: -1}})}

	report, err := groupLag("billing", committed, offsets, testLogger())
	require.NoError(t, err)

	assert.Nil(t, report.Entries[0].Committed)
	assert.Nil(t, report.Entries[0].Lag)
	assert.False(t, report.Complete)
}

func TestGroupLagSorted(t *testing.T) {
	offsets := &fakeOffsets{
		partitions: map[string][]int32{
			"alpha": {1, 0},
			"beta":  {0},
		},
		end: map[string]map[int32]int64{
			"alpha": {0: 10, 1: 10},
			"beta":  {0: 10},
		},
	}
	committed := &fakeCommitted{resp: committedBlocks(map[string]map[int32]int64{
		"beta":  {0: 5},
		"alpha": {1: 5, 0: 5},
	})}

	report, err := groupLag("billing", committed, offsets, testLogger())
	require.NoError(t, err)

	require.Len(t, report.Entries, 3)
	assert.Equal(t, "alpha", report.Entries[0].Topic)
	assert.Equal(t, int32(0), report.Entries[0].Partition)
	assert.Equal(t, "alpha", report.Entries[1].Topic)
	assert.Equal(t, int32(1), report.Entries[1].Partition)
	assert.Equal(t, "beta", report.Entries[2].Topic)
	assert.Equal(t, int64(15), report.Total)
	assert.True(t, report.Complete)
}

func TestGroupLagBrokerError(t *testing.T) {
	committed := &fakeCommitted{err: errors.New("connection refused")}

	_, err := groupLag("billing", committed, &fakeOffsets{}, testLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBrokerUnavailable)
}

func TestPendingOnly(t *testing.T) {
	ten, zero := int64(10), int64(0)
	report := &LagReport{
		Group: "billing",
		Entries: []LagEntry{
			{Topic: "orders", Partition: 0, Lag: &ten},
			{Topic: "orders", Partition: 1, Lag: &zero},
			{Topic: "orders", Partition: 2, Lag: nil},
		},
		Total: 10,
	}

	pending := report.PendingOnly()
	require.Len(t, pending.Entries, 2)
	assert.Equal(t, int32(0), pending.Entries[0].Partition)
	assert.Equal(t, int32(2), pending.Entries[1].Partition)
	assert.Equal(t, int64(10), pending.Total)
}
