package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keaz/kcli/pkg/filter"
)

func TestStartOffsets(t *testing.T) {
	offsets := &fakeOffsets{
		partitions: map[string][]int32{"orders": {0, 1, 2}},
		oldest:     map[string]map[int32]int64{"orders": {0: 0, 1: 0, 2: 0}},
		end:        map[string]map[int32]int64{"orders": {0: 10, 1: 20, 2: 5}},
	}

	tests := []struct {
		name   string
		before int64
		want   map[int32]int64
	}{
		{
			name:   "before rewinds each partition",
			before: 3,
			want:   map[int32]int64{0: 7, 1: 17, 2: 2},
		},
		{
			name:   "zero starts at the end",
			before: 0,
			want:   map[int32]int64{0: 10, 1: 20, 2: 5},
		},
		{
			name:   "negative starts at the oldest",
			before: -1,
			want:   map[int32]int64{0: 0, 1: 0, 2: 0},
		},
		{
			name:   "before larger than retention clamps to oldest",
			before: 1000,
			want:   map[int32]int64{0: 0, 1: 0, 2: 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tailer := NewTailer(offsets, nil, TailConfig{Topic: "orders", Before: tt.before}, testLogger())
			starts, err := tailer.startOffsets()
			require.NoError(t, err)
			assert.Equal(t, tt.want, starts)
		})
	}
}

func TestStartOffsetsRespectsRetention(t *testing.T) {
	// Partition trimmed by retention: offsets 40..50 remain.
	offsets := &fakeOffsets{
		partitions: map[string][]int32{"orders": {0}},
		oldest:     map[string]map[int32]int64{"orders": {0: 40}},
		end:        map[string]map[int32]int64{"orders": {0: 50}},
	}

	tailer := NewTailer(offsets, nil, TailConfig{Topic: "orders", Before: 100}, testLogger())
	starts, err := tailer.startOffsets()
	require.NoError(t, err)
	assert.Equal(t, map[int32]int64{0: 40}, starts)
}

func TestTailerEmitsInPartitionOrder(t *testing.T) {
	offsets := &fakeOffsets{
		partitions: map[string][]int32{"orders": {0}},
		oldest:     map[string]map[int32]int64{"orders": {0: 0}},
		end:        map[string]map[int32]int64{"orders": {0: 5}},
	}

	mc := mocks.NewConsumer(t, nil)
	defer mc.Close()
	pc := mc.ExpectConsumePartition("orders", 0, 2)
	pc.YieldMessage(&sarama.ConsumerMessage{Value: []byte(`{"id": 1}`)})
	pc.YieldMessage(&sarama.ConsumerMessage{Value: []byte(`{"id": 2}`)})
	pc.YieldMessage(&sarama.ConsumerMessage{Value: []byte(`{"id": 3}`)})

	tailer := NewTailer(offsets, mc, TailConfig{Topic: "orders", Before: 3, Max: 3}, testLogger())
	assert.Equal(t, TailIdle, tailer.State())

	var got []TailMessage
	err := tailer.Run(context.Background(), func(msg TailMessage) {
		got = append(got, msg)
	})
	require.NoError(t, err)
	assert.Equal(t, TailStopped, tailer.State())

	require.Len(t, got, 3)
	assert.Equal(t, `{"id": 1}`, got[0].Value)
	assert.Equal(t, `{"id": 2}`, got[1].Value)
	assert.Equal(t, `{"id": 3}`, got[2].Value)
	assert.Equal(t, "orders", got[0].Topic)
	assert.Equal(t, int32(0), got[0].Partition)
}

func TestTailerAppliesFilter(t *testing.T) {
	offsets := &fakeOffsets{
		partitions: map[string][]int32{"orders": {0}},
		oldest:     map[string]map[int32]int64{"orders": {0: 0}},
		end:        map[string]map[int32]int64{"orders": {0: 4}},
	}

	mc := mocks.NewConsumer(t, nil)
	defer mc.Close()
	pc := mc.ExpectConsumePartition("orders", 0, 0)
	pc.YieldMessage(&sarama.ConsumerMessage{Value: []byte(`{"status": "pending"}`)})
	pc.YieldMessage(&sarama.ConsumerMessage{Value: []byte(`not json at all`)})
	pc.YieldMessage(&sarama.ConsumerMessage{Value: []byte(`{"status": "shipped"}`)})
	pc.YieldMessage(&sarama.ConsumerMessage{Value: []byte(`{"status": "shipped", "id": 7}`)})

	expr, err := filter.Parse("status=shipped")
	require.NoError(t, err)

	tailer := NewTailer(offsets, mc, TailConfig{Topic: "orders", Before: -1, Filter: expr, Max: 2}, testLogger())

	var got []TailMessage
	err = tailer.Run(context.Background(), func(msg TailMessage) {
		got = append(got, msg)
	})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Contains(t, got[0].Value, "shipped")
	assert.Contains(t, got[1].Value, "shipped")
}

func TestTailerFansOutAllPartitions(t *testing.T) {
	offsets := &fakeOffsets{
		partitions: map[string][]int32{"orders": {0, 1}},
		oldest:     map[string]map[int32]int64{"orders": {0: 0, 1: 0}},
		end:        map[string]map[int32]int64{"orders": {0: 1, 1: 1}},
	}

	mc := mocks.NewConsumer(t, nil)
	defer mc.Close()
	pc0 := mc.ExpectConsumePartition("orders", 0, 0)
	pc1 := mc.ExpectConsumePartition("orders", 1, 0)
	pc0.YieldMessage(&sarama.ConsumerMessage{Value: []byte(`{"p": 0}`)})
	pc1.YieldMessage(&sarama.ConsumerMessage{Value: []byte(`{"p": 1}`)})

	tailer := NewTailer(offsets, mc, TailConfig{Topic: "orders", Before: -1, Max: 2}, testLogger())

	var values []string
	err := tailer.Run(context.Background(), func(msg TailMessage) {
		values = append(values, msg.Value)
	})
	require.NoError(t, err)

	// Arrival order across partitions is not defined, membership is.
	assert.ElementsMatch(t, []string{`{"p": 0}`, `{"p": 1}`}, values)
}

func TestTailerStopsOnCancel(t *testing.T) {
	offsets := &fakeOffsets{
		partitions: map[string][]int32{"orders": {0}},
		oldest:     map[string]map[int32]int64{"orders": {0: 0}},
		end:        map[string]map[int32]int64{"orders": {0: 0}},
	}

	mc := mocks.NewConsumer(t, nil)
	defer mc.Close()
	mc.ExpectConsumePartition("orders", 0, 0)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	tailer := NewTailer(offsets, mc, TailConfig{Topic: "orders", Before: 0}, testLogger())
	err := tailer.Run(ctx, func(TailMessage) {
		t.Error("no message should be emitted")
	})
	require.NoError(t, err, "cancellation is a clean shutdown")
	assert.Equal(t, TailStopped, tailer.State())
}

func TestTailerDrainsOnCancel(t *testing.T) {
	offsets := &fakeOffsets{
		partitions: map[string][]int32{"orders": {0}},
		oldest:     map[string]map[int32]int64{"orders": {0: 0}},
		end:        map[string]map[int32]int64{"orders": {0: 3}},
	}

	mc := mocks.NewConsumer(t, nil)
	defer mc.Close()
	pc := mc.ExpectConsumePartition("orders", 0, 0)
	pc.YieldMessage(&sarama.ConsumerMessage{Value: []byte(`{"id": 1}`)})
	pc.YieldMessage(&sarama.ConsumerMessage{Value: []byte(`{"id": 2}`)})
	pc.YieldMessage(&sarama.ConsumerMessage{Value: []byte(`{"id": 3}`)})

	// Cancelling before Run still delivers everything already fetched.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tailer := NewTailer(offsets, mc, TailConfig{Topic: "orders", Before: -1}, testLogger())
	var got []TailMessage
	err := tailer.Run(ctx, func(msg TailMessage) {
		got = append(got, msg)
	})
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, `{"id": 1}`, got[0].Value)
	assert.Equal(t, `{"id": 3}`, got[2].Value)
}

func TestTailerBrokerErrorOnSubscribe(t *testing.T) {
	offsets := &fakeOffsets{
		partitions:    map[string][]int32{},
		partitionsErr: map[string]error{"orders": sarama.ErrOutOfBrokers},
	}

	tailer := NewTailer(offsets, nil, TailConfig{Topic: "orders"}, testLogger())
	err := tailer.Run(context.Background(), func(TailMessage) {})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBrokerUnavailable)
	assert.Equal(t, TailStopped, tailer.State())
}
