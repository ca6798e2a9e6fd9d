package kafka

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/keaz/kcli/pkg/filter"
)

// TailState tracks where a Tailer is in its lifecycle. It moves from
// TailIdle through TailSubscribed once partition consumers exist, then
// alternates between TailPolling and TailEmitting until it reaches
// TailStopped.
type TailState int32

const (
	TailIdle TailState = iota
	TailSubscribed
	TailPolling
	TailEmitting
	TailStopped
)

func (s TailState) String() string {
	switch s {
	case TailIdle:
		return "idle"
	case TailSubscribed:
		return "subscribed"
	case TailPolling:
		return "polling"
	case TailEmitting:
		return "emitting"
	case TailStopped:
		return "stopped"
	default:
		return fmt.Sprintf("TailState(%d)", int32(s))
	}
}

// TailConfig controls one tail run.
type TailConfig struct {
	Topic string

	// Before positions the start offset on every partition: N > 0 starts N
	// messages before the log end (clamped to the oldest retained offset),
	// 0 starts at the log end so only new messages arrive, and any negative
	// value starts at the oldest retained offset.
	Before int64

	// Filter, when set, drops messages whose payload does not satisfy the
	// expression. Payloads that are not well-formed JSON never match.
	Filter *filter.Expression

	// Max stops the tail after that many messages were emitted. Zero means
	// run until the context is cancelled.
	Max int

	// Buffer is the capacity of the shared emit channel. Zero means 256.
	Buffer int
}

// EmitFunc receives each matching message in arrival order.
type EmitFunc func(TailMessage)

// Tailer consumes every partition of a topic concurrently and funnels
// matching messages into a single ordered emit callback.
type Tailer struct {
	offsets  OffsetSource
	consumer sarama.Consumer
	cfg      TailConfig
	logger   *log.Logger
	state    atomic.Int32
}

func NewTailer(offsets OffsetSource, consumer sarama.Consumer, cfg TailConfig, logger *log.Logger) *Tailer {
	return &Tailer{offsets: offsets, consumer: consumer, cfg: cfg, logger: logger}
}

// State reports the tailer's current lifecycle state. Safe to call from any
// goroutine.
func (t *Tailer) State() TailState {
	return TailState(t.state.Load())
}

func (t *Tailer) setState(s TailState) {
	t.state.Store(int32(s))
}

// startOffsets resolves the start offset for every partition of the topic
// according to cfg.Before.
func (t *Tailer) startOffsets() (map[int32]int64, error) {
	partitions, err := t.offsets.Partitions(t.cfg.Topic)
	if err != nil {
		return nil, fmt.Errorf("%w: listing partitions of %s: %w", ErrBrokerUnavailable, t.cfg.Topic, err)
	}

	starts := make(map[int32]int64, len(partitions))
	for _, partition := range partitions {
		if t.cfg.Before < 0 {
			oldest, err := t.offsets.GetOffset(t.cfg.Topic, partition, sarama.OffsetOldest)
			if err != nil {
				return nil, fmt.Errorf("%w for %s: %w", ErrOffsetUnavailable, topicPartition(t.cfg.Topic, partition), err)
			}
			starts[partition] = oldest
			continue
		}

		end, err := t.offsets.GetOffset(t.cfg.Topic, partition, sarama.OffsetNewest)
		if err != nil {
			return nil, fmt.Errorf("%w for %s: %w", ErrOffsetUnavailable, topicPartition(t.cfg.Topic, partition), err)
		}
		start := end
		if t.cfg.Before > 0 {
			oldest, err := t.offsets.GetOffset(t.cfg.Topic, partition, sarama.OffsetOldest)
			if err != nil {
				return nil, fmt.Errorf("%w for %s: %w", ErrOffsetUnavailable, topicPartition(t.cfg.Topic, partition), err)
			}
			start = end - t.cfg.Before
			if start < oldest {
				start = oldest
			}
		}
		starts[partition] = start
	}
	return starts, nil
}

// Run tails the topic until the context is cancelled or cfg.Max messages
// were emitted. Cancellation is a clean shutdown and returns nil.
func (t *Tailer) Run(ctx context.Context, emit EmitFunc) error {
	defer t.setState(TailStopped)

	starts, err := t.startOffsets()
	if err != nil {
		return err
	}

	consumers := make([]sarama.PartitionConsumer, 0, len(starts))
	for partition, start := range starts {
		pc, err := t.consumer.ConsumePartition(t.cfg.Topic, partition, start)
		if err != nil {
			closeAll(consumers)
			return fmt.Errorf("%w: consuming %s: %w", ErrBrokerUnavailable, topicPartition(t.cfg.Topic, partition), err)
		}
		t.logger.WithFields(log.Fields{
			"topic":     t.cfg.Topic,
			"partition": partition,
			"offset":    start,
		}).Debug("partition subscribed")
		consumers = append(consumers, pc)
	}
	t.setState(TailSubscribed)

	buffer := t.cfg.Buffer
	if buffer <= 0 {
		buffer = 256
	}
	out := make(chan TailMessage, buffer)
	stop := make(chan struct{})
	var stopOnce sync.Once
	halt := func() { stopOnce.Do(func() { close(stop) }) }

	var wg sync.WaitGroup
	for _, pc := range consumers {
		wg.Add(2)
		go t.consumeLoop(pc, out, &wg)
		go t.drainErrors(pc, &wg)
	}

	// The emit channel closes once every partition loop has drained, which
	// AsyncClose guarantees after a stop or cancellation.
	go func() {
		wg.Wait()
		close(out)
	}()
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		for _, pc := range consumers {
			pc.AsyncClose()
		}
	}()

	t.setState(TailPolling)
	emitted := 0
	for msg := range out {
		if t.cfg.Max > 0 && emitted >= t.cfg.Max {
			// Max reached. Keep draining so no partition loop blocks on a
			// full channel while shutting down.
			continue
		}
		t.setState(TailEmitting)
		emit(msg)
		t.setState(TailPolling)
		emitted++
		if t.cfg.Max > 0 && emitted >= t.cfg.Max {
			halt()
		}
	}
	halt()

	t.logger.WithFields(log.Fields{"topic": t.cfg.Topic, "emitted": emitted}).Debug("tail finished")
	return nil
}

func (t *Tailer) consumeLoop(pc sarama.PartitionConsumer, out chan<- TailMessage, wg *sync.WaitGroup) {
	defer wg.Done()
	for msg := range pc.Messages() {
		if t.cfg.Filter != nil && !t.cfg.Filter.Matches(msg.Value) {
			continue
		}
		out <- TailMessage{
			Topic:     msg.Topic,
			Partition: msg.Partition,
			Offset:    msg.Offset,
			Key:       string(msg.Key),
			Value:     string(msg.Value),
			Timestamp: msg.Timestamp,
		}
	}
}

func (t *Tailer) drainErrors(pc sarama.PartitionConsumer, wg *sync.WaitGroup) {
	defer wg.Done()
	for err := range pc.Errors() {
		t.logger.WithFields(log.Fields{
			"topic":     err.Topic,
			"partition": err.Partition,
		}).WithError(err.Err).Warn("partition consumer error")
	}
}

// closeAll tears down partition consumers that never got a consume loop.
// AsyncClose requires the channels to be serviced until they close.
func closeAll(pcs []sarama.PartitionConsumer) {
	for _, pc := range pcs {
		pc.AsyncClose()
	}
	for _, pc := range pcs {
		for range pc.Messages() {
		}
		for range pc.Errors() {
		}
	}
}

// Tail opens a client against the configured brokers and runs a Tailer over
// the topic. It blocks until the context is cancelled or tc.Max messages
// were emitted.
func Tail(ctx context.Context, cfg *Config, tc TailConfig, emit EmitFunc) error {
	client, err := cfg.Connect()
	if err != nil {
		return err
	}
	consumer, err := sarama.NewConsumerFromClient(client)
	if err != nil {
		client.Close()
		return fmt.Errorf("%w: %w", ErrBrokerUnavailable, err)
	}
	defer func() {
		if err := consumer.Close(); err != nil {
			cfg.logger().WithError(err).Warn("failed to close consumer cleanly")
		}
		client.Close()
	}()

	return NewTailer(client, consumer, tc, cfg.logger()).Run(ctx, emit)
}
