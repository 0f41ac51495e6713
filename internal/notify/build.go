package notify

import (
	"io"

	"github.com/redis/go-redis/v9"

	"github.com/kkkkikiki/punchcard/internal/config"
)

// FromConfig builds the sink selected by cfg.Driver. With a positive
// cfg.QueueSize deliveries run on a background worker. The returned closer
// drains that worker, then releases broker connections, and is never nil.
func FromConfig(cfg config.NotifyConfig) (Sink, io.Closer) {
	var (
		sinks   Multi
		closers closeAll
	)

	if cfg.Driver == "log" || cfg.Driver == "all" {
		sinks = append(sinks, LogSink{})
	}
	if cfg.Driver == "kafka" || cfg.Driver == "all" {
		k := NewKafkaSink(NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic))
		sinks = append(sinks, k)
		closers = append(closers, k)
	}
	if cfg.Driver == "redis" || cfg.Driver == "all" {
		r := NewRedisSink(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}), cfg.RedisChannel)
		sinks = append(sinks, r)
		closers = append(closers, r)
	}

	var sink Sink = sinks
	if len(sinks) == 1 {
		sink = sinks[0]
	}
	sink = Timeout{Sink: sink, D: cfg.Timeout}
	if cfg.QueueSize <= 0 {
		return sink, closers
	}
	async := NewAsync(sink, cfg.QueueSize)
	return async, append(closeAll{async}, closers...)
}

type closeAll []io.Closer

func (c closeAll) Close() error {
	var first error
	for _, cl := range c {
		if err := cl.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
