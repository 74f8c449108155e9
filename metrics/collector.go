package metrics

import "catanbench/eventlog"

// Collector serializes event streams from concurrently running matches into
// one aggregator: every match feeds the same channel, a single goroutine
// folds, and nobody shares mutable counters. Reads happen only through
// Wait, after all feeding matches are done.
type Collector struct {
	ch   chan eventlog.Event
	done chan struct{}
	agg  *Aggregator
}

func NewCollector(buffer int) *Collector {
	c := &Collector{
		ch:   make(chan eventlog.Event, buffer),
		done: make(chan struct{}),
		agg:  NewAggregator(),
	}
	go func() {
		defer close(c.done)
		for ev := range c.ch {
			c.agg.Add(ev)
		}
	}()
	return c
}

// Sink is the append lane matches write their finished logs to.
func (c *Collector) Sink() chan<- eventlog.Event {
	return c.ch
}

// Feed pushes a whole match log.
func (c *Collector) Feed(l *eventlog.Log) {
	for _, ev := range l.Events() {
		c.ch <- ev
	}
}

// Wait closes the lane, drains it, and hands back the aggregator. Call
// exactly once, after every feeding match has completed.
func (c *Collector) Wait() *Aggregator {
	close(c.ch)
	<-c.done
	return c.agg
}
