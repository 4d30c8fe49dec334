package realtime

import (
	"context"
	"errors"
	"sync"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/udinmoInc/law/client/internal/dispatch"
)

// State of a topic subscription.
type State int

const (
	StateClosed State = iota
	StateOpening
	StateOpen
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpening:
		return "opening"
	case StateOpen:
		return "open"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Handler applies one push event to an engine. A returned error means
// the payload could not be applied; the supervisor logs it and drops
// the event, it never stops delivery of subsequent events.
type Handler func(ctx context.Context, ev Event) error

// Config tunes the supervisor's reopen behaviour.
type Config struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// MaxReopens bounds reconnect attempts per outage. When the bound
	// is exhausted OnFailure fires once per open topic and the stream
	// stays down.
	MaxReopens uint64
	// OnFailure, when set, surfaces an exhausted reopen to the
	// embedder. Called at most once per topic per outage.
	OnFailure func(topic string, err error)
}

func (c *Config) applyDefaults() {
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 500 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 30 * time.Second
	}
	if c.MaxReopens == 0 {
		c.MaxReopens = 8
	}
}

// ErrNoHandler is logged (not returned to callers) when an event
// arrives for a table nobody registered.
var ErrNoHandler = errors.New("no handler for table")

type subscription struct {
	state State
	refs  int
}

// Supervisor owns every change-stream subscription. It guarantees at
// most one live subscription per topic key, refcounts open handles,
// reopens the stream with bounded backoff after transport errors, and
// routes each event to exactly one engine handler via the dispatch
// queue (FIFO per topic).
type Supervisor struct {
	dial  Dialer
	queue *dispatch.Queue
	cfg   Config
	log   zerolog.Logger

	mu        sync.Mutex
	conn      Conn
	redialing bool // pump is between reconnect attempts
	topics    map[string]*subscription
	handlers  map[string]Handler

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSupervisor constructs a stopped supervisor; the stream is dialed
// lazily on the first Open.
func NewSupervisor(dial Dialer, queue *dispatch.Queue, cfg Config, log zerolog.Logger) *Supervisor {
	cfg.applyDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Supervisor{
		dial:     dial,
		queue:    queue,
		cfg:      cfg,
		log:      log.With().Str("component", "supervisor").Logger(),
		topics:   make(map[string]*subscription),
		handlers: make(map[string]Handler),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// RegisterHandler binds a table name to the engine that consumes its
// events. Must be called before Open.
func (s *Supervisor) RegisterHandler(table string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[table] = h
}

// Handle is one caller's claim on a topic subscription. The
// underlying subscription closes when every handle is released.
type Handle struct {
	s     *Supervisor
	topic string
	once  sync.Once
}

// Topic returns the topic key this handle holds open.
func (h *Handle) Topic() string { return h.topic }

// Close releases the handle. Idempotent. Delivery for the topic stops
// only when the last handle is released.
func (h *Handle) Close() {
	h.once.Do(func() { h.s.release(h.topic) })
}

// Open ensures a live subscription for topic and returns a handle on
// it. Opening an already-open topic is a no-op that shares the
// existing subscription.
func (s *Supervisor) Open(ctx context.Context, topic string) (*Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ctx.Err(); err != nil {
		return nil, err
	}

	if sub, ok := s.topics[topic]; ok && sub.state != StateClosed {
		sub.refs++
		return &Handle{s: s, topic: topic}, nil
	}

	sub := &subscription{state: StateOpening, refs: 1}
	s.topics[topic] = sub

	if s.redialing {
		// The pump is between reconnect attempts; its next successful
		// dial resubscribes every held topic, this one included.
		openTopics.Set(float64(len(s.topics)))
		return &Handle{s: s, topic: topic}, nil
	}

	if s.conn == nil {
		// No pump is running: either nothing was ever opened, or the
		// stream died and its reopen budget ran out. Dial fresh.
		conn, err := s.dial(ctx)
		if err != nil {
			delete(s.topics, topic)
			return nil, err
		}
		s.conn = conn
		s.wg.Add(1)
		go s.pump(conn)
		// Restore topics stranded by an exhausted reopen.
		for t, st := range s.topics {
			if t == topic {
				continue
			}
			if err := s.conn.Subscribe(t); err != nil {
				s.log.Warn().Err(err).Str("topic", t).Msg("resubscribe on fresh stream failed")
				continue
			}
			st.state = StateOpen
		}
	}

	if err := s.conn.Subscribe(topic); err != nil {
		delete(s.topics, topic)
		return nil, err
	}
	sub.state = StateOpen
	openTopics.Set(float64(len(s.topics)))
	s.log.Debug().Str("topic", topic).Msg("subscription opened")
	return &Handle{s: s, topic: topic}, nil
}

func (s *Supervisor) release(topic string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.topics[topic]
	if !ok {
		return
	}
	sub.refs--
	if sub.refs > 0 {
		return
	}
	s.closeTopicLocked(topic)
}

func (s *Supervisor) closeTopicLocked(topic string) {
	delete(s.topics, topic)
	openTopics.Set(float64(len(s.topics)))
	if s.conn != nil {
		if err := s.conn.Unsubscribe(topic); err != nil {
			s.log.Warn().Err(err).Str("topic", topic).Msg("unsubscribe failed")
		}
	}
	s.log.Debug().Str("topic", topic).Msg("subscription closed")
}

// CloseAll tears down every subscription regardless of refcounts.
// Used on identity change: outgoing-identity topics must be closed
// before any topic for a new identity opens.
func (s *Supervisor) CloseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for topic := range s.topics {
		s.closeTopicLocked(topic)
	}
}

// TopicState reports the lifecycle state of a topic key.
func (s *Supervisor) TopicState(topic string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub, ok := s.topics[topic]; ok {
		return sub.state
	}
	return StateClosed
}

// Close stops the supervisor and its stream. Queued events already
// dispatched are still applied by the dispatch queue's drain.
func (s *Supervisor) Close() error {
	s.cancel()
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	for topic := range s.topics {
		delete(s.topics, topic)
	}
	openTopics.Set(0)
	s.mu.Unlock()

	var err error
	if conn != nil {
		err = conn.Close()
	}
	s.wg.Wait()
	return err
}

// pump drains one connection and reconnects when it dies.
func (s *Supervisor) pump(conn Conn) {
	defer s.wg.Done()
	for {
		for ev := range conn.Events() {
			s.route(ev)
		}
		if s.ctx.Err() != nil {
			return
		}
		next, ok := s.reopen()
		if !ok {
			return
		}
		conn = next
	}
}

// errNothingHeld aborts a reopen whose last handle was released
// mid-backoff.
var errNothingHeld = errors.New("no topics held")

// reopen redials with exponential backoff and resubscribes every held
// topic. Returns false when retries are exhausted, every handle was
// released, or the supervisor is closing. While a reopen is in flight
// the redialing flag keeps Open from dialing a competing stream.
func (s *Supervisor) reopen() (Conn, bool) {
	s.mu.Lock()
	s.conn = nil
	s.redialing = true
	for _, sub := range s.topics {
		if sub.state == StateOpen {
			sub.state = StateErrored
		}
	}
	s.mu.Unlock()

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = s.cfg.InitialBackoff
	exp.MaxInterval = s.cfg.MaxBackoff

	var conn Conn
	op := func() error {
		s.mu.Lock()
		if len(s.topics) == 0 {
			s.mu.Unlock()
			return backoff.Permanent(errNothingHeld)
		}
		for _, sub := range s.topics {
			if sub.state == StateErrored {
				sub.state = StateOpening
			}
		}
		s.mu.Unlock()

		c, err := s.dial(s.ctx)
		if err != nil {
			s.markErrored()
			return err
		}

		s.mu.Lock()
		for topic, sub := range s.topics {
			if err := c.Subscribe(topic); err != nil {
				s.mu.Unlock()
				_ = c.Close()
				s.markErrored()
				return err
			}
			sub.state = StateOpen
		}
		// Clearing redialing under the same lock as the conn swap:
		// an Open between the two would strand its topic.
		s.conn = c
		s.redialing = false
		s.mu.Unlock()
		conn = c
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(exp, s.cfg.MaxReopens), s.ctx)
	err := backoff.Retry(op, policy)
	if err == nil {
		reopensTotal.Inc()
		s.log.Info().Msg("change stream reopened")
		return conn, true
	}

	s.mu.Lock()
	if errors.Is(err, errNothingHeld) && len(s.topics) > 0 && s.ctx.Err() == nil {
		// A topic was opened while we were bailing out; keep the pump
		// alive and redial for it.
		s.mu.Unlock()
		return s.reopen()
	}
	s.redialing = false
	onFailure := s.cfg.OnFailure
	topics := make([]string, 0, len(s.topics))
	for topic := range s.topics {
		topics = append(topics, topic)
	}
	s.mu.Unlock()

	if errors.Is(err, errNothingHeld) || s.ctx.Err() != nil {
		return nil, false
	}

	// Retries exhausted: surface once per topic, then stay down. The
	// next Open dials a fresh stream and restores held topics.
	s.log.Error().Err(err).Msg("change stream reopen failed, giving up")
	if onFailure != nil {
		for _, topic := range topics {
			onFailure(topic, err)
		}
	}
	return nil, false
}

func (s *Supervisor) markErrored() {
	s.mu.Lock()
	for _, sub := range s.topics {
		if sub.state == StateOpening {
			sub.state = StateErrored
		}
	}
	s.mu.Unlock()
}

// route hands one event to the engine registered for its table. The
// dispatch queue preserves per-topic FIFO order. Events for topics
// that were closed since emission are dropped; a closed subscription
// stops application immediately even if events are already in flight.
func (s *Supervisor) route(ev Event) {
	s.mu.Lock()
	_, open := s.topics[ev.Topic]
	handler, known := s.handlers[ev.Table]
	s.mu.Unlock()

	if !open {
		droppedTotal.WithLabelValues("topic_closed").Inc()
		return
	}
	if !known {
		droppedTotal.WithLabelValues("unknown_table").Inc()
		s.log.Warn().Str("table", ev.Table).Str("topic", ev.Topic).Msg("dropping event for unrecognized table")
		return
	}

	job := dispatch.JobFunc(func(ctx context.Context) error {
		// Re-check at application time: a topic closed while the
		// event sat in the queue must not mutate engine state.
		s.mu.Lock()
		_, stillOpen := s.topics[ev.Topic]
		s.mu.Unlock()
		if !stillOpen {
			droppedTotal.WithLabelValues("topic_closed").Inc()
			return nil
		}
		if err := handler(ctx, ev); err != nil {
			droppedTotal.WithLabelValues("handler_error").Inc()
			s.log.Warn().Err(err).Str("table", ev.Table).Msg("dropping unappliable event")
		}
		return nil
	})

	if err := s.queue.Submit(s.ctx, ev.Topic, job); err != nil {
		droppedTotal.WithLabelValues("queue_full").Inc()
		s.log.Warn().Err(err).Str("topic", ev.Topic).Msg("dropping event, dispatch queue unavailable")
		return
	}
	eventsTotal.WithLabelValues(ev.Table).Inc()
}
