// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package webhook

import (
	"bytes"
	"context"
	"errors"
	"hash/fnv"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/events"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/clock"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/constants"
)

const (
	// maxRetryDelay caps the exponential backoff between attempts.
	maxRetryDelay = 30 * time.Second

	// maxJitter caps the deterministic jitter added to each backoff step.
	maxJitter = 2 * time.Second

	// responseDrainLimit bounds how much of a receiver's reply is read before closing.
	responseDrainLimit = 64 << 10

	// counterWriteTimeout bounds the detached counter update after each attempt.
	counterWriteTimeout = 5 * time.Second

	// laneIdleTimeout retires a subscriber lane that has had nothing to do.
	laneIdleTimeout = time.Minute
)

// ErrDispatcherClosed is returned by [Dispatcher.Enqueue] after [Dispatcher.Close].
var ErrDispatcherClosed = errors.New("webhook: dispatcher closed")

// ErrQueueFull is returned by [Dispatcher.Enqueue] when the queue has no room.
var ErrQueueFull = errors.New("webhook: delivery queue full")

// reservedHeaders may not be overridden by a subscription's custom headers.
var reservedHeaders = map[string]struct{}{
	http.CanonicalHeaderKey(constants.HeaderContentType):    {},
	http.CanonicalHeaderKey(constants.HeaderUserAgent):      {},
	http.CanonicalHeaderKey(constants.HeaderWebhookSig):     {},
	http.CanonicalHeaderKey(constants.HeaderWebhookEvent):   {},
	http.CanonicalHeaderKey(constants.HeaderWebhookDeliver): {},
}

// Recorder receives delivery metrics. [metrics.Metrics] implements it.
type Recorder interface {
	WebhookAttempt(success bool, duration time.Duration)
	WebhookDropped()
}

// Options configures a [Dispatcher].
type Options struct {
	Workers    int
	QueueSize  int
	Timeout    time.Duration
	MaxRetries int
	RetryBase  time.Duration

	// MaxRPS throttles outbound requests across all workers. Zero disables it.
	MaxRPS float64

	UserAgent string
	Guard     TargetGuard
}

/*
Dispatcher delivers events to webhook subscriptions in the background.

Workers take events off the intake queue, look up the listening
subscriptions and build the envelope once. Each (event, subscription) pair
then becomes a job on that subscription's lane: a bounded queue served by
its own goroutine. A slow or dead endpoint only ever backs up its own lane;
when the lane is full, further jobs for that subscriber are dropped.

# Lifecycle

 1. [NewDispatcher] builds it; [Dispatcher.Start] launches the workers.
 2. [Dispatcher.Enqueue] (or the bus handler) feeds events without blocking.
 3. [Dispatcher.Close] stops intake and waits for every lane to drain.
*/
type Dispatcher struct {
	repository Repository
	options    Options
	client     *http.Client
	throttle   *rate.Limiter
	clock      clock.Clock
	logger     *slog.Logger
	recorder   Recorder

	queue   chan events.Event
	mu      sync.RWMutex
	closed  bool
	started sync.Once
	workers sync.WaitGroup

	lanesMu sync.Mutex
	lanes   map[string]*lane
	lanesWG sync.WaitGroup

	// ctx is cancelled when Close gives up waiting, aborting in-flight retries.
	ctx    context.Context
	cancel context.CancelFunc
}

// NewDispatcher constructs a [Dispatcher]. recorder may be nil.
func NewDispatcher(repository Repository, options Options, clk clock.Clock, logger *slog.Logger, recorder Recorder) *Dispatcher {
	if options.Workers < 1 {
		options.Workers = 1
	}
	if options.QueueSize < 1 {
		options.QueueSize = 1
	}
	if options.RetryBase <= 0 {
		options.RetryBase = time.Second
	}

	dialer := &net.Dialer{Timeout: options.Timeout, Control: options.Guard.dialControl}
	// No Proxy: the guard must see the target's address, not a proxy's.
	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		MaxIdleConnsPerHost: options.Workers,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: options.Timeout,
	}

	dispatcher := &Dispatcher{
		repository: repository,
		options:    options,
		client: &http.Client{
			Timeout:   options.Timeout,
			Transport: transport,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		clock:    clk,
		logger:   logger,
		recorder: recorder,
		queue:    make(chan events.Event, options.QueueSize),
		lanes:    make(map[string]*lane),
	}
	if options.MaxRPS > 0 {
		burst := max(1, int(options.MaxRPS))
		dispatcher.throttle = rate.NewLimiter(rate.Limit(options.MaxRPS), burst)
	}
	dispatcher.ctx, dispatcher.cancel = context.WithCancel(context.Background())
	return dispatcher
}

// Start launches the worker pool. Calling it more than once has no effect.
func (dispatcher *Dispatcher) Start() {
	dispatcher.started.Do(func() {
		for range dispatcher.options.Workers {
			dispatcher.workers.Add(1)
			go dispatcher.work()
		}
	})
}

// Handle makes the dispatcher an asynchronous [events.Handler].
func (dispatcher *Dispatcher) Handle(ctx context.Context, event events.Event) {
	_ = dispatcher.Enqueue(ctx, event)
}

// Enqueue queues event for delivery. It never blocks; a full queue drops the event.
func (dispatcher *Dispatcher) Enqueue(ctx context.Context, event events.Event) error {
	dispatcher.mu.RLock()
	defer dispatcher.mu.RUnlock()

	if dispatcher.closed {
		dispatcher.drop(ctx, event, "closed")
		return ErrDispatcherClosed
	}

	select {
	case dispatcher.queue <- event:
		return nil
	default:
		dispatcher.drop(ctx, event, "queue_full")
		return ErrQueueFull
	}
}

func (dispatcher *Dispatcher) drop(ctx context.Context, event events.Event, reason string) {
	dispatcher.logger.WarnContext(ctx, "webhook_event_dropped",
		slog.String("event", event.Name.String()),
		slog.String("reason", reason),
	)
	if dispatcher.recorder != nil {
		dispatcher.recorder.WebhookDropped()
	}
}

func (dispatcher *Dispatcher) dropJob(j job, reason string) {
	dispatcher.logger.Warn("webhook_delivery_dropped",
		slog.String("webhook_id", j.subscription.ID),
		slog.String("event", j.event),
		slog.String("reason", reason),
	)
	if dispatcher.recorder != nil {
		dispatcher.recorder.WebhookDropped()
	}
}

/*
Close stops intake and waits for queued events to be delivered.

When ctx expires first, in-flight deliveries are cancelled, jobs still
queued are dropped and ctx.Err() is returned.
*/
func (dispatcher *Dispatcher) Close(ctx context.Context) error {
	dispatcher.mu.Lock()
	if !dispatcher.closed {
		dispatcher.closed = true
		close(dispatcher.queue)
	}
	dispatcher.mu.Unlock()

	done := make(chan struct{})
	go func() {
		dispatcher.workers.Wait()
		dispatcher.closeLanes()
		dispatcher.lanesWG.Wait()
		close(done)
	}()

	select {
	case <-done:
		dispatcher.cancel()
		return nil
	case <-ctx.Done():
		dispatcher.cancel()
		<-done
		return ctx.Err()
	}
}

func (dispatcher *Dispatcher) work() {
	defer dispatcher.workers.Done()
	for event := range dispatcher.queue {
		dispatcher.process(event)
	}
}

// process turns one event into a job per listening subscription.
func (dispatcher *Dispatcher) process(event events.Event) {
	name := event.Name.String()

	subscriptions, err := dispatcher.repository.ListActiveForEvent(dispatcher.ctx, name)
	if err != nil {
		dispatcher.logger.Error("webhook_subscriptions_load_failed",
			slog.String("event", name),
			slog.String("error", err.Error()),
		)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	body, err := BuildEnvelope(name, event.Payload, event.OccurredAt)
	if err != nil {
		dispatcher.logger.Error("webhook_envelope_failed",
			slog.String("event", name),
			slog.String("error", err.Error()),
		)
		return
	}

	for _, subscription := range subscriptions {
		dispatcher.assign(job{subscription: subscription, event: name, body: body})
	}
}

/*
Send delivers payload to one subscription right away, without retries.

It backs the admin "test" endpoint; the attempt is counted like any other.
*/
func (dispatcher *Dispatcher) Send(ctx context.Context, subscription *Subscription, event string, payload any) (*Delivery, error) {
	body, err := BuildEnvelope(event, payload, dispatcher.clock.Now())
	if err != nil {
		return nil, err
	}
	return dispatcher.deliver(ctx, subscription, event, body, 0), nil
}

// deliver runs up to retries+1 attempts and records counters after each one.
func (dispatcher *Dispatcher) deliver(ctx context.Context, subscription *Subscription, event string, body []byte, retries int) *Delivery {
	deliveryID := ulid.MustNew(ulid.Timestamp(dispatcher.clock.Now()), ulid.DefaultEntropy()).String()

	for attempt := 1; ; attempt++ {
		delivery := dispatcher.attempt(ctx, subscription, event, body, deliveryID, attempt)

		terminal := delivery.Success || attempt > retries || ctx.Err() != nil
		dispatcher.recordAttempt(subscription.ID, delivery.StartedAt, terminal && !delivery.Success)

		if terminal {
			if !delivery.Success {
				dispatcher.logger.Warn("webhook_delivery_failed",
					slog.String("webhook_id", subscription.ID),
					slog.String("delivery_id", deliveryID),
					slog.String("event", event),
					slog.Int("attempt", attempt),
					slog.Int("status_code", delivery.StatusCode),
					slog.String("error", delivery.Error),
				)
			}
			return delivery
		}

		timer := time.NewTimer(retryDelay(deliveryID, attempt, dispatcher.options.RetryBase))
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
	}
}

// attempt performs one signed POST.
func (dispatcher *Dispatcher) attempt(ctx context.Context, subscription *Subscription, event string, body []byte, deliveryID string, attempt int) *Delivery {
	delivery := &Delivery{
		ID:             deliveryID,
		SubscriptionID: subscription.ID,
		Event:          event,
		URL:            subscription.URL,
		Signature:      Sign(subscription.Secret, body),
		Attempt:        attempt,
		StartedAt:      dispatcher.clock.Now().UTC(),
	}

	if dispatcher.throttle != nil {
		if err := dispatcher.throttle.Wait(ctx); err != nil {
			delivery.Error = err.Error()
			return delivery
		}
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, subscription.URL, bytes.NewReader(body))
	if err != nil {
		delivery.Error = err.Error()
		return delivery
	}
	dispatcher.setHeaders(request, subscription, delivery)

	begin := time.Now()
	response, err := dispatcher.client.Do(request)
	delivery.Duration = time.Since(begin)

	if err != nil {
		delivery.Error = err.Error()
	} else {
		_, _ = io.Copy(io.Discard, io.LimitReader(response.Body, responseDrainLimit))
		_ = response.Body.Close()
		delivery.StatusCode = response.StatusCode
		delivery.Success = response.StatusCode >= 200 && response.StatusCode < 300
	}

	if dispatcher.recorder != nil {
		dispatcher.recorder.WebhookAttempt(delivery.Success, delivery.Duration)
	}
	dispatcher.logger.Debug("webhook_delivery_attempted",
		slog.String("webhook_id", subscription.ID),
		slog.String("delivery_id", deliveryID),
		slog.Int("attempt", attempt),
		slog.Bool("success", delivery.Success),
		slog.Duration("duration", delivery.Duration),
	)
	return delivery
}

// setHeaders applies custom headers first, then the reserved ones, which always win.
func (dispatcher *Dispatcher) setHeaders(request *http.Request, subscription *Subscription, delivery *Delivery) {
	for name, value := range subscription.Headers {
		if _, reserved := reservedHeaders[http.CanonicalHeaderKey(strings.TrimSpace(name))]; reserved {
			continue
		}
		request.Header.Set(name, value)
	}

	request.Header.Set(constants.HeaderContentType, "application/json")
	request.Header.Set(constants.HeaderUserAgent, dispatcher.options.UserAgent)
	if delivery.Signature != "" {
		request.Header.Set(constants.HeaderWebhookSig, delivery.Signature)
	}
	request.Header.Set(constants.HeaderWebhookEvent, delivery.Event)
	request.Header.Set(constants.HeaderWebhookDeliver, delivery.ID)
}

// recordAttempt updates counters on a context of its own so shutdown does not lose them.
func (dispatcher *Dispatcher) recordAttempt(id string, at time.Time, failed bool) {
	ctx, cancel := context.WithTimeout(context.Background(), counterWriteTimeout)
	defer cancel()

	if err := dispatcher.repository.RecordAttempt(ctx, id, at, failed); err != nil {
		dispatcher.logger.Error("webhook_counter_update_failed",
			slog.String("webhook_id", id),
			slog.String("error", err.Error()),
		)
	}
}

// retryDelay is base*2^(attempt-1), capped, plus jitter derived from the delivery id.
func retryDelay(deliveryID string, attempt int, base time.Duration) time.Duration {
	delay := base
	for i := 1; i < attempt && delay < maxRetryDelay; i++ {
		delay *= 2
	}
	delay = min(delay, maxRetryDelay)

	jitterCap := min(base/5, maxJitter)
	if jitterCap <= 0 {
		return delay
	}

	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(deliveryID))
	seed := hasher.Sum64() ^ (uint64(attempt) * 0x9e3779b97f4a7c15)
	return delay + time.Duration(splitmix64(seed)%uint64(jitterCap+1))
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
