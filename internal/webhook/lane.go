// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package webhook

import "time"

// job is one delivery of an event to one subscription. body is shared by
// every job built from the same event and must not be modified.
type job struct {
	subscription *Subscription
	event        string
	body         []byte
}

// lane serialises the deliveries of a single subscription.
type lane struct {
	jobs chan job
}

// assign queues j on its subscription's lane, starting the lane on first use.
// It never blocks; a full lane drops the job.
func (dispatcher *Dispatcher) assign(j job) {
	dispatcher.lanesMu.Lock()
	defer dispatcher.lanesMu.Unlock()

	id := j.subscription.ID
	current, ok := dispatcher.lanes[id]
	if !ok {
		current = &lane{jobs: make(chan job, dispatcher.options.QueueSize)}
		dispatcher.lanes[id] = current
		dispatcher.lanesWG.Add(1)
		go dispatcher.runLane(id, current)
	}

	select {
	case current.jobs <- j:
	default:
		dispatcher.dropJob(j, "subscriber_queue_full")
	}
}

func (dispatcher *Dispatcher) runLane(id string, current *lane) {
	defer dispatcher.lanesWG.Done()

	idle := time.NewTimer(laneIdleTimeout)
	defer idle.Stop()

	for {
		select {
		case j, ok := <-current.jobs:
			if !ok {
				return
			}
			if dispatcher.ctx.Err() != nil {
				dispatcher.dropJob(j, "shutdown")
				continue
			}
			dispatcher.deliver(dispatcher.ctx, j.subscription, j.event, j.body, dispatcher.options.MaxRetries)
			idle.Reset(laneIdleTimeout)
		case <-idle.C:
			if dispatcher.retire(id, current) {
				return
			}
			idle.Reset(laneIdleTimeout)
		}
	}
}

// retire removes an empty lane so deleted subscriptions do not keep a
// goroutine alive. It runs under the same lock as assign, so no job can
// arrive on a retired lane.
func (dispatcher *Dispatcher) retire(id string, current *lane) bool {
	dispatcher.lanesMu.Lock()
	defer dispatcher.lanesMu.Unlock()

	if len(current.jobs) > 0 {
		return false
	}
	if dispatcher.lanes[id] == current {
		delete(dispatcher.lanes, id)
	}
	return true
}

// closeLanes lets every lane finish its backlog and exit. Called once the
// workers, the only producers, have stopped.
func (dispatcher *Dispatcher) closeLanes() {
	dispatcher.lanesMu.Lock()
	defer dispatcher.lanesMu.Unlock()

	for id, current := range dispatcher.lanes {
		close(current.jobs)
		delete(dispatcher.lanes, id)
	}
}
