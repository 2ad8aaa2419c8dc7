package pulsegraph

import "github.com/eapache/queue"

// buttonID is the source id of the synthetic pulse that starts a press.
const buttonID = -1

// queued is a pulse waiting for delivery, addressed by module id. depth is
// the number of hops from the button pulse, which has depth 0.
type queued struct {
	from  int
	to    int
	slot  int
	level Level
	depth int
}

// pulseQueue is the strict FIFO between emission and delivery. Pulses are
// delivered in the order they were emitted across the whole network; a
// destination never processes its inputs ahead of earlier siblings.
type pulseQueue struct {
	q *queue.Queue
}

func newPulseQueue() *pulseQueue {
	return &pulseQueue{q: queue.New()}
}

func (p *pulseQueue) push(pulse queued) {
	p.q.Add(pulse)
}

// pop removes the head. The queue must not be empty.
func (p *pulseQueue) pop() queued {
	return p.q.Remove().(queued)
}

func (p *pulseQueue) len() int {
	return p.q.Length()
}
