package kvstore

import "sync"

type ChangeOp string

const (
	OpSet    ChangeOp = "set"
	OpRemove ChangeOp = "remove"
)

// Change describes a mutation of a single store key.
type Change struct {
	Key string
	Op  ChangeOp
}

// Notifier fans Change events out to subscribers. Delivery is best-effort:
// a subscriber that is not draining its channel misses events rather than
// blocking writers.
type Notifier struct {
	mu   sync.Mutex
	subs map[int]chan Change
	next int
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[int]chan Change)}
}

// Subscribe returns a change channel and a cancel function. The channel is
// closed on cancel.
func (n *Notifier) Subscribe() (<-chan Change, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.next
	n.next++
	ch := make(chan Change, 16)
	n.subs[id] = ch

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if sub, ok := n.subs[id]; ok {
			delete(n.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (n *Notifier) publish(ch Change) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, sub := range n.subs {
		select {
		case sub <- ch:
		default:
		}
	}
}
