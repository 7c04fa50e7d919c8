package crawler

// Frontier is a FIFO ordered set of page identifiers awaiting a visit.
//
// Removal is O(1): the membership map stores the generation of the live
// queue slot, and slots whose generation no longer matches are skipped and
// compacted lazily. Identifiers added while the frontier is being consumed
// are queued behind everything already present.
type Frontier struct {
	queue   []slot
	members map[string]uint64
	gen     uint64
}

type slot struct {
	id  string
	gen uint64
}

// NewFrontier returns a frontier seeded with ids, in order.
func NewFrontier(ids ...string) *Frontier {
	f := &Frontier{members: make(map[string]uint64)}
	for _, id := range ids {
		f.Add(id)
	}
	return f
}

// Add enqueues id. It is a no-op when id is already pending, preserving its position.
func (f *Frontier) Add(id string) bool {
	if _, ok := f.members[id]; ok {
		return false
	}
	f.gen++
	f.members[id] = f.gen
	f.queue = append(f.queue, slot{id: id, gen: f.gen})
	return true
}

// Has reports whether id is pending.
func (f *Frontier) Has(id string) bool {
	_, ok := f.members[id]
	return ok
}

// Remove deletes id wherever it sits in the queue.
func (f *Frontier) Remove(id string) {
	delete(f.members, id)
}

// Next returns the oldest pending id without removing it.
func (f *Frontier) Next() (string, bool) {
	for len(f.queue) > 0 {
		head := f.queue[0]
		if gen, ok := f.members[head.id]; ok && gen == head.gen {
			return head.id, true
		}
		f.queue[0] = slot{}
		f.queue = f.queue[1:]
	}
	f.queue = nil
	return "", false
}

// Len returns the number of pending ids.
func (f *Frontier) Len() int {
	return len(f.members)
}

// Items returns pending ids in queue order.
func (f *Frontier) Items() []string {
	out := make([]string, 0, len(f.members))
	for _, s := range f.queue {
		if gen, ok := f.members[s.id]; ok && gen == s.gen {
			out = append(out, s.id)
		}
	}
	return out
}

// orderedSet is a grow-only set that remembers insertion order.
type orderedSet struct {
	items []string
	index map[string]struct{}
}

func newOrderedSet(items ...string) *orderedSet {
	s := &orderedSet{index: make(map[string]struct{}, len(items))}
	for _, item := range items {
		s.Add(item)
	}
	return s
}

func (s *orderedSet) Add(item string) bool {
	if _, ok := s.index[item]; ok {
		return false
	}
	s.index[item] = struct{}{}
	s.items = append(s.items, item)
	return true
}

func (s *orderedSet) Has(item string) bool {
	_, ok := s.index[item]
	return ok
}

func (s *orderedSet) Len() int { return len(s.items) }

func (s *orderedSet) Items() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}
