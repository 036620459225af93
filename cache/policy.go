package cache

import (
	"container/list"
	"sort"
)

// evictionPolicy maintains the ordering structure used to select eviction
// victims. Implementations are not safe for concurrent use; the owning
// cache serializes every call under its lock.
//
// The contract mirrors the entry lifecycle: onAdmit for a brand-new key,
// onAccess for a read or a value replacement of an existing key, onRemove
// when the key leaves the store for any reason. victim reports the key
// that would be evicted next without removing it; callers only invoke it
// when the store is non-empty.
type evictionPolicy interface {
	onAdmit(key string)
	onAccess(key string)
	onRemove(key string)
	victim() (string, bool)
	keys() []string
	len() int
	reset()
}

// listPolicy is the shared backbone for the recency and insertion ordered
// policies: a doubly linked list of keys plus a handle index. The front of
// the list is the safest entry, the back is the next victim.
type listPolicy struct {
	order *list.List
	nodes map[string]*list.Element
}

func newListPolicy() listPolicy {
	return listPolicy{
		order: list.New(),
		nodes: make(map[string]*list.Element),
	}
}

func (p *listPolicy) onAdmit(key string) {
	p.nodes[key] = p.order.PushFront(key)
}

func (p *listPolicy) onRemove(key string) {
	if element, ok := p.nodes[key]; ok {
		p.order.Remove(element)
		delete(p.nodes, key)
	}
}

func (p *listPolicy) victim() (string, bool) {
	element := p.order.Back()
	if element == nil {
		return "", false
	}
	return element.Value.(string), true
}

// keys returns all keys front-to-back, so the next victim is last.
func (p *listPolicy) keys() []string {
	keys := make([]string, 0, p.order.Len())
	for element := p.order.Front(); element != nil; element = element.Next() {
		keys = append(keys, element.Value.(string))
	}
	return keys
}

func (p *listPolicy) len() int {
	return p.order.Len()
}

func (p *listPolicy) reset() {
	p.order.Init()
	p.nodes = make(map[string]*list.Element)
}

// lruPolicy orders keys by recency. Access moves a key to the front; the
// least recently used key sits at the back and is evicted first.
type lruPolicy struct {
	listPolicy
}

func newLRUPolicy() *lruPolicy {
	return &lruPolicy{listPolicy: newListPolicy()}
}

func (p *lruPolicy) onAccess(key string) {
	if element, ok := p.nodes[key]; ok {
		p.order.MoveToFront(element)
	}
}

// fifoPolicy orders keys by insertion. Access does not reorder; the oldest
// inserted key is evicted first regardless of use.
type fifoPolicy struct {
	listPolicy
}

func newFIFOPolicy() *fifoPolicy {
	return &fifoPolicy{listPolicy: newListPolicy()}
}

func (p *fifoPolicy) onAccess(string) {}

// lfuNode tracks one key's frequency and its position within that
// frequency's bucket.
type lfuNode struct {
	key     string
	freq    int
	element *list.Element
}

// lfuPolicy groups keys into frequency buckets. Each bucket is an ordered
// list where the front holds the key least recently promoted to that
// frequency, which makes the tie-break among equal frequencies
// deterministic: the victim is the front of the lowest non-empty bucket.
type lfuPolicy struct {
	nodes   map[string]*lfuNode
	buckets map[int]*list.List
	minFreq int
}

func newLFUPolicy() *lfuPolicy {
	return &lfuPolicy{
		nodes:   make(map[string]*lfuNode),
		buckets: make(map[int]*list.List),
	}
}

func (p *lfuPolicy) bucket(freq int) *list.List {
	b, ok := p.buckets[freq]
	if !ok {
		b = list.New()
		p.buckets[freq] = b
	}
	return b
}

func (p *lfuPolicy) onAdmit(key string) {
	node := &lfuNode{key: key, freq: 1}
	node.element = p.bucket(1).PushBack(node)
	p.nodes[key] = node
	p.minFreq = 1
}

func (p *lfuPolicy) onAccess(key string) {
	node, ok := p.nodes[key]
	if !ok {
		return
	}

	p.detach(node)
	node.freq++
	node.element = p.bucket(node.freq).PushBack(node)
}

func (p *lfuPolicy) onRemove(key string) {
	node, ok := p.nodes[key]
	if !ok {
		return
	}
	p.detach(node)
	delete(p.nodes, key)
}

// detach removes the node from its current bucket, dropping the bucket
// when it empties. minFreq may go stale here; victim() re-advances it.
func (p *lfuPolicy) detach(node *lfuNode) {
	b := p.buckets[node.freq]
	b.Remove(node.element)
	if b.Len() == 0 {
		delete(p.buckets, node.freq)
	}
}

func (p *lfuPolicy) victim() (string, bool) {
	if len(p.nodes) == 0 {
		return "", false
	}

	// Frequencies only ever grow by one, so advancing minFreq until a
	// populated bucket appears is amortized O(1).
	for p.buckets[p.minFreq] == nil {
		p.minFreq++
	}

	return p.buckets[p.minFreq].Front().Value.(*lfuNode).key, true
}

// keys returns all keys ordered from highest frequency to lowest, newest
// promotion first within each bucket, so the next victim is last.
func (p *lfuPolicy) keys() []string {
	freqs := make([]int, 0, len(p.buckets))
	for freq := range p.buckets {
		freqs = append(freqs, freq)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(freqs)))

	keys := make([]string, 0, len(p.nodes))
	for _, freq := range freqs {
		for element := p.buckets[freq].Back(); element != nil; element = element.Prev() {
			keys = append(keys, element.Value.(*lfuNode).key)
		}
	}
	return keys
}

func (p *lfuPolicy) len() int {
	return len(p.nodes)
}

func (p *lfuPolicy) reset() {
	p.nodes = make(map[string]*lfuNode)
	p.buckets = make(map[int]*list.List)
	p.minFreq = 0
}

// newPolicy builds the ordering structure for a policy name. The name is
// assumed to be validated already; unknown names fall back to LRU.
func newPolicy(policy Policy) evictionPolicy {
	switch policy {
	case PolicyLFU:
		return newLFUPolicy()
	case PolicyFIFO:
		return newFIFOPolicy()
	default:
		return newLRUPolicy()
	}
}
