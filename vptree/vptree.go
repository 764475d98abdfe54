package vptree

import (
	"container/heap"
	"iter"
	"math"
	"math/rand"
	"sync"

	"github.com/diepinto30/JImageHash/hash"
)

// A vantage point tree over image fingerprints with the hamming distance as
// the metric. Everything in one tree must come from the same hasher
// configuration, mixed algorithm ids would make the distances meaningless.

type Item struct {
	ID   uint
	Hash *hash.Hash
}

// FileMapper hands out item ids and remembers which file each id belongs
// to. Safe to share between the hashing workers.
type FileMapper struct {
	mu    sync.Mutex
	files []string
}

func (m *FileMapper) add(path string) uint {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files = append(m.files, path)
	return uint(len(m.files) - 1)
}

func (m *FileMapper) ByID(id uint) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if int(id) >= len(m.files) {
		return "", false
	}
	return m.files[id], true
}

func NewItem(path string, m *FileMapper, h *hash.Hash) *Item {
	return &Item{ID: m.add(path), Hash: h}
}

// The id check is skipped since tree construction already demands a single
// configuration
func distance(a *Item, b *Item) float64 {
	return float64(a.Hash.HammingFast(b.Hash))
}

type Node struct {
	Item      *Item
	Threshold float64
	Left      *Node
	Right     *Node
}

type VPTree struct {
	root *Node
}

func New(items []*Item) *VPTree {
	t := &VPTree{}
	t.root = t.build(items)
	return t
}

// All walks every item in the tree
func (vp *VPTree) All() iter.Seq[*Item] {
	return func(yield func(*Item) bool) {
		var traverse func(n *Node) bool
		traverse = func(n *Node) bool {
			if n == nil {
				return true
			}
			if !yield(n.Item) {
				return false
			}
			return traverse(n.Left) && traverse(n.Right)
		}
		traverse(vp.root)
	}
}

// Search finds the k nearest items to the target, closest first.
func (vp *VPTree) Search(target *Item, k int) ([]*Item, []float64) {
	var results []*Item
	var distances []float64

	q := make(queue, 0, k)

	tau := math.MaxFloat64
	vp.search(vp.root, tau, target, k, &q)

	for q.Len() > 0 {
		hi := heap.Pop(&q).(*QueueItem)
		results = append(results, hi.item)
		distances = append(distances, hi.dist)
	}

	for i, j := 0, len(results)-1; i < j; i, j = i+1, j-1 {
		results[i], results[j] = results[j], results[i]
		distances[i], distances[j] = distances[j], distances[i]
	}
	return results, distances
}

// Within finds every item closer to the target than the radius, not
// counting the target itself.
func (vp *VPTree) Within(target *Item, radius float64) ([]*Item, []float64) {
	var results []*Item
	var distances []float64

	q := make(queue, 0, 100)

	vp.within(vp.root, radius, target, &q)

	for q.Len() > 0 {
		hi := heap.Pop(&q).(*QueueItem)
		if hi.item.ID != target.ID {
			results = append(results, hi.item)
			distances = append(distances, hi.dist)
		}
	}
	return results, distances
}

func (vp *VPTree) build(items []*Item) *Node {
	// Since this recurses an empty slice can come through here
	if len(items) == 0 {
		return nil
	}

	n := &Node{}
	idx := rand.Intn(len(items))
	n.Item = items[idx]
	items[idx], items = items[len(items)-1], items[:len(items)-1]

	if len(items) > 0 {
		median := len(items) / 2
		pivotDist := distance(items[median], n.Item)
		items[median], items[len(items)-1] = items[len(items)-1], items[median]

		storeIndex := 0
		for i := 0; i < len(items)-1; i++ {
			if distance(items[i], n.Item) <= pivotDist {
				items[storeIndex], items[i] = items[i], items[storeIndex]
				storeIndex++
			}
		}
		items[len(items)-1], items[storeIndex] = items[storeIndex], items[len(items)-1]
		median = storeIndex

		n.Threshold = pivotDist
		n.Left = vp.build(items[:median])
		n.Right = vp.build(items[median:])
	}
	return n
}

func (vp *VPTree) search(n *Node, tau float64, target *Item, k int, q *queue) {
	// Nil marks the end of a branch
	if n == nil {
		return
	}

	dist := distance(n.Item, target)

	// Once full the queue is the source of truth for the search radius,
	// a tau handed down from a sibling branch may be stale
	if q.Len() == k {
		tau = q.Top().(*QueueItem).dist
	}
	if dist < tau {
		if q.Len() == k {
			heap.Pop(q)
		}
		heap.Push(q, &QueueItem{n.Item, dist})
		if q.Len() == k {
			tau = q.Top().(*QueueItem).dist
		}
	}

	if n.Left == nil && n.Right == nil {
		return
	}

	if dist < n.Threshold {
		if dist-tau <= n.Threshold {
			vp.search(n.Left, tau, target, k, q)
		}

		if dist+tau >= n.Threshold {
			vp.search(n.Right, tau, target, k, q)
		}
	} else {
		if dist+tau >= n.Threshold {
			vp.search(n.Right, tau, target, k, q)
		}

		if dist-tau <= n.Threshold {
			vp.search(n.Left, tau, target, k, q)
		}
	}
}

func (vp *VPTree) within(n *Node, tau float64, target *Item, q *queue) {
	// Nil marks the end of a branch
	if n == nil {
		return
	}

	dist := distance(n.Item, target)

	if dist < tau {
		heap.Push(q, &QueueItem{n.Item, dist})
	}

	if n.Left == nil && n.Right == nil {
		return
	}

	if dist < n.Threshold {
		if dist-tau <= n.Threshold {
			vp.within(n.Left, tau, target, q)
		}

		if dist+tau >= n.Threshold {
			vp.within(n.Right, tau, target, q)
		}
	} else {
		if dist+tau >= n.Threshold {
			vp.within(n.Right, tau, target, q)
		}

		if dist-tau <= n.Threshold {
			vp.within(n.Left, tau, target, q)
		}
	}
}
