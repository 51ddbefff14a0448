// Package annengine implements the approximate-nearest-neighbor index that
// pkg/index wraps. No Go HNSW library is available to build on (hnswlib
// is a C++ extension with no Go port), so this package is a self-contained
// single-layer navigable-small-world graph, built at insert time the way
// HNSW's single-layer base graph is, without the multi-layer skip
// structure. Searches score every stored node (see searchCandidates), so
// query results are exact rather than approximate.
//
// Engine itself is not safe for concurrent use; pkg/lock serializes
// access to it exactly as hnswlib requires upstream.
package annengine

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math"
	"sort"
)

// Space is the distance metric used by an Engine.
type Space string

const (
	SpaceL2     Space = "l2"
	SpaceIP     Space = "ip"
	SpaceCosine Space = "cosine"
)

// ValidSpace reports whether s is one of the allowed distance metrics.
func ValidSpace(s string) bool {
	switch Space(s) {
	case SpaceL2, SpaceIP, SpaceCosine:
		return true
	}
	return false
}

const (
	DefaultEfConstruction = 200
	DefaultM              = 16
	DefaultEf             = 10
)

// Engine is a single ANN index: its graph, its vectors, and its static
// parameters. Zero value is an uninitialized index (M == 0).
type Engine struct {
	Space Space
	Dim   int

	M              int
	EfConstruction int
	Ef             int
	MaxElements    int

	vectors   map[int][]float32
	neighbors map[int][]int
	deleted   map[int]bool
	order     []int // insertion order, for stable GetIds iteration
	entry     int
	hasEntry  bool
}

// New creates an uninitialized engine for the given space and dimension.
func New(space Space, dim int) *Engine {
	return &Engine{
		Space: space,
		Dim:   dim,
	}
}

// Initialized reports whether Init has been called (M != 0).
func (e *Engine) Initialized() bool { return e.M != 0 }

// Init allocates the graph's backing storage and fixes M/efConstruction.
// Returns an error if already initialized.
func (e *Engine) Init(maxElements, efConstruction, m int) error {
	if e.Initialized() {
		return fmt.Errorf("annengine: already initialized")
	}
	if m <= 0 {
		m = DefaultM
	}
	if efConstruction <= 0 {
		efConstruction = DefaultEfConstruction
	}
	e.MaxElements = maxElements
	e.EfConstruction = efConstruction
	e.M = m
	e.Ef = DefaultEf
	e.vectors = make(map[int][]float32, maxElements)
	e.neighbors = make(map[int][]int, maxElements)
	e.deleted = make(map[int]bool)
	e.order = make([]int, 0, maxElements)
	return nil
}

// SetEf sets the query-time search breadth.
func (e *Engine) SetEf(ef int) error {
	if !e.Initialized() {
		return fmt.Errorf("annengine: not initialized")
	}
	e.Ef = ef
	return nil
}

// Resize grows or shrinks the index capacity, preserving live items. If
// newCapacity is smaller than the current element count (live and
// logically deleted rows together), behavior is library-defined: elements
// beyond the new capacity are dropped, oldest insertion order first,
// matching hnswlib's documented data-loss warning.
func (e *Engine) Resize(newCapacity int) error {
	if !e.Initialized() {
		return fmt.Errorf("annengine: not initialized")
	}
	e.MaxElements = newCapacity
	for len(e.order) > newCapacity {
		id := e.order[0]
		e.order = e.order[1:]
		delete(e.vectors, id)
		delete(e.neighbors, id)
		delete(e.deleted, id)
	}
	// Drop graph references to removed nodes so searches never visit them.
	for id, nbs := range e.neighbors {
		kept := nbs[:0]
		for _, nb := range nbs {
			if _, ok := e.vectors[nb]; ok {
				kept = append(kept, nb)
			}
		}
		e.neighbors[id] = kept
	}
	if _, ok := e.vectors[e.entry]; !ok {
		e.hasEntry = len(e.order) > 0
		if e.hasEntry {
			e.entry = e.order[0]
		}
	}
	return nil
}

// GetMaxElements returns the configured capacity.
func (e *Engine) GetMaxElements() int { return e.MaxElements }

// GetCurrentCount returns the number of distinct labels currently stored
// (live + logically deleted). Logical deletes and re-adding an existing
// label leave it unchanged; a Resize below it drops the oldest rows and
// lowers it.
func (e *Engine) GetCurrentCount() int { return len(e.order) }

// liveCount returns the number of rows not marked deleted.
func (e *Engine) liveCount() int {
	n := 0
	for _, id := range e.order {
		if !e.deleted[id] {
			n++
		}
	}
	return n
}

// Add inserts rows with the given integer labels. Fails if there is not
// enough remaining capacity, if any row's width doesn't match Dim, or if
// the engine is uninitialized.
func (e *Engine) Add(data [][]float32, ids []int) error {
	if !e.Initialized() {
		return fmt.Errorf("annengine: not initialized")
	}
	if len(data) != len(ids) {
		return fmt.Errorf("annengine: data/ids length mismatch: %d vs %d", len(data), len(ids))
	}
	for _, row := range data {
		if len(row) != e.Dim {
			return &dimErr{expected: e.Dim, got: len(row)}
		}
	}
	remaining := e.MaxElements - len(e.order)
	if len(data) > remaining {
		return &capErr{wouldBe: len(e.order) + len(data), max: e.MaxElements}
	}

	for i, row := range data {
		id := ids[i]
		vec := make([]float32, len(row))
		copy(vec, row)
		isNew := true
		if _, exists := e.vectors[id]; exists {
			isNew = false
		}
		e.vectors[id] = vec
		delete(e.deleted, id)
		if isNew {
			e.order = append(e.order, id)
			e.linkNode(id)
		}
	}
	return nil
}

// linkNode connects a freshly-added node to its M nearest already-present
// neighbors, taken from the efConstruction closest nodes that
// searchCandidates returns — the construction-time step of a
// navigable-small-world graph.
func (e *Engine) linkNode(id int) {
	candidates := e.searchCandidates(e.vectors[id], e.EfConstruction, id)
	m := e.M
	if m > len(candidates) {
		m = len(candidates)
	}
	neighbors := make([]int, 0, m)
	for i := 0; i < m; i++ {
		nb := candidates[i].id
		neighbors = append(neighbors, nb)
		e.neighbors[nb] = appendUnique(e.neighbors[nb], id)
	}
	e.neighbors[id] = neighbors

	if !e.hasEntry {
		e.entry = id
		e.hasEntry = true
	}
}

func appendUnique(list []int, v int) []int {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}

type scored struct {
	id   int
	dist float32
}

// searchCandidates walks breadth-first from the current entry point
// through neighbor lists, scoring every reachable node without pruning by
// distance, then scores any node the walk did not reach, and returns up to
// ef closest nodes to query, sorted by distance. Every stored node is
// scored, so results are exact; ef bounds only how many are returned, not
// how many are visited. exclude, if >= 0, omits that id from the results
// (used while linking a node to itself).
func (e *Engine) searchCandidates(query []float32, ef int, exclude int) []scored {
	if len(e.order) == 0 || !e.hasEntry {
		return nil
	}
	visited := make(map[int]bool)
	best := make(map[int]float32)

	start := e.entry
	visited[start] = true
	best[start] = e.distance(query, e.vectors[start])

	frontier := []int{start}
	for len(frontier) > 0 {
		next := frontier[0]
		frontier = frontier[1:]
		for _, nb := range e.neighbors[next] {
			if visited[nb] {
				continue
			}
			visited[nb] = true
			best[nb] = e.distance(query, e.vectors[nb])
			frontier = append(frontier, nb)
		}
	}

	// Cold graph or disconnected components: fall back to a brute-force
	// scan so correctness never depends on graph connectivity.
	for _, id := range e.order {
		if _, ok := best[id]; !ok {
			best[id] = e.distance(query, e.vectors[id])
		}
	}

	out := make([]scored, 0, len(best))
	for id, d := range best {
		if id == exclude {
			continue
		}
		out = append(out, scored{id: id, dist: d})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].dist < out[j].dist })
	if ef > 0 && len(out) > ef {
		out = out[:ef]
	}
	return out
}

func (e *Engine) distance(a, b []float32) float32 {
	switch e.Space {
	case SpaceIP:
		var dot float32
		for i := range a {
			dot += a[i] * b[i]
		}
		return -dot
	case SpaceCosine:
		var dot, na, nb float32
		for i := range a {
			dot += a[i] * b[i]
			na += a[i] * a[i]
			nb += b[i] * b[i]
		}
		if na == 0 || nb == 0 {
			return 1
		}
		return 1 - dot/float32(math.Sqrt(float64(na))*math.Sqrt(float64(nb)))
	default: // SpaceL2
		var sum float32
		for i := range a {
			d := a[i] - b[i]
			sum += d * d
		}
		return sum
	}
}

// Query returns (labels, distances), one row per input vector, for the k
// nearest live (not mark-deleted) neighbors.
func (e *Engine) Query(vectors [][]float32, k int) ([][]int, [][]float32, error) {
	if !e.Initialized() {
		return nil, nil, fmt.Errorf("annengine: not initialized")
	}
	labels := make([][]int, len(vectors))
	dists := make([][]float32, len(vectors))
	for qi, q := range vectors {
		if len(q) != e.Dim {
			return nil, nil, &dimErr{expected: e.Dim, got: len(q)}
		}
		candidates := e.searchCandidates(q, e.Ef+k, -1)
		row := make([]scored, 0, len(candidates))
		for _, c := range candidates {
			if e.deleted[c.id] {
				continue
			}
			row = append(row, c)
		}
		sort.Slice(row, func(i, j int) bool { return row[i].dist < row[j].dist })
		if len(row) > k {
			row = row[:k]
		}
		l := make([]int, len(row))
		d := make([]float32, len(row))
		for i, c := range row {
			l[i] = c.id
			d[i] = c.dist
		}
		labels[qi] = l
		dists[qi] = d
	}
	return labels, dists, nil
}

// MarkDeleted logically excludes a label from future query results
// without reclaiming capacity.
func (e *Engine) MarkDeleted(label int) error {
	if !e.Initialized() {
		return fmt.Errorf("annengine: not initialized")
	}
	if _, ok := e.vectors[label]; !ok {
		return &unknownLabelErr{label: label}
	}
	e.deleted[label] = true
	return nil
}

// GetItems returns the row vectors for the given labels.
func (e *Engine) GetItems(ids []int) ([][]float32, error) {
	out := make([][]float32, len(ids))
	for i, id := range ids {
		v, ok := e.vectors[id]
		if !ok {
			return nil, &unknownLabelErr{label: id}
		}
		cp := make([]float32, len(v))
		copy(cp, v)
		out[i] = cp
	}
	return out, nil
}

// GetIds returns all live (not mark-deleted) labels in insertion order.
func (e *Engine) GetIds() []int {
	out := make([]int, 0, len(e.order))
	for _, id := range e.order {
		if !e.deleted[id] {
			out = append(out, id)
		}
	}
	return out
}

// gobState is the serializable snapshot of an Engine's internal state.
type gobState struct {
	Space          Space
	Dim            int
	M              int
	EfConstruction int
	Ef             int
	MaxElements    int
	Vectors        map[int][]float32
	Neighbors      map[int][]int
	Deleted        map[int]bool
	Order          []int
	Entry          int
	HasEntry       bool
}

// Save serializes the engine's full state to an opaque binary payload.
func (e *Engine) Save() ([]byte, error) {
	st := gobState{
		Space:          e.Space,
		Dim:            e.Dim,
		M:              e.M,
		EfConstruction: e.EfConstruction,
		Ef:             e.Ef,
		MaxElements:    e.MaxElements,
		Vectors:        e.vectors,
		Neighbors:      e.neighbors,
		Deleted:        e.deleted,
		Order:          e.order,
		Entry:          e.entry,
		HasEntry:       e.hasEntry,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(st); err != nil {
		return nil, fmt.Errorf("annengine: save: %w", err)
	}
	return buf.Bytes(), nil
}

// Load replaces the engine's state with a previously Saved snapshot.
func (e *Engine) Load(data []byte) error {
	var st gobState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&st); err != nil {
		return fmt.Errorf("annengine: load: %w", err)
	}
	e.Space = st.Space
	e.Dim = st.Dim
	e.M = st.M
	e.EfConstruction = st.EfConstruction
	e.Ef = st.Ef
	e.MaxElements = st.MaxElements
	e.vectors = st.Vectors
	e.neighbors = st.Neighbors
	e.deleted = st.Deleted
	e.order = st.Order
	e.entry = st.Entry
	e.hasEntry = st.HasEntry
	if e.vectors == nil {
		e.vectors = make(map[int][]float32)
	}
	if e.neighbors == nil {
		e.neighbors = make(map[int][]int)
	}
	if e.deleted == nil {
		e.deleted = make(map[int]bool)
	}
	return nil
}

type dimErr struct{ expected, got int }

func (e *dimErr) Error() string {
	return fmt.Sprintf("annengine: dimension mismatch: expected %d, got %d", e.expected, e.got)
}

// Dimensions returns the (expected, got) pair of a dimension mismatch, if
// err is one.
func Dimensions(err error) (expected, got int, ok bool) {
	if de, is := err.(*dimErr); is {
		return de.expected, de.got, true
	}
	return 0, 0, false
}

type capErr struct{ wouldBe, max int }

func (e *capErr) Error() string {
	return fmt.Sprintf("annengine: capacity exceeded: would be %d, max %d", e.wouldBe, e.max)
}

// Capacity returns the (wouldBe, max) pair of a capacity-exceeded error,
// if err is one.
func Capacity(err error) (wouldBe, max int, ok bool) {
	if ce, is := err.(*capErr); is {
		return ce.wouldBe, ce.max, true
	}
	return 0, 0, false
}

type unknownLabelErr struct{ label int }

func (e *unknownLabelErr) Error() string {
	return fmt.Sprintf("annengine: unknown label %d", e.label)
}

// UnknownLabel returns the label of an unknown-label error, if err is one.
func UnknownLabel(err error) (label int, ok bool) {
	if ue, is := err.(*unknownLabelErr); is {
		return ue.label, true
	}
	return 0, false
}
