package graph

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// VertexKey identifies a vertex inside a single clustering graph. Keys are
// immutable and only comparable with keys that belong to the same graph.
type VertexKey struct {
	GraphID  uuid.UUID
	VertexID uuid.UUID
}

// NewVertexKey returns a key for vertexID in the graph identified by graphID.
func NewVertexKey(graphID, vertexID uuid.UUID) VertexKey {
	return VertexKey{GraphID: graphID, VertexID: vertexID}
}

// Compare orders two keys of the same graph by their vertex ID bytes. It
// returns ErrCrossGraphComparison if the keys belong to different graphs.
func (k VertexKey) Compare(other VertexKey) (int, error) {
	if k.GraphID != other.GraphID {
		return 0, fmt.Errorf(
			"compare %s with %s: %w", k, other, ErrCrossGraphComparison,
		)
	}

	return bytes.Compare(k.VertexID[:], other.VertexID[:]), nil
}

// String returns a "graphID/vertexID" representation of the key.
func (k VertexKey) String() string {
	return k.GraphID.String() + "/" + k.VertexID.String()
}

// Vertex is a cluster of one or more original records.
type Vertex struct {
	// Largest pairwise distance realized inside the cluster so far. It is
	// zero for singleton vertices.
	Diameter float64

	// IDs of the original records folded into this vertex, kept sorted.
	Members []uuid.UUID
}

// NewSingletonVertex returns a vertex holding a single record.
func NewSingletonVertex(recordID uuid.UUID) *Vertex {
	return &Vertex{Members: []uuid.UUID{recordID}}
}

// MergeVertices returns a new vertex whose members are the union of the
// members of a and b and whose diameter is set to the provided value.
func MergeVertices(a, b *Vertex, diameter float64) *Vertex {
	seen := make(map[uuid.UUID]struct{}, len(a.Members)+len(b.Members))
	members := make([]uuid.UUID, 0, len(a.Members)+len(b.Members))

	for _, list := range [][]uuid.UUID{a.Members, b.Members} {
		for _, id := range list {
			if _, exists := seen[id]; exists {
				continue
			}

			seen[id] = struct{}{}
			members = append(members, id)
		}
	}

	sortIDs(members)

	return &Vertex{Diameter: diameter, Members: members}
}

// Clone returns a deep copy of the vertex.
func (v *Vertex) Clone() *Vertex {
	return &Vertex{
		Diameter: v.Diameter,
		Members:  append([]uuid.UUID(nil), v.Members...),
	}
}

// Edge is an undirected pair of vertices of the same graph. The endpoints
// are stored in canonical order so (a, b) and (b, a) are equal values.
type Edge struct {
	A VertexKey
	B VertexKey
}

// NewEdge returns the canonical edge between a and b. Both endpoints must
// belong to the same graph and must differ.
func NewEdge(a, b VertexKey) (Edge, error) {
	cmp, err := a.Compare(b)
	if err != nil {
		return Edge{}, fmt.Errorf("new edge: %w", err)
	}

	switch {
	case cmp == 0:
		return Edge{}, fmt.Errorf("new edge %s: %w", a, ErrSelfEdge)
	case cmp > 0:
		a, b = b, a
	}

	return Edge{A: a, B: b}, nil
}

// MustEdge is like NewEdge but panics on invalid endpoints.
func MustEdge(a, b VertexKey) Edge {
	e, err := NewEdge(a, b)
	if err != nil {
		panic(err)
	}

	return e
}

// GraphID returns the ID of the graph both endpoints belong to.
func (e Edge) GraphID() uuid.UUID { return e.A.GraphID }

// Other returns the endpoint opposite to k.
func (e Edge) Other(k VertexKey) VertexKey {
	if e.A == k {
		return e.B
	}

	return e.A
}

// String returns a human readable representation of the edge.
func (e Edge) String() string {
	return fmt.Sprintf("(%s, %s)@%s", e.A.VertexID, e.B.VertexID, e.A.GraphID)
}

// WeightedEdge annotates an edge with a distance. Lower weights mean more
// similar endpoints.
type WeightedEdge struct {
	Edge
	Weight float64
}

// NewWeightedEdge returns the canonical weighted edge between a and b.
func NewWeightedEdge(a, b VertexKey, weight float64) (WeightedEdge, error) {
	e, err := NewEdge(a, b)
	if err != nil {
		return WeightedEdge{}, err
	}

	return WeightedEdge{Edge: e, Weight: weight}, nil
}

// Less reports whether e sorts before other: by weight first and then by
// the smaller and the larger endpoint. Edges of different graphs are
// ordered by graph ID so that Less is a total order.
func (e WeightedEdge) Less(other WeightedEdge) bool {
	if e.Weight != other.Weight {
		return e.Weight < other.Weight
	}

	if c := bytes.Compare(e.A.GraphID[:], other.A.GraphID[:]); c != 0 {
		return c < 0
	}

	if c := bytes.Compare(e.A.VertexID[:], other.A.VertexID[:]); c != 0 {
		return c < 0
	}

	return bytes.Compare(e.B.VertexID[:], other.B.VertexID[:]) < 0
}

// LessOrEqual reports whether e sorts before or at the same position as other.
func (e WeightedEdge) LessOrEqual(other WeightedEdge) bool {
	return !other.Less(e)
}

// Neighbor is a weighted reference from a vertex to one of its neighbors.
type Neighbor struct {
	Key    VertexKey
	Weight float64
}

// SortNeighbors sorts a neighbor list by weight and then by vertex ID.
func SortNeighbors(list []Neighbor) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Weight != list[j].Weight {
			return list[i].Weight < list[j].Weight
		}

		return bytes.Compare(list[i].Key.VertexID[:], list[j].Key.VertexID[:]) < 0
	})
}

func sortIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
}
