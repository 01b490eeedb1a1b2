package cluster

// State describes the progress of a driver through a clustering run.
type State uint32

const (
	// Seeded means every record has been inserted as a singleton vertex
	// and no edge has been drained yet.
	Seeded State = iota

	// Draining means the driver is extracting edges from the edge source.
	Draining

	// Merging means the driver is folding the endpoints of an edge into a
	// new vertex.
	Merging

	// Complete means the edge source has been exhausted.
	Complete
)

func (s State) String() string {
	switch s {
	case Seeded:
		return "SEEDED"
	case Draining:
		return "DRAINING"
	case Merging:
		return "MERGING"
	case Complete:
		return "COMPLETE"
	default:
		return "UNKNOWN"
	}
}
