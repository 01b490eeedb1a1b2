/*
	record package defines the candidate entity records that are resolved
	into clusters.
*/

package record

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Properties maps a property type to the values a record holds for it.
type Properties map[string][]string

// Clone returns a deep copy of the property map.
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}

	pCopy := make(Properties, len(p))
	for k, values := range p {
		pCopy[k] = append([]string(nil), values...)
	}

	return pCopy
}

// Keys returns the sorted property types of the map.
func (p Properties) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}

// Union adds every value of other that p does not hold yet. Values keep
// their first-seen order.
func (p Properties) Union(other Properties) {
	for _, k := range other.Keys() {
		existing := p[k]
		seen := make(map[string]struct{}, len(existing))
		for _, v := range existing {
			seen[v] = struct{}{}
		}

		for _, v := range other[k] {
			if _, exists := seen[v]; exists {
				continue
			}

			seen[v] = struct{}{}
			existing = append(existing, v)
		}

		p[k] = existing
	}
}

// Record is a single candidate entity record.
type Record struct {
	// Unique ID of the record.
	ID uuid.UUID

	// Name of the record collection (entity set) the record belongs to.
	Collection string

	// Property values of the record.
	Properties Properties
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	return &Record{
		ID:         r.ID,
		Collection: r.Collection,
		Properties: r.Properties.Clone(),
	}
}

// Text returns the values of all record properties, ordered by property
// type and joined by spaces. It is the content indexed for blocking.
func (r *Record) Text() string {
	var sb strings.Builder
	for _, k := range r.Properties.Keys() {
		for _, v := range r.Properties[k] {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(v)
		}
	}

	return sb.String()
}

// Iterator should be implemented by types that iterate records.
type Iterator interface {
	// Next loads the next item, returns false when no more items
	// are available or when an error occurs.
	Next() bool

	// Error returns the last error encountered by the iterator.
	Error() error

	// Close releases any resources allocated to the iterator.
	Close() error

	// Record returns the currently fetched record.
	Record() *Record
}
