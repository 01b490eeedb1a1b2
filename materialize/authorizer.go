package materialize

import (
	"context"

	"github.com/mycok/uResolve/record"
)

// Authorizer decides which property values of a member record may be
// copied into a canonical entity.
type Authorizer interface {
	// Authorize returns the authorized subset of the properties of r.
	Authorize(ctx context.Context, r *record.Record) (record.Properties, error)
}

// AllowAll authorizes every property of every record.
type AllowAll struct{}

// Authorize returns all properties of r.
func (AllowAll) Authorize(_ context.Context, r *record.Record) (record.Properties, error) {
	return r.Properties, nil
}

// CollectionAllowList authorizes, per record collection, a fixed set of
// property types. Records of collections missing from the list contribute
// no properties.
type CollectionAllowList map[string][]string

// Authorize returns the allowed properties of r.
func (l CollectionAllowList) Authorize(_ context.Context, r *record.Record) (record.Properties, error) {
	allowed := make(record.Properties)
	for _, k := range l[r.Collection] {
		if values, exists := r.Properties[k]; exists {
			allowed[k] = values
		}
	}

	return allowed, nil
}
