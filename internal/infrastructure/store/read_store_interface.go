package store

// ReadStoreInterface is the projection-side storage contract. The projector
// writes through it; the query handler reads through it. Update exists so a
// projection can mutate a model without a read-modify-write race against a
// concurrent consumer.
type ReadStoreInterface interface {
	Set(collection, id string, data any)
	Get(collection, id string) (any, bool)
	GetAll(collection string) []any
	Delete(collection, id string)
	Update(collection, id string, updateFn func(current any) any) bool
}
