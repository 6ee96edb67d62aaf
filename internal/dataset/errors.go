package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateID reports an id already used in the same collection.
	ErrDuplicateID = errors.New("duplicate id")
	// ErrInvalidRecord reports a record with a missing or unparsable field.
	ErrInvalidRecord = errors.New("invalid record")
	// ErrUnknownReference reports a route relation naming a missing hazard or shelter.
	ErrUnknownReference = errors.New("unknown reference")
)

// Collection names one of the three entity collections.
type Collection string

// Collections of the data model.
const (
	CollectionHazards  Collection = "hazards"
	CollectionShelters Collection = "shelters"
	CollectionRoutes   Collection = "routes"
)

// Rejection describes an entity that failed validation at load time.
type Rejection struct {
	Err        error
	Collection Collection
	ID         int
}

func (r Rejection) Error() string {
	return fmt.Sprintf("%s[id=%d]: %v", r.Collection, r.ID, r.Err)
}

func (r Rejection) Unwrap() error {
	return r.Err
}

// Report lists the problems found while loading a dataset.
type Report struct {
	Rejected []Rejection
}

// Err joins all rejections, or returns nil when the load was clean.
func (r Report) Err() error {
	if len(r.Rejected) == 0 {
		return nil
	}

	errs := make([]error, 0, len(r.Rejected))
	for _, rej := range r.Rejected {
		errs = append(errs, rej)
	}

	return errors.Join(errs...)
}

func (r *Report) reject(c Collection, id int, err error) {
	r.Rejected = append(r.Rejected, Rejection{Collection: c, ID: id, Err: err})
}
