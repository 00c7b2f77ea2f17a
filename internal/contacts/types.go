package contacts

import "time"

// Contact is a canonical contact record. Phone is the stable unique key.
type Contact struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayName returns the contact's full name used for matching.
func (c Contact) DisplayName() string {
	return c.FirstName + " " + c.LastName
}

// Record is one row of a bulk-load source, in source order.
type Record struct {
	FirstName string
	LastName  string
	Phone     string
}

// LoadResult reports the outcome of a bulk load.
type LoadResult struct {
	AlreadyPopulated bool
	SourceMissing    bool
	Loaded           int
	Skipped          int
}
