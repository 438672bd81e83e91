package ids

import "github.com/segmentio/ksuid"

// New returns a time-sortable identifier used for users and assets.
func New() string {
	return ksuid.New().String()
}
