package identity

import (
	"time"

	"github.com/google/uuid"
)

// NewID returns a freshly generated UUID string in canonical 8-4-4-4-12 form.
func NewID() string {
	return uuid.NewString()
}

// ParseID validates a UUID string, returning its canonical form.
func ParseID(s string) (string, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Base carries the reserved fields every primary record has: "_id",
// "_created" and "_updated".
type Base struct {
	ID      string    `json:"_id"`
	Created time.Time `json:"_created"`
	Updated time.Time `json:"_updated"`
}

// Touch stamps Created (if zero) and always refreshes Updated.
func (b *Base) Touch(now time.Time) {
	if b.Created.IsZero() {
		b.Created = now
	}
	b.Updated = now
}
