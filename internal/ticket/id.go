package ticket

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// MaxID is the highest allocatable ticket number.
const MaxID = 999

var (
	// ErrCorruptID means a stored key does not have the T### shape, so the
	// next id cannot be derived safely.
	ErrCorruptID = errors.New("stored ticket id is malformed")
	// ErrIDSpaceExhausted means T999 has already been allocated.
	ErrIDSpaceExhausted = errors.New("ticket id space exhausted")
)

var idRe = regexp.MustCompile(`^T\d{3}$`)

// ValidID reports whether id has the T### shape.
func ValidID(id string) bool { return idRe.MatchString(id) }

// FormatID renders ticket number n as an id.
func FormatID(n int) string { return fmt.Sprintf("T%03d", n) }

// nextID returns one more than the highest stored number, or T001 when the
// collection is empty. Gaps are never reused.
func nextID(c *Collection) (string, error) {
	highest := 0
	for pair := c.Oldest(); pair != nil; pair = pair.Next() {
		if !ValidID(pair.Key) {
			return "", fmt.Errorf("%w: %q", ErrCorruptID, pair.Key)
		}
		n, _ := strconv.Atoi(pair.Key[1:])
		highest = max(highest, n)
	}
	if highest >= MaxID {
		return "", ErrIDSpaceExhausted
	}
	return FormatID(highest + 1), nil
}
