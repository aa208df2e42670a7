package pin

import "fmt"

// ValidationError signals a malformed PIN submission (not 4 to 6 ASCII
// digits). It maps to a 400 at the edge.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid pin: %s", e.Reason)
}
