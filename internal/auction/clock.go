package auction

import "time"

// Clock supplies the current time to the engine. All time-dependent logic
// goes through an injected Clock so expiry and anti-sniping are testable
// with a manual clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by the wall clock.
func SystemClock() Clock { return systemClock{} }
