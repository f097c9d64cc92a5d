package poll

import "time"

// backoff doubles a base delay per consecutive failure, capped at max. A
// zero streak returns the base unchanged.
func backoff(base, max time.Duration, failures int) time.Duration {
	if base <= 0 {
		base = time.Second
	}
	if max < base {
		max = base
	}
	delay := base
	for i := 0; i < failures; i++ {
		delay *= 2
		if delay >= max {
			return max
		}
	}
	return delay
}
