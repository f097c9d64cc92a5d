package poll

import (
	"testing"
	"time"
)

func TestBackoff(t *testing.T) {
	cases := []struct {
		base     time.Duration
		max      time.Duration
		failures int
		want     time.Duration
	}{
		{2 * time.Second, 5 * time.Second, 0, 2 * time.Second},
		{2 * time.Second, 5 * time.Second, 1, 4 * time.Second},
		{2 * time.Second, 5 * time.Second, 2, 5 * time.Second},
		{2 * time.Second, 5 * time.Second, 10, 5 * time.Second},
		{3 * time.Second, 60 * time.Second, 3, 24 * time.Second},
		{0, 0, 0, time.Second},
		{10 * time.Second, time.Second, 0, 10 * time.Second},
	}
	for _, tc := range cases {
		if got := backoff(tc.base, tc.max, tc.failures); got != tc.want {
			t.Errorf("backoff(%v, %v, %d) = %v, want %v", tc.base, tc.max, tc.failures, got, tc.want)
		}
	}
}
