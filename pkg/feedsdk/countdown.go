package feedsdk

import (
	"context"
	"time"
)

// VerificationWindow is how long an emailed verification code stays valid.
// The server enforces it; the client only uses it to drive the countdown.
const VerificationWindow = 180 * time.Second

// Countdown emits the remaining time every interval until the window runs
// out or ctx is cancelled, then closes the channel. The UI layer renders it
// next to the code input; nothing in the session core depends on it.
func Countdown(ctx context.Context, window, interval time.Duration) <-chan time.Duration {
	ch := make(chan time.Duration, 1)

	go func() {
		defer close(ch)

		deadline := time.Now().Add(window)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				remaining := deadline.Sub(now)
				if remaining <= 0 {
					return
				}
				// Drop the stale value if the reader fell behind.
				select {
				case <-ch:
				default:
				}
				ch <- remaining
			}
		}
	}()

	return ch
}
