// Package datacron keeps the latest result of a periodically refreshed fetch
// available to any number of readers.
//
// A Cron fires its fetch immediately on Connect and then once per interval.
// Fetches are never serialized against each other: every tick starts a new
// fetch, and the cached value is overwritten by whichever fetch completes last.
//
// Components:
//   - Ticker: emits ticks 0, 1, 2 ... on an injected clockwork.Clock, the first at connect time.
//   - Refresher: one goroutine per tick calling the FetchFunc.
//   - Slot: single-value replay buffer plus the queue of waiting readers.
//   - Request: one-shot read; buffered value now, or wait for the first push.
//   - Mirror: optional write-through copy of every applied value (see package mirror).
//
// Usage:
//
//	c, _ := datacron.New(fetchRates, datacron.Options[Rates]{Interval: time.Minute})
//	conn := c.Connect()
//	defer conn.Disconnect()
//
//	rates, err := c.Request(ctx) // waits for the first fetch if needed
package datacron
