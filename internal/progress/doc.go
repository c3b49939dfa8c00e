// Package progress converts worker-pool state transitions into ordered,
// consumable event streams for live progress display. Each job gets a
// monotonically increasing sequence number; subscribers joining mid-job
// first receive a synthetic snapshot event reflecting the current
// aggregate state, then a live tail of subsequent events, so a late
// subscriber never misses state. Closing a subscription never affects
// job execution.
package progress
