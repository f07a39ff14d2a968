// Package distribute implements the rate-limited publish/verify/retry
// loop that places chunk events and gift wraps onto relays.
//
// Each chunk is published to one relay, verified there after a settle
// delay, and on failure advances to the next relay in the ring, up to one
// attempt per relay. Relays are assigned round-robin by chunk index, and
// no relay is posted to twice within its rate-limit window. Exhausted
// chunks are recorded as lost rather than aborting the delivery; the
// manifest still goes out naming every chunk that exists.
package distribute
