package distribute

import "math"

// Closed-form success accounting used to size the default relay count and
// rate-limit interval. None of this runs during a delivery; it exists so
// the configured bound can be validated by test.

// ChunkLossProbability returns the probability that one chunk is lost when
// each of relayCount independent relays fails with probability p. A chunk
// is lost only if every attempt fails: p^R.
func ChunkLossProbability(p float64, relayCount int) float64 {
	return math.Pow(p, float64(relayCount))
}

// IncompleteProbability returns the probability that a report of
// chunkCount chunks is delivered incomplete: 1 - (1 - p^R)^N.
func IncompleteProbability(p float64, relayCount, chunkCount int) float64 {
	perChunkLoss := ChunkLossProbability(p, relayCount)
	return 1 - math.Pow(1-perChunkLoss, float64(chunkCount))
}
