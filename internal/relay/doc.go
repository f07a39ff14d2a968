// Package relay defines the publish/query capability the distribution
// engine consumes, and a websocket implementation of it.
//
// The engine only needs two primitives from a relay: publish-event and
// query-by-id-and-kind (used for post-publish verification). Tests supply
// in-memory fakes; production uses the websocket client.
package relay
