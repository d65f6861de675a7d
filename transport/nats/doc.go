// Package nats publishes session updates to a NATS broker.
//
// Every change a GameService makes is published as JSON on the subject
// memory.<session>.update, so other processes can follow games without
// holding a WebSocket open:
//
//	nats sub 'memory.*.update'
//
// The publisher is optional and only wired when --nats-url is set.
package nats
