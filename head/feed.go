// Package head provides block observables that report the latest known block
// of a chain: an in-memory feed, a websocket head follower and a polling reader.
package head

import (
	"sync"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
)

// Block identifies an observed chain head.
type Block struct {
	Hash   string
	Number uint64
}

// FromHeader converts a header into a Block.
func FromHeader(h *types.Header) Block {
	b := Block{Hash: h.Hash().Hex()}
	if h.Number != nil {
		b.Number = h.Number.Uint64()
	}
	return b
}

// Feed is an in-memory block observable. It remembers the most recently
// published block and fans every publication out to its subscribers.
// The zero value is ready to use.
type Feed struct {
	feed      event.Feed
	publishMu sync.Mutex // serialises publications

	mu      sync.RWMutex
	current *Block
}

// Publish records b as the current block and delivers it to all subscribers.
// It blocks until every subscriber has accepted the value and returns their number.
// Concurrent publications are delivered one at a time, so the current block is
// always the last one delivered.
func (f *Feed) Publish(b Block) int {
	f.publishMu.Lock()
	defer f.publishMu.Unlock()

	f.mu.Lock()
	f.current = &b
	f.mu.Unlock()

	return f.feed.Send(b)
}

// CurrentBlock returns the last published block, or nil if nothing was published yet.
func (f *Feed) CurrentBlock() *Block {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.current == nil {
		return nil
	}
	b := *f.current
	return &b
}

// SubscribeBlocks registers ch for future publications.
func (f *Feed) SubscribeBlocks(ch chan<- Block) event.Subscription {
	return f.feed.Subscribe(ch)
}
