package head

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"
)

const (
	// headChanSize is the size of channel listening to new head notifications.
	headChanSize = 16

	// DefaultResubscribeBackoff caps the wait between head subscription attempts.
	DefaultResubscribeBackoff = 10 * time.Second
)

// HeadSubscriber is satisfied by *ethclient.Client over a websocket or IPC endpoint.
type HeadSubscriber interface {
	SubscribeNewHead(ctx context.Context, ch chan<- *types.Header) (ethereum.Subscription, error)
}

// Follower republishes the chain head notifications of a node into a Feed.
// A dropped head subscription is re-established with backoff.
type Follower struct {
	subscriber HeadSubscriber
	feed       *Feed
	backoff    time.Duration
	log        log.Logger

	quit     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewFollower creates a follower publishing into feed. A nil logger uses the root logger.
func NewFollower(subscriber HeadSubscriber, feed *Feed, logger log.Logger) *Follower {
	if logger == nil {
		logger = log.Root()
	}
	return &Follower{
		subscriber: subscriber,
		feed:       feed,
		backoff:    DefaultResubscribeBackoff,
		log:        logger.New("component", "head-follower"),
		quit:       make(chan struct{}),
	}
}

// Start begins following the chain head.
func (f *Follower) Start() {
	f.wg.Add(1)
	go f.loop()
}

// Stop terminates the follower and waits for it to exit. It is safe to call more than once.
func (f *Follower) Stop() {
	f.stopOnce.Do(func() {
		close(f.quit)
		f.wg.Wait()
	})
}

func (f *Follower) loop() {
	defer f.wg.Done()

	headers := make(chan *types.Header, headChanSize)
	sub := event.Resubscribe(f.backoff, func(ctx context.Context) (event.Subscription, error) {
		s, err := f.subscriber.SubscribeNewHead(ctx, headers)
		if err != nil {
			f.log.Warn("Head subscription failed", "err", err)
			return nil, err
		}
		f.log.Debug("Subscribed to chain head")
		return s, nil
	})
	defer sub.Unsubscribe()

	for {
		select {
		case <-f.quit:
			return
		case h := <-headers:
			b := FromHeader(h)
			f.log.Trace("New chain head", "number", b.Number, "hash", b.Hash)
			f.feed.Publish(b)
		}
	}
}
