package head

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
)

const (
	// DefaultPollInterval is used when a Poller is created with a zero interval.
	DefaultPollInterval = 4 * time.Second

	pollTimeout = 10 * time.Second
)

var ErrNoHeader = errors.New("no header returned")

// HeaderReader is satisfied by *ethclient.Client over any transport.
type HeaderReader interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// Poller reads the latest header at a fixed interval and publishes it into a
// Feed whenever the head hash changed. It serves endpoints without subscriptions.
type Poller struct {
	reader   HeaderReader
	feed     *Feed
	interval time.Duration
	log      log.Logger

	last string // hash of the last published head, owned by the polling goroutine

	quit     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewPoller creates a poller publishing into feed.
func NewPoller(reader HeaderReader, feed *Feed, interval time.Duration, logger log.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = log.Root()
	}
	return &Poller{
		reader:   reader,
		feed:     feed,
		interval: interval,
		log:      logger.New("component", "head-poller"),
		quit:     make(chan struct{}),
	}
}

// Poll fetches the latest header once and publishes it if its hash is new.
// It must not be called concurrently with a started poller.
func (p *Poller) Poll(ctx context.Context) (Block, error) {
	h, err := p.reader.HeaderByNumber(ctx, nil)
	if err != nil {
		return Block{}, err
	}
	if h == nil {
		return Block{}, ErrNoHeader
	}

	b := FromHeader(h)
	if b.Hash != p.last {
		p.last = b.Hash
		p.feed.Publish(b)
	}
	return b, nil
}

// Start polls immediately and then once per interval.
func (p *Poller) Start() {
	p.wg.Add(1)
	go p.loop()
}

// Stop terminates the poller and waits for it to exit. It is safe to call more than once.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		close(p.quit)
		p.wg.Wait()
	})
}

func (p *Poller) loop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.pollOnce()

		select {
		case <-p.quit:
			return
		case <-ticker.C:
		}
	}
}

func (p *Poller) pollOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), pollTimeout)
	defer cancel()

	go func() {
		select {
		case <-p.quit:
			cancel()
		case <-ctx.Done():
		}
	}()

	if _, err := p.Poll(ctx); err != nil {
		p.log.Debug("Failed to poll chain head", "err", err)
	}
}
