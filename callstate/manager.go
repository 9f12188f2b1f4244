// Package callstate keeps the result of a read-only contract call in sync with
// the chain. A Manager re-issues the call whenever a new block is observed or
// the bound contract, method or arguments change, and folds every outcome into
// a State through a single event loop.
package callstate

import (
	"context"
	"sync"
	"time"

	"github.com/HLWGroup/callstate/head"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
)

// blockChanSize is the size of channel listening to block observations.
const blockChanSize = 16

var (
	invokeTimer  = metrics.NewRegisteredTimer("callstate/invoke", nil)
	failureMeter = metrics.NewRegisteredMeter("callstate/failure", nil)
	staleMeter   = metrics.NewRegisteredMeter("callstate/stale", nil)
)

// BlockSource reports the latest known block. *head.Feed satisfies it.
type BlockSource interface {
	CurrentBlock() *head.Block
	SubscribeBlocks(ch chan<- head.Block) event.Subscription
}

type outcome struct {
	gen  uint64
	data []any
	err  error
}

// Manager owns the state of one bound call.
type Manager struct {
	config Config
	log    log.Logger

	blockCh   chan head.Block
	blockSub  event.Subscription
	bindingCh chan Binding
	refreshCh chan struct{}
	outcomeCh chan outcome
	stateReq  chan chan State
	countReq  chan chan uint64

	feed  event.Feed
	scope event.SubscriptionScope

	// Owned by the loop goroutine; readable by others once done is closed.
	state       State
	binding     Binding
	key         bindingKey
	gen         uint64
	invocations uint64

	ctx       context.Context
	cancel    context.CancelFunc
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New creates a manager for binding and starts watching source, which may be nil.
// The source's current block is evaluated first, then the binding is called as
// if it had just changed.
func New(config *Config, source BlockSource, binding Binding) *Manager {
	if config == nil {
		config = &DefaultConfig
	}
	conf := config.sanitize()

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		config:    conf,
		log:       conf.Logger,
		blockCh:   make(chan head.Block, blockChanSize),
		bindingCh: make(chan Binding),
		refreshCh: make(chan struct{}),
		outcomeCh: make(chan outcome),
		stateReq:  make(chan chan State),
		countReq:  make(chan chan uint64),
		state:     initialState(),
		binding:   binding,
		ctx:       ctx,
		cancel:    cancel,
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}

	var current *head.Block
	if source != nil {
		// Subscribe before reading the current block so no head is missed.
		m.blockSub = source.SubscribeBlocks(m.blockCh)
		current = source.CurrentBlock()
	}

	m.wg.Add(1)
	go m.loop(current)
	return m
}

func (m *Manager) loop(current *head.Block) {
	defer m.wg.Done()
	defer close(m.done)

	if current != nil {
		m.observeBlock(*current)
	}
	m.key = keyOf(m.binding)
	m.refresh()

	var subErr <-chan error
	if m.blockSub != nil {
		subErr = m.blockSub.Err()
	}

	for {
		select {
		case b := <-m.blockCh:
			m.observeBlock(b)

		case b := <-m.bindingCh:
			m.setBinding(b)

		case <-m.refreshCh:
			m.refresh()

		case o := <-m.outcomeCh:
			m.settle(o)

		case req := <-m.stateReq:
			req <- m.state.clone()

		case req := <-m.countReq:
			req <- m.invocations

		case err := <-subErr:
			if err != nil {
				m.log.Warn("Block subscription failed", "err", err)
			}
			subErr = nil

		case <-m.quit:
			return
		}
	}
}

// observeBlock refreshes once per distinct block. The refresh is issued before
// the block is recorded so LastUpdatedAt never runs ahead of a request.
func (m *Manager) observeBlock(b head.Block) {
	if b.Hash == "" || b.Hash == m.state.LastUpdatedAt {
		return
	}
	m.log.Trace("Block observed", "number", b.Number, "hash", b.Hash)
	m.refresh()
	m.dispatch(blockObserved{hash: b.Hash})
}

// setBinding always adopts b but only refreshes when its identity changed.
func (m *Manager) setBinding(b Binding) {
	key := keyOf(b)
	m.binding = b
	if key.equal(m.key) {
		return
	}
	m.key = key
	m.refresh()
}

// refresh issues the bound call in the background. Incomplete bindings are ignored.
func (m *Manager) refresh() {
	b := m.binding
	if !b.Complete() {
		return
	}
	m.gen++
	m.invocations++

	m.log.Trace("Issuing call", "contract", b.Contract.Address(), "method", b.Method, "gen", m.gen)
	m.wg.Add(1)
	go m.invoke(m.gen, b)
}

func (m *Manager) invoke(gen uint64, b Binding) {
	defer m.wg.Done()

	start := time.Now()
	data, err := b.Contract.Call(m.ctx, b.Method, b.Args...)
	invokeTimer.UpdateSince(start)

	select {
	case m.outcomeCh <- outcome{gen: gen, data: data, err: err}:
	case <-m.quit:
	}
}

func (m *Manager) settle(o outcome) {
	if m.ctx.Err() != nil {
		// Detached while the call was in flight.
		return
	}
	if m.config.DiscardStale && o.gen != m.gen {
		staleMeter.Mark(1)
		m.log.Debug("Dropping stale call outcome", "gen", o.gen, "latest", m.gen)
		return
	}
	if o.err != nil {
		failureMeter.Mark(1)
		msg := failureMessage(o.err)
		m.log.Debug("Call failed", "method", m.binding.Method, "gen", o.gen, "err", msg)
		m.dispatch(callFailed{message: msg})
		return
	}
	data := o.data
	if data == nil {
		data = []any{}
	}
	m.log.Trace("Call settled", "method", m.binding.Method, "gen", o.gen, "results", len(data))
	m.dispatch(callSucceeded{data: data})
}

// dispatch applies an action and notifies subscribers of the new state.
func (m *Manager) dispatch(a action) {
	m.state = reduce(m.state, a)
	m.feed.Send(m.state.clone())
}

// State returns a snapshot of the current state.
func (m *Manager) State() State {
	req := make(chan State, 1)
	select {
	case m.stateReq <- req:
		return <-req
	case <-m.done:
		return m.state.clone()
	}
}

// Data returns the decoded result of the last successful call.
func (m *Manager) Data() []any { return m.State().Data }

// Loading reports whether the state has not settled yet.
func (m *Manager) Loading() bool { return m.State().Loading }

// Error returns the message of the last failed call.
func (m *Manager) Error() string { return m.State().Error }

// Invocations returns the number of calls issued so far.
func (m *Manager) Invocations() uint64 {
	req := make(chan uint64, 1)
	select {
	case m.countReq <- req:
		return <-req
	case <-m.done:
		return m.invocations
	}
}

// Refresh re-issues the call for the current binding without touching
// LastUpdatedAt. It returns before the call settles.
func (m *Manager) Refresh() {
	select {
	case m.refreshCh <- struct{}{}:
	case <-m.quit:
	}
}

// SetBinding replaces the bound call. A binding whose contract address, method
// or arguments differ from the previous one triggers a refresh.
func (m *Manager) SetBinding(b Binding) {
	select {
	case m.bindingCh <- b:
	case <-m.quit:
	}
}

// Subscribe delivers every state transition to ch. Sends block the manager,
// so ch should be buffered and drained.
func (m *Manager) Subscribe(ch chan<- State) event.Subscription {
	return m.scope.Track(m.feed.Subscribe(ch))
}

// Close detaches the manager from its block source, stops the event loop and
// waits for calls in flight, whose context is cancelled.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		if m.blockSub != nil {
			m.blockSub.Unsubscribe()
		}
		m.scope.Close()
		close(m.quit)
		m.cancel()
		m.wg.Wait()
	})
}
