package pool

import (
	"cmp"
	"errors"
	"log/slog"
	"math/rand/v2"
	"net"
	"slices"
	"sync"
	"time"
)

// Pool holds idle connections in per-destination LIFO stacks.
// It is safe for concurrent use.
type Pool struct {
	limits        Limits
	unusedTimeout time.Duration
	logger        *slog.Logger
	now           func() time.Time
	rand          *rand.Rand

	mu     sync.Mutex
	stacks map[Key][]entry
	total  int
	timer  *time.Timer
	closed bool
}

// New instantiates a Pool with the provided options. Without options the
// pool is unbounded and never evicts idle connections.
func New(optFns ...Option) (*Pool, error) {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, err
		}
	}

	p := &Pool{
		limits:        opts.limits,
		unusedTimeout: opts.unusedTimeout,
		logger:        slog.Default(),
		now:           time.Now,
		rand:          rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		stacks:        make(map[Key][]entry),
	}

	if opts.logger != nil {
		p.logger = opts.logger
	}
	if opts.now != nil {
		p.now = opts.now
	}
	if opts.rand != nil {
		p.rand = opts.rand
	}

	if p.unusedTimeout > 0 {
		p.mu.Lock()
		p.timer = time.AfterFunc(p.unusedTimeout, p.sweepAndRearm)
		p.mu.Unlock()
	}

	return p, nil
}

// Get removes and returns the most recently returned idle connection for
// the destination, or nil when there is none.
func (p *Pool) Get(host string, port int) net.Conn {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.pop(Key{Host: host, Port: port})
}

// Put returns conn to the pool for reuse with the destination. Connections
// evicted to respect the limits are closed. Putting to a closed pool closes conn.
func (p *Pool) Put(host string, port int, conn net.Conn) {
	if conn == nil {
		return
	}
	key := Key{Host: host, Port: port}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		Dispose(conn, p.logger)
		return
	}

	var evicted []net.Conn
	if limit := p.limits.DestinationSize; limit > 0 {
		for len(p.stacks[key]) >= limit {
			evicted = append(evicted, p.shift(key))
		}
	}
	if limit := p.limits.TotalSize; limit > 0 {
		for p.total >= limit {
			evicted = append(evicted, p.pop(p.randomKey()))
		}
	}

	p.stacks[key] = append(p.stacks[key], entry{conn: conn, putTime: p.now()})
	p.total++
	p.mu.Unlock()

	for _, c := range evicted {
		p.logger.Debug("evicting idle connection", "destination", key.String(), "remote_addr", c.RemoteAddr())
		Dispose(c, p.logger)
	}
}

// Len returns the number of idle connections held.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.total
}

// LenFor returns the number of idle connections held for the destination.
func (p *Pool) LenFor(host string, port int) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.stacks[Key{Host: host, Port: port}])
}

// Close stops the idle sweep and closes every idle connection.
// Connections put after Close are closed immediately.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	if p.timer != nil {
		p.timer.Stop()
	}

	var idle []net.Conn
	for _, stack := range p.stacks {
		for _, e := range stack {
			idle = append(idle, e.conn)
		}
	}
	clear(p.stacks)
	p.total = 0
	p.mu.Unlock()

	var errs []error
	for _, c := range idle {
		_ = Shutdown(c)
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// pop removes the newest entry for key. p.mu must be held.
func (p *Pool) pop(key Key) net.Conn {
	stack := p.stacks[key]
	if len(stack) == 0 {
		return nil
	}

	last := len(stack) - 1
	conn := stack[last].conn
	stack[last] = entry{}
	p.store(key, stack[:last])

	return conn
}

// shift removes the oldest entry for key. p.mu must be held.
func (p *Pool) shift(key Key) net.Conn {
	stack := p.stacks[key]
	conn := stack[0].conn
	p.store(key, slices.Delete(stack, 0, 1))

	return conn
}

func (p *Pool) store(key Key, stack []entry) {
	p.total--
	if len(stack) == 0 {
		delete(p.stacks, key)
		return
	}
	p.stacks[key] = stack
}

// randomKey picks a destination holding idle connections. p.mu must be held
// and the pool must not be empty.
func (p *Pool) randomKey() Key {
	keys := make([]Key, 0, len(p.stacks))
	for k := range p.stacks {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b Key) int {
		return cmp.Or(cmp.Compare(a.Host, b.Host), cmp.Compare(a.Port, b.Port))
	})

	return keys[p.rand.IntN(len(keys))]
}

func (p *Pool) sweepAndRearm() {
	p.sweep(p.now())

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.timer.Reset(p.unusedTimeout)
	}
}

// sweep closes idle connections put more than unusedTimeout before now.
func (p *Pool) sweep(now time.Time) int {
	p.mu.Lock()
	var expired []net.Conn
	for key, stack := range p.stacks {
		kept := stack[:0]
		for _, e := range stack {
			if now.Sub(e.putTime) > p.unusedTimeout {
				expired = append(expired, e.conn)
				continue
			}
			kept = append(kept, e)
		}
		clear(stack[len(kept):])

		if len(kept) == 0 {
			delete(p.stacks, key)
		} else {
			p.stacks[key] = kept
		}
	}
	p.total -= len(expired)
	p.mu.Unlock()

	if len(expired) > 0 {
		p.logger.Debug("closing unused connections", "count", len(expired), "unused_timeout", p.unusedTimeout.String())
	}
	for _, c := range expired {
		Dispose(c, p.logger)
	}

	return len(expired)
}
