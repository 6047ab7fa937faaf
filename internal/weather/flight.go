package weather

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// flightGroup de-duplicates concurrent identical upstream calls. The shared call runs on a
// context detached from any single caller; it is cancelled only when every waiter has left.
type flightGroup struct {
	group singleflight.Group

	mu    sync.Mutex
	calls map[string]*flightCall
}

type flightCall struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// do runs fn once per key among concurrent callers. shared reports whether the result was
// delivered to more than one caller.
func (g *flightGroup) do(
	ctx context.Context,
	key string,
	fn func(context.Context) (string, error),
) (val string, shared bool, err error) {
	g.mu.Lock()
	if g.calls == nil {
		g.calls = make(map[string]*flightCall)
	}
	c, ok := g.calls[key]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		c = &flightCall{ctx: fctx, cancel: cancel}
		g.calls[key] = c
	}
	c.waiters++
	ch := g.group.DoChan(key, func() (any, error) {
		defer g.release(key, c)
		return fn(c.ctx)
	})
	g.mu.Unlock()

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Shared, res.Err
		}
		return res.Val.(string), res.Shared, nil
	case <-ctx.Done():
		g.leave(key, c)
		return "", false, ctx.Err()
	}
}

// release runs when the shared call has finished.
func (g *flightGroup) release(key string, c *flightCall) {
	g.mu.Lock()
	if g.calls[key] == c {
		delete(g.calls, key)
		g.group.Forget(key)
	}
	g.mu.Unlock()
	c.cancel()
}

// leave drops one waiter; the last one out cancels the shared call so new callers start afresh.
func (g *flightGroup) leave(key string, c *flightCall) {
	g.mu.Lock()
	defer g.mu.Unlock()

	c.waiters--
	if c.waiters > 0 {
		return
	}
	if g.calls[key] == c {
		delete(g.calls, key)
		g.group.Forget(key)
	}
	c.cancel()
}
