package zmakore

import (
	"context"
	"sync"
)

// buildJob is one node in the concurrent build's dependency schedule. A job
// becomes runnable when its pending count drops to zero.
type buildJob struct {
	node    Node
	pending int
	parents []*buildJob
}

// hive fans the runnable jobs out to a fixed number of worker bees. Every
// job runs exactly once; finishing a job may make its parents runnable.
type hive struct {
	mu        sync.Mutex
	more      *sync.Cond
	queue     []*buildJob
	remaining int
	err       error

	ctx context.Context
	do  func(*buildJob) error
}

func newHive(ctx context.Context, remaining int, do func(*buildJob) error) *hive {
	h := &hive{ctx: ctx, remaining: remaining, do: do}
	h.more = sync.NewCond(&h.mu)
	return h
}

func (h *hive) put(j *buildJob) {
	h.queue = append(h.queue, j)
	h.more.Signal()
}

func (h *hive) bee(wg *sync.WaitGroup) {
	defer wg.Done()
	h.mu.Lock()
	for {
		for len(h.queue) == 0 && h.remaining > 0 && h.err == nil {
			h.more.Wait()
		}
		if h.remaining == 0 || h.err != nil {
			h.mu.Unlock()
			h.more.Broadcast()
			return
		}
		j := h.queue[0]
		h.queue = h.queue[1:]
		h.mu.Unlock()

		err := h.do(j)

		h.mu.Lock()
		if err != nil {
			if h.err == nil {
				h.err = err
			}
			continue
		}
		if err := h.ctx.Err(); err != nil {
			if h.err == nil {
				h.err = err
			}
			continue
		}
		h.remaining--
		for _, p := range j.parents {
			p.pending--
			if p.pending == 0 {
				h.put(p)
			}
		}
		if h.remaining == 0 {
			h.more.Broadcast()
		}
	}
}

// concurrentBuild schedules the dep graphs of targets onto Jobs workers.
// The graph is collected single-threaded, then every node is built exactly
// once, after all of its deps.
func (e *Engine) concurrentBuild(ctx context.Context, targets []Node) error {
	jobs := make(map[*File]*buildJob)
	var collect func(n Node) *buildJob
	collect = func(n Node) *buildJob {
		b := n.Base()
		if j := jobs[b]; j != nil {
			return j
		}
		j := &buildJob{node: n}
		jobs[b] = j
		e.forceGeneratingDeps(b)
		for _, d := range b.deps {
			dj := collect(d)
			dj.parents = append(dj.parents, j)
			j.pending++
		}
		return j
	}
	for _, t := range targets {
		collect(t)
	}
	if len(jobs) == 0 {
		return nil
	}
	h := newHive(ctx, len(jobs), func(j *buildJob) error {
		return e.buildOwnedNode(ctx, j.node)
	})
	for _, j := range jobs {
		if j.pending == 0 {
			h.queue = append(h.queue, j)
		}
	}
	var wg sync.WaitGroup
	workers := e.Jobs
	if workers > len(jobs) {
		workers = len(jobs)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go h.bee(&wg)
	}
	wg.Wait()
	return h.err
}
