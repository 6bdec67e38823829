package ddp

import (
	"time"

	"github.com/appletalk/ddpcore/common/task"
)

// drainRetryInterval is the re-arm delay for a socket whose references
// have not yet drained (spec.md §5 "deferred by a 10-second timer...
// retried on each expiry until safe").
const drainRetryInterval = 10 * time.Second

// CloseSocket implements spec.md §4.E close. It removes s from the
// socket table immediately, so no new traffic reaches it, and either
// tears it down right away or — if it still has outstanding send
// references in flight — arms a retry timer and closes it once they
// drain (spec.md §3 Lifecycles, §5 "deferred destruction").
func (c *NetCore) CloseSocket(s *Socket) {
	c.Sockets.Remove(s.Local)

	if s.refCount() == 0 {
		drained := s.markClosed()
		for _, p := range drained {
			p.Release()
		}
		return
	}

	c.armDrain(s)
}

func (c *NetCore) armDrain(s *Socket) {
	c.drainMu.Lock()
	if _, already := c.draining[s]; already {
		c.drainMu.Unlock()
		return
	}
	c.draining[s] = 0
	c.drainMu.Unlock()

	p := &task.Periodic{Interval: drainRetryInterval}
	p.Execute = func() error {
		if s.refCount() > 0 {
			return nil
		}
		drained := s.markClosed()
		for _, pkt := range drained {
			pkt.Release()
		}
		c.drainMu.Lock()
		delete(c.draining, s)
		c.drainMu.Unlock()
		p.Close()
		return nil
	}
	p.Start()
}
