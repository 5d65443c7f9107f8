// File: internal/browser/harvester.go
package browser

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Harvester tracks in-flight network requests on one tab so WaitNetworkIdle
// can tell when the page has stopped talking.
type Harvester struct {
	sessionCtx  context.Context
	logger      *zap.Logger
	quietPeriod time.Duration

	lock     sync.RWMutex
	inflight map[network.RequestID]struct{}

	cancelListener context.CancelFunc
	isStarted      bool
}

// NewHarvester creates a network tracker for a specific tab context.
func NewHarvester(sessionCtx context.Context, logger *zap.Logger, quietPeriod time.Duration) *Harvester {
	if quietPeriod <= 0 {
		quietPeriod = 1500 * time.Millisecond
	}
	return &Harvester{
		sessionCtx:  sessionCtx,
		logger:      logger.Named("harvester"),
		quietPeriod: quietPeriod,
		inflight:    make(map[network.RequestID]struct{}),
	}
}

// Start enables the network domain and begins consuming events.
func (h *Harvester) Start() error {
	h.lock.Lock()
	defer h.lock.Unlock()
	if h.isStarted {
		return nil
	}

	listenerCtx, cancel := context.WithCancel(h.sessionCtx)
	h.cancelListener = cancel

	chromedp.ListenTarget(listenerCtx, func(ev any) {
		switch e := ev.(type) {
		case *network.EventRequestWillBeSent:
			h.lock.Lock()
			h.inflight[e.RequestID] = struct{}{}
			h.lock.Unlock()
		case *network.EventLoadingFinished:
			h.forget(e.RequestID)
		case *network.EventLoadingFailed:
			h.forget(e.RequestID)
		}
	})

	if err := chromedp.Run(h.sessionCtx, network.Enable()); err != nil {
		cancel()
		return err
	}

	h.isStarted = true
	h.logger.Debug("Harvester started and listening for network events.")
	return nil
}

// Stop detaches the event listener.
func (h *Harvester) Stop() {
	h.lock.Lock()
	defer h.lock.Unlock()
	if !h.isStarted {
		return
	}
	h.cancelListener()
	h.isStarted = false
}

func (h *Harvester) forget(id network.RequestID) {
	h.lock.Lock()
	delete(h.inflight, id)
	h.lock.Unlock()
}

// InflightCount returns the number of requests currently in flight.
func (h *Harvester) InflightCount() int {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return len(h.inflight)
}

// WaitNetworkIdle polls until there have been no in-flight requests for the
// quiet period, or ctx expires.
func (h *Harvester) WaitNetworkIdle(ctx context.Context) error {
	ticker := time.NewTicker(h.quietPeriod / 2)
	defer ticker.Stop()

	lastActivity := time.Now()
	for {
		select {
		case <-ctx.Done():
			h.logger.Debug("WaitNetworkIdle aborted.", zap.Error(ctx.Err()))
			return ctx.Err()
		case <-ticker.C:
			if n := h.InflightCount(); n > 0 {
				lastActivity = time.Now()
				h.logger.Debug("Waiting for network idle.", zap.Int("inflight_requests", n))
			} else if time.Since(lastActivity) >= h.quietPeriod {
				return nil
			}
		}
	}
}
