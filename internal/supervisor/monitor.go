package supervisor

import (
	"context"
	"time"

	"github.com/engine-control/esc/internal/alert"
	"github.com/engine-control/esc/internal/observability"
)

// StartLinkMonitor begins periodic link supervision. Once a link has been
// observed up, a poll that sees it down raises (Warning, CommunicationLoss)
// through the normal escalation path and publishes a linkDown event. The
// initial down state before first association never alarms.
func (s *Supervisor) StartLinkMonitor() {
	s.wg.Add(1)
	go s.linkMonitorLoop()
}

func (s *Supervisor) linkMonitorLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.linkPoll)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.pollOnce()
		}
	}
}

func (s *Supervisor) pollOnce() {
	if !s.radio.IsReady() {
		return
	}

	up := s.radio.LinkStatus()
	observability.SetLinkUp(up)

	s.mu.Lock()
	wasUp := s.lastLink
	ever := s.everLinked
	s.lastLink = up
	if up {
		s.everLinked = true
	}
	s.mu.Unlock()

	switch {
	case up && !wasUp:
		s.hub.Publish("linkUp", nil)
		s.log.Info().Msg("radio link up")
	case !up && wasUp && ever:
		s.hub.Publish("linkDown", nil)
		s.log.Warn().Msg("radio link lost")
		s.raise(context.Background(), alert.SeverityWarning, alert.CodeCommunicationLoss, "link.monitor")
	}
}
