package dashboard

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Handler translates service events into dashboard broadcasts.
//
// Its methods use only builtin parameter types so the reconcile loop can
// depend on a small callback interface without importing this package's
// wire types. It also keeps running totals and pushes a stats update
// after every completed cycle.
type Handler struct {
	server *Server
	logger *log.Logger

	statsMu sync.Mutex
	stats   StatsData
}

// NewHandler creates a handler that broadcasts to the given server
func NewHandler(server *Server, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		server: server,
		logger: logger,
	}
}

// CycleStarted broadcasts the start of a reconcile cycle
func (h *Handler) CycleStarted(cycle int) {
	h.broadcast(MessageTypeCycleStart, CycleStartData{Cycle: cycle})
}

// CycleFinished broadcasts a completed cycle's counters and updated totals
func (h *Handler) CycleFinished(cycle, scanned, matched, published, skipped, failed int, elapsed time.Duration) {
	h.broadcast(MessageTypeCycleComplete, CycleCompleteData{
		Cycle:     cycle,
		Scanned:   scanned,
		Matched:   matched,
		Published: published,
		Skipped:   skipped,
		Failed:    failed,
		Duration:  elapsed,
	})

	h.statsMu.Lock()
	h.stats.Cycles++
	h.stats.Published += published
	h.stats.Skipped += skipped
	h.stats.Failed += failed
	h.stats.LastCycleAt = time.Now()
	snapshot := h.stats
	h.statsMu.Unlock()

	h.broadcast(MessageTypeStats, snapshot)
}

// PairProcessed broadcasts one pair's outcome
func (h *Handler) PairProcessed(pairKey, meeting, action, noteID, errMsg string) {
	h.broadcast(MessageTypePairEvent, PairEventData{
		PairKey: pairKey,
		Meeting: meeting,
		Action:  action,
		NoteID:  noteID,
		Error:   errMsg,
	})
}

// Stats returns a copy of the running totals
func (h *Handler) Stats() StatsData {
	h.statsMu.Lock()
	defer h.statsMu.Unlock()
	return h.stats
}

// broadcast marshals data and sends a typed message to the server
func (h *Handler) broadcast(msgType MessageType, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		h.logger.Printf("Failed to marshal %s data: %v", msgType, err)
		return
	}

	h.server.Broadcast(Message{
		Type: msgType,
		Data: payload,
	})
}
