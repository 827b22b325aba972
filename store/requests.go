package store

import (
	"sync"

	"github.com/signalsfoundry/spectrum-deconfliction/model"
)

// RequestStore keeps the history of deconfliction requests and their
// decisions, keyed by request id. Requests are audit records; they are
// never committed directly. Storing a decision for an already-decided
// request id overwrites the previous decision.
type RequestStore struct {
	mu        sync.RWMutex
	requests  map[string]*model.DeconflictionRequest
	decisions map[string]*model.Decision
}

// NewRequestStore constructs an empty store.
func NewRequestStore() *RequestStore {
	return &RequestStore{
		requests:  make(map[string]*model.DeconflictionRequest),
		decisions: make(map[string]*model.Decision),
	}
}

// AddRequest records a submitted request.
func (s *RequestStore) AddRequest(req *model.DeconflictionRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[req.RequestID] = req
}

// AddDecision records (or overwrites) the decision for a request.
func (s *RequestStore) AddDecision(d *model.Decision) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisions[d.RequestID] = d
}

// GetRequest returns a request by id, or nil.
func (s *RequestStore) GetRequest(id string) *model.DeconflictionRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.requests[id]
}

// GetDecision returns the decision for a request id, or nil.
func (s *RequestStore) GetDecision(requestID string) *model.Decision {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.decisions[requestID]
}

// AllRequests returns a snapshot of every recorded request.
func (s *RequestStore) AllRequests() []*model.DeconflictionRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]*model.DeconflictionRequest, 0, len(s.requests))
	for _, r := range s.requests {
		res = append(res, r)
	}
	return res
}

// ByAsset returns all requests submitted by one asset.
func (s *RequestStore) ByAsset(assetID string) []*model.DeconflictionRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var res []*model.DeconflictionRequest
	for _, r := range s.requests {
		if r.AssetID == assetID {
			res = append(res, r)
		}
	}
	return res
}

// Pending returns requests that have no decision yet.
func (s *RequestStore) Pending() []*model.DeconflictionRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var res []*model.DeconflictionRequest
	for id, r := range s.requests {
		if _, decided := s.decisions[id]; !decided {
			res = append(res, r)
		}
	}
	return res
}

// CountByPriority returns how many recorded requests carry the given
// priority. The policy engine uses this for the FLASH quota.
func (s *RequestStore) CountByPriority(p model.Priority) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, r := range s.requests {
		if r.Priority == p {
			n++
		}
	}
	return n
}

// FindAuthorization resolves an authorization id to its APPROVED decision,
// or nil when the id is unknown or the decision is not an approval.
// Authorization ids are not consumed by this lookup: the same id resolves
// again on a later call. Single-use tokens are an accepted gap in this
// prototype.
func (s *RequestStore) FindAuthorization(authorizationID string) *model.Decision {
	if authorizationID == "" {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.decisions {
		if d.AuthorizationID == authorizationID && d.Status == model.StatusApproved {
			return d
		}
	}
	return nil
}
