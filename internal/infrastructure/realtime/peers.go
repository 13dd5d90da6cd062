package realtime

import "sync"

// PeerDirectory maps sessions to their signaling peer identifiers.
// A re-register overwrites the previous value; last write wins.
type PeerDirectory struct {
	mu    sync.RWMutex
	peers map[string]string
}

func NewPeerDirectory() *PeerDirectory {
	return &PeerDirectory{peers: make(map[string]string)}
}

func (p *PeerDirectory) Register(sessionID, peerID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.peers[sessionID] = peerID
}

func (p *PeerDirectory) Get(sessionID string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	id, ok := p.peers[sessionID]
	return id, ok
}

func (p *PeerDirectory) Remove(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.peers, sessionID)
}
