package server

import "sync"

// DefaultRecordingLimit is how many agent recordings are kept in memory.
const DefaultRecordingLimit = 32

// RecordingStore keeps the WAV audio of the most recent agent items. The
// oldest recording is evicted once the limit is reached.
type RecordingStore struct {
	mu    sync.RWMutex
	limit int
	wavs  map[string][]byte
	order []string
}

func NewRecordingStore(limit int) *RecordingStore {
	if limit <= 0 {
		limit = DefaultRecordingLimit
	}
	return &RecordingStore{limit: limit, wavs: map[string][]byte{}}
}

// Put stores wav under itemID. It matches the agent audio callback of the
// orchestrator.
func (s *RecordingStore) Put(itemID string, wav []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.wavs[itemID]; !ok {
		s.order = append(s.order, itemID)
	}
	s.wavs[itemID] = wav

	for len(s.order) > s.limit {
		delete(s.wavs, s.order[0])
		s.order = s.order[1:]
	}
}

func (s *RecordingStore) Get(itemID string) ([]byte, bool) {
	if s == nil {
		return nil, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	wav, ok := s.wavs[itemID]
	return wav, ok
}
