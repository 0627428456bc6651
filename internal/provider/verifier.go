package provider

import "sync"

// MemoryVerifierStore keeps PKCE verifiers in process memory, mirroring the
// browser client's local storage: verifiers exist only in the context that
// requested the link.
type MemoryVerifierStore struct {
	mu        sync.Mutex
	verifiers map[string]string
}

func NewMemoryVerifierStore() *MemoryVerifierStore {
	return &MemoryVerifierStore{verifiers: make(map[string]string)}
}

func (s *MemoryVerifierStore) Put(code, verifier string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verifiers[code] = verifier
}

// Take removes and returns the verifier for the code. Verifiers are
// single-use; a second Take for the same code reports absent.
func (s *MemoryVerifierStore) Take(code string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.verifiers[code]
	if ok {
		delete(s.verifiers, code)
	}
	return v, ok
}
