package bot

import "sync"

// Conversation steps, in acquisition order. The step a session carries
// names the field the bot is waiting for.
const (
	StepChoice        = "inquiry_or_order"
	StepInquiryNumber = "inquiry_number"
	StepName          = "name"
	StepSize          = "size"
	StepAmount        = "amount"
	StepPack          = "pack"
	StepPackQuantity  = "pack_quantity"
	StepType          = "type"
	StepAddress       = "address"
)

// Session accumulates one in-progress order. Each field is written exactly
// once, by the handler of the matching step; only a restart clears them.
type Session struct {
	Step         string
	Name         string
	Size         string
	Amount       string
	Pack         string
	PackQuantity int
	Type         string
	Address      string
}

// SessionStore keeps live sessions in memory, keyed by sender ID. The
// polling loop is the single writer today; the mutex keeps the store safe
// if dispatch is ever parallelized per user.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
	}
}

func (s *SessionStore) Get(userID string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	return sess, ok
}

// Create starts an empty session for a previously unseen user.
func (s *SessionStore) Create(userID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := &Session{Step: StepChoice}
	s.sessions[userID] = sess
	return sess
}

// Reset replaces whatever the user had with a fresh session.
func (s *SessionStore) Reset(userID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := &Session{Step: StepChoice}
	s.sessions[userID] = sess
	return sess
}

// Remove evicts the session after inquiry completion or finalization.
func (s *SessionStore) Remove(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, userID)
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}
