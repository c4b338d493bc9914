package services

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shipra-ai/shipra-backend/internal/models"
)

// DefaultSessionTTL is how long a session may sit idle before it expires
const DefaultSessionTTL = 24 * time.Hour

// DefaultHistoryLimit caps conversation history lookups when the caller
// does not supply a limit
const DefaultHistoryLimit = 50

// SessionStore owns all conversation sessions and the phone-number index.
// All mutations go through the store's lock; nothing else touches the maps.
type SessionStore struct {
	mu         sync.RWMutex
	sessions   map[string]*models.Session // session_id -> session
	phoneIndex map[string]string          // phone_number -> session_id
	sessionTTL time.Duration
}

// NewSessionStore creates a session store. A non-positive ttl falls back
// to DefaultSessionTTL.
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{
		sessions:   make(map[string]*models.Session),
		phoneIndex: make(map[string]string),
		sessionTTL: ttl,
	}
}

// CreateSession creates a new active session for a phone number and points
// the phone index at it, overwriting any prior entry. An existing active
// session for the same number becomes unreachable by phone lookup (it stays
// in the table until the sweep removes it), so normal ingestion must go
// through AddMessage instead; this is the administrative override path.
func (s *SessionStore) CreateSession(phoneNumber, initialMessage string, context map[string]any) *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.createSessionLocked(phoneNumber, initialMessage, context)
}

func (s *SessionStore) createSessionLocked(phoneNumber, initialMessage string, context map[string]any) *models.Session {
	now := time.Now()

	var messages []models.Message
	if initialMessage != "" {
		messages = append(messages, models.Message{
			ID:        uuid.NewString(),
			Content:   initialMessage,
			Type:      models.MessageTypeText,
			Direction: models.DirectionInbound,
			Timestamp: now,
		})
	}

	if context == nil {
		context = make(map[string]any)
	}

	session := &models.Session{
		SessionID:    uuid.NewString(),
		PhoneNumber:  phoneNumber,
		Status:       models.SessionStatusActive,
		CreatedAt:    now,
		LastActivity: now,
		Messages:     messages,
		Context:      context,
	}

	s.sessions[session.SessionID] = session
	s.phoneIndex[phoneNumber] = session.SessionID

	log.Printf("💬 Session created for %s (%s)", phoneNumber, session.SessionID)
	return session
}

// GetSessionByPhone resolves the current session for a phone number. This is
// the sole gate for "the current session", and where lazy expiry happens:
// a stale index entry is purged, and an idle-past-threshold session is
// flipped to expired. Returns nil when no active session exists.
func (s *SessionStore) GetSessionByPhone(phoneNumber string) *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getByPhoneLocked(phoneNumber)
}

func (s *SessionStore) getByPhoneLocked(phoneNumber string) *models.Session {
	sessionID, ok := s.phoneIndex[phoneNumber]
	if !ok {
		return nil
	}

	session, ok := s.sessions[sessionID]
	if !ok || session.Status != models.SessionStatusActive {
		// Index points at a missing or finished session: self-heal
		s.purgeIndexLocked(phoneNumber, sessionID)
		return nil
	}

	if s.isExpiredLocked(session) {
		s.expireLocked(session)
		return nil
	}

	return session
}

// GetSessionByID looks a session up directly. The same lazy-expiry check
// applies, but the phone index is left alone.
func (s *SessionStore) GetSessionByID(sessionID string) *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}

	if s.isExpiredLocked(session) {
		s.expireLocked(session)
		return nil
	}

	return session
}

// AddMessage appends a message to the current session for a phone number,
// creating one if none is active. This is the single write path used by
// message ingestion; the whole resolve-or-create sequence runs under one
// lock so two concurrent messages from the same customer can never each
// create a session.
func (s *SessionStore) AddMessage(phoneNumber, content string, msgType models.MessageType, direction models.MessageDirection, metadata map[string]any) *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.getByPhoneLocked(phoneNumber)
	if session == nil {
		initial := ""
		if direction == models.DirectionInbound {
			initial = content
		}
		session = s.createSessionLocked(phoneNumber, initial, nil)

		// An outbound message on a fresh number starts an empty session
		// and then gets appended explicitly
		if direction == models.DirectionOutbound {
			s.appendLocked(session, content, msgType, direction, metadata)
		}
		return session
	}

	s.appendLocked(session, content, msgType, direction, metadata)
	return session
}

func (s *SessionStore) appendLocked(session *models.Session, content string, msgType models.MessageType, direction models.MessageDirection, metadata map[string]any) {
	now := time.Now()
	session.Messages = append(session.Messages, models.Message{
		ID:        uuid.NewString(),
		Content:   content,
		Type:      msgType,
		Direction: direction,
		Timestamp: now,
		Metadata:  metadata,
	})
	session.LastActivity = now
}

// UpdateSession applies optional field updates to a session: status is
// overwritten, context keys are merged in, order details are replaced
// outright. Returns nil for an unknown session.
func (s *SessionStore) UpdateSession(sessionID string, updates models.SessionUpdate) *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}

	if updates.Status != nil {
		session.Status = *updates.Status
	}
	if updates.Context != nil {
		for k, v := range updates.Context {
			session.Context[k] = v
		}
	}
	if updates.OrderDetails != nil {
		session.OrderDetails = updates.OrderDetails
	}
	session.LastActivity = time.Now()

	return session
}

// CompleteSession marks a session completed. Completed is terminal: nothing
// transitions a session back to active; the next inbound message from that
// customer starts a fresh session.
func (s *SessionStore) CompleteSession(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return false
	}

	session.Status = models.SessionStatusCompleted
	session.LastActivity = time.Now()

	log.Printf("✅ Session completed (%s)", sessionID)
	return true
}

// ExpireSession marks a session expired. Terminal, same as completion.
func (s *SessionStore) ExpireSession(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return false
	}

	s.expireLocked(session)
	return true
}

func (s *SessionStore) expireLocked(session *models.Session) {
	session.Status = models.SessionStatusExpired
	session.LastActivity = time.Now()

	log.Printf("⏰ Session expired for %s (%s)", session.PhoneNumber, session.SessionID)
}

// CleanupExpiredSessions removes dead sessions from the table and their
// phone-index entries, returning the count purged. Lazy expiry only flips
// status; this sweep is the only path that deletes rows. It takes sessions
// already marked expired along with any row idle past the threshold, so
// finished conversations do not accumulate forever.
func (s *SessionStore) CleanupExpiredSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stale []*models.Session
	for _, session := range s.sessions {
		if session.Status == models.SessionStatusExpired || time.Since(session.LastActivity) > s.sessionTTL {
			stale = append(stale, session)
		}
	}

	for _, session := range stale {
		s.purgeIndexLocked(session.PhoneNumber, session.SessionID)
		delete(s.sessions, session.SessionID)
	}

	if len(stale) > 0 {
		log.Printf("🧹 Cleaned up %d expired session(s)", len(stale))
	}
	return len(stale)
}

// purgeIndexLocked drops the phone-index entry, but only if it still points
// at the session being removed
func (s *SessionStore) purgeIndexLocked(phoneNumber, sessionID string) {
	if current, ok := s.phoneIndex[phoneNumber]; ok && current == sessionID {
		delete(s.phoneIndex, phoneNumber)
	}
}

func (s *SessionStore) isExpiredLocked(session *models.Session) bool {
	if session.Status != models.SessionStatusActive {
		return false
	}
	return time.Since(session.LastActivity) > s.sessionTTL
}

// GetConversationHistory returns the most recent messages for a phone
// number's active session, in chronological order. A non-positive limit
// falls back to DefaultHistoryLimit; no active session yields an empty slice.
func (s *SessionStore) GetConversationHistory(phoneNumber string, limit int) []models.Message {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.getByPhoneLocked(phoneNumber)
	if session == nil {
		return []models.Message{}
	}

	messages := session.Messages
	if len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}

	// Copy so callers cannot grow the session's backing array
	out := make([]models.Message, len(messages))
	copy(out, messages)
	return out
}

// GetSessionSummary projects a session for reporting, or nil if unknown
// or no longer active after the lazy-expiry check
func (s *SessionStore) GetSessionSummary(sessionID string) *models.SessionSummary {
	session := s.GetSessionByID(sessionID)
	if session == nil {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return &models.SessionSummary{
		SessionID:    session.SessionID,
		PhoneNumber:  session.PhoneNumber,
		Status:       session.Status,
		CreatedAt:    session.CreatedAt.Format(time.RFC3339),
		LastActivity: session.LastActivity.Format(time.RFC3339),
		MessageCount: len(session.Messages),
		OrderDetails: session.OrderDetails,
		Context:      session.Context,
	}
}

// GetAllSessions returns a snapshot of every session in the table,
// for administrative listing
func (s *SessionStore) GetAllSessions() []*models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]*models.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	return sessions
}

// GetActiveSessionsCount returns how many sessions are currently active
func (s *SessionStore) GetActiveSessionsCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, session := range s.sessions {
		if session.Status == models.SessionStatusActive {
			count++
		}
	}
	return count
}
