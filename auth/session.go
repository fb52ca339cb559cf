package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/securecookie"
)

const (
	sessionCookieName = "session_id"
	sessionTTL        = 7 * 24 * time.Hour
)

type Session struct {
	PlayerID  string
	ExpiresAt time.Time
}

// SessionManager keeps sessions in memory and signs the cookie value so a
// tampered session id is rejected before it is ever looked up.
type SessionManager struct {
	codec    *securecookie.SecureCookie
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionManager(secret string) *SessionManager {
	hashKey := sha256.Sum256([]byte(secret))
	sm := &SessionManager{
		codec:    securecookie.New(hashKey[:], nil),
		sessions: make(map[string]*Session),
	}

	go sm.cleanupExpiredSessions()

	return sm
}

func (sm *SessionManager) CreateSession(playerID string) (string, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return "", err
	}

	sm.mu.Lock()
	sm.sessions[sessionID] = &Session{
		PlayerID:  playerID,
		ExpiresAt: time.Now().Add(sessionTTL),
	}
	sm.mu.Unlock()

	return sessionID, nil
}

func (sm *SessionManager) PlayerID(sessionID string) (string, bool) {
	sm.mu.RLock()
	session, exists := sm.sessions[sessionID]
	sm.mu.RUnlock()

	if !exists {
		return "", false
	}
	if time.Now().After(session.ExpiresAt) {
		sm.DeleteSession(sessionID)
		return "", false
	}
	return session.PlayerID, true
}

func (sm *SessionManager) DeleteSession(sessionID string) {
	sm.mu.Lock()
	delete(sm.sessions, sessionID)
	sm.mu.Unlock()
}

func (sm *SessionManager) SetSessionCookie(w http.ResponseWriter, sessionID string) error {
	encoded, err := sm.codec.Encode(sessionCookieName, sessionID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		// Secure: true, // Enable in production with HTTPS
	})
	return nil
}

func (sm *SessionManager) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// SessionFromRequest decodes and verifies the session cookie. An invalid
// signature reads as no session at all.
func (sm *SessionManager) SessionFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	var sessionID string
	if err := sm.codec.Decode(sessionCookieName, cookie.Value, &sessionID); err != nil {
		return ""
	}
	return sessionID
}

func (sm *SessionManager) cleanupExpiredSessions() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		sm.mu.Lock()
		now := time.Now()
		for id, session := range sm.sessions {
			if now.After(session.ExpiresAt) {
				delete(sm.sessions, id)
			}
		}
		sm.mu.Unlock()
	}
}

func generateSessionID() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}
