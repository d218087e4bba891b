package services

import "sync"

// SessionRegistry tracks which live connection currently represents a
// student, so moderation pushes can target a single connection. Entries
// exist only while a student is connected; roster membership is separate.
type SessionRegistry struct {
	mu        sync.Mutex
	byStudent map[string]string
	byConn    map[string]string
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		byStudent: make(map[string]string),
		byConn:    make(map[string]string),
	}
}

// Bind maps a student to a connection, replacing any prior mapping on either
// side (a refreshed tab reconnects with a new connection id).
func (r *SessionRegistry) Bind(studentID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.byStudent[studentID]; ok {
		delete(r.byConn, old)
	}
	if old, ok := r.byConn[connID]; ok {
		delete(r.byStudent, old)
	}
	r.byStudent[studentID] = connID
	r.byConn[connID] = studentID
}

// ReleaseConn drops the mapping for a connection, if any.
func (r *SessionRegistry) ReleaseConn(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if studentID, ok := r.byConn[connID]; ok {
		delete(r.byStudent, studentID)
		delete(r.byConn, connID)
	}
}

// ConnFor returns the connection currently representing a student.
func (r *SessionRegistry) ConnFor(studentID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	connID, ok := r.byStudent[studentID]
	return connID, ok
}

// StudentFor returns the student a connection represents.
func (r *SessionRegistry) StudentFor(connID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	studentID, ok := r.byConn[connID]
	return studentID, ok
}
