// Package state owns the process-wide mutable state (conversation + user
// profile). All mutations are serialized through the Store; collaborators
// receive snapshots and change notifications, never aliases.
package state

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"jp-mentor/internal/chat"
	"jp-mentor/internal/profile"
)

// Event identifies which half of the state changed.
type Event int

const (
	EventConversation Event = iota
	EventProfile
)

// AppState is the persisted document: one JSON file holding both halves,
// timestamps in RFC 3339.
type AppState struct {
	Conversation chat.Conversation `json:"conversation"`
	UserProfile  profile.Profile   `json:"userProfile"`
}

// Store is the single owner of the mutable state. Updates are
// copy-modify-publish: the update func works on a private copy and the result
// replaces the published value under the lock. Persistence is write-behind:
// Save snapshots synchronously but flushes to disk on a background goroutine,
// so callers must not assume durability when it returns.
type Store struct {
	mu           sync.Mutex
	conversation chat.Conversation
	userProfile  profile.Profile
	subs         []chan Event

	path    string
	seq     uint64
	writeMu sync.Mutex
	written uint64
	writes  sync.WaitGroup
}

// New loads the persisted state from path. A missing or malformed file means
// fresh defaults, never an error; only an unusable parent directory fails.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure state dir: %w", err)
	}
	s := &Store{
		path:         path,
		conversation: chat.NewConversation(),
		userProfile:  profile.New(),
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("failed to read state file, starting fresh: %v", err)
		}
		return s, nil
	}
	var loaded AppState
	if err := json.Unmarshal(data, &loaded); err != nil {
		log.Printf("failed to decode state file, starting fresh: %v", err)
		return s, nil
	}
	s.conversation = loaded.Conversation
	s.userProfile = loaded.UserProfile
	return s, nil
}

// Conversation returns a snapshot copy of the current conversation.
func (s *Store) Conversation() chat.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversation.Clone()
}

// Profile returns a snapshot copy of the current user profile.
func (s *Store) Profile() profile.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userProfile.Clone()
}

// UpdateConversation applies fn to a private copy of the conversation and
// publishes the result.
func (s *Store) UpdateConversation(fn func(*chat.Conversation)) {
	s.mu.Lock()
	next := s.conversation.Clone()
	fn(&next)
	s.conversation = next
	s.notifyLocked(EventConversation)
	s.mu.Unlock()
}

// UpdateProfile applies fn to a private copy of the profile and publishes the
// result.
func (s *Store) UpdateProfile(fn func(*profile.Profile)) {
	s.mu.Lock()
	next := s.userProfile.Clone()
	fn(&next)
	s.userProfile = next
	s.notifyLocked(EventProfile)
	s.mu.Unlock()
}

// ResetAll restores both conversation and profile to fresh defaults and
// persists.
func (s *Store) ResetAll() {
	s.mu.Lock()
	s.conversation = chat.NewConversation()
	s.userProfile = profile.New()
	s.notifyLocked(EventConversation)
	s.notifyLocked(EventProfile)
	s.mu.Unlock()
	s.Save()
}

// Subscribe registers an observer. Events are delivered best-effort: a slow
// subscriber misses coalesced notifications instead of blocking the owner.
func (s *Store) Subscribe() <-chan Event {
	ch := make(chan Event, 8)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	return ch
}

func (s *Store) notifyLocked(ev Event) {
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Save snapshots the state and schedules an atomic write-through. Failures
// are logged, not surfaced: the in-memory state stays authoritative for the
// session.
func (s *Store) Save() {
	s.mu.Lock()
	snapshot := AppState{
		Conversation: s.conversation.Clone(),
		UserProfile:  s.userProfile.Clone(),
	}
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		log.Printf("failed to encode state: %v", err)
		return
	}

	s.writes.Add(1)
	go func() {
		defer s.writes.Done()
		if err := s.writeAtomic(seq, data); err != nil {
			log.Printf("failed to persist state: %v", err)
		}
	}()
}

// Flush blocks until all scheduled writes have finished. Used on shutdown
// and in tests.
func (s *Store) Flush() {
	s.writes.Wait()
}

// writeAtomic writes temp-then-rename so a crash never leaves a truncated
// state file. Snapshots carry a sequence number so a stale flush never
// clobbers a newer one.
func (s *Store) writeAtomic(seq uint64, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if seq <= s.written {
		return nil
	}
	s.written = seq

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
