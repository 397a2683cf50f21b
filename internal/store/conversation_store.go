package store

import (
	"path/filepath"
	"sync"

	"quietwire/internal/domain"
)

const convFilename = "conversations.json"

// ConversationFileStore persists per-peer Double Ratchet state to disk.
type ConversationFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewConversationFileStore returns a ConversationFileStore rooted at dir.
func NewConversationFileStore(dir string) *ConversationFileStore {
	return &ConversationFileStore{dir: dir}
}

// SaveConversation writes the Conversation for peer.
func (s *ConversationFileStore) SaveConversation(peer string, conv domain.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, convFilename)
	m := map[string]domain.Conversation{}
	_ = readJSON(path, &m)
	m[peer] = conv
	return writeJSON(path, m, 0o600)
}

// LoadConversation retrieves the Conversation for peer.
func (s *ConversationFileStore) LoadConversation(peer string) (domain.Conversation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, convFilename)
	m := map[string]domain.Conversation{}
	if err := readJSON(path, &m); err != nil {
		return domain.Conversation{}, false, err
	}
	c, ok := m[peer]
	return c, ok, nil
}

// DeleteConversation removes the stored state for peer, if any.
func (s *ConversationFileStore) DeleteConversation(peer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, convFilename)
	m := map[string]domain.Conversation{}
	if err := readJSON(path, &m); err != nil {
		return err
	}
	if _, ok := m[peer]; !ok {
		return nil
	}
	delete(m, peer)
	return writeJSON(path, m, 0o600)
}

// Compile-time assertion that ConversationFileStore implements domain.ConversationStore.
var _ domain.ConversationStore = (*ConversationFileStore)(nil)
