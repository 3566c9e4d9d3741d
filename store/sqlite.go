package store

import (
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"chatfeed/models"
)

// ErrNotFound is returned when a looked-up entity does not exist.
var ErrNotFound = errors.New("store: not found")

type Store struct {
	db  *sql.DB
	log *zap.Logger

	mu          sync.Mutex
	lastCreated time.Time

	watchMu   sync.Mutex
	watchers  map[int]*Subscription
	nextWatch int
}

func New(dbPath string, log *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	s := &Store{
		db:       db,
		log:      log,
		watchers: make(map[int]*Subscription),
	}
	if err := s.init(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS members (
		id TEXT PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		display_name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'member',
		image TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS channels (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_by TEXT REFERENCES members(id),
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		member_one_id TEXT NOT NULL REFERENCES members(id),
		member_two_id TEXT NOT NULL REFERENCES members(id),
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(member_one_id, member_two_id)
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		channel_id TEXT REFERENCES channels(id),
		conversation_id TEXT REFERENCES conversations(id),
		parent_id TEXT REFERENCES messages(id),
		member_id TEXT NOT NULL REFERENCES members(id),
		body TEXT NOT NULL,
		image TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_messages_channel ON messages(channel_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_messages_parent ON messages(parent_id);

	CREATE TABLE IF NOT EXISTS reactions (
		id TEXT PRIMARY KEY,
		message_id TEXT NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
		member_id TEXT NOT NULL REFERENCES members(id),
		value TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(message_id, member_id, value)
	);

	CREATE INDEX IF NOT EXISTS idx_reactions_message ON reactions(message_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	s.watchMu.Lock()
	for id, sub := range s.watchers {
		sub.done = true
		close(sub.ch)
		delete(s.watchers, id)
	}
	s.watchMu.Unlock()
	return s.db.Close()
}

// nextTimestamp hands out store-assigned creation times that never move
// backwards, so insertion order and created_at order agree.
func (s *Store) nextTimestamp() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if !now.After(s.lastCreated) {
		now = s.lastCreated.Add(time.Microsecond)
	}
	s.lastCreated = now
	return now
}

// Member operations

func (s *Store) CreateMember(username, displayName, password, role string) (*models.Member, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	if role == "" {
		role = models.RoleMember
	}

	m := &models.Member{
		ID:           uuid.New().String(),
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = s.db.Exec(`
		INSERT INTO members (id, username, display_name, password_hash, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, m.ID, m.Username, m.DisplayName, m.PasswordHash, m.Role, m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Store) GetMemberByUsername(username string) (*models.Member, error) {
	return s.scanMember(s.db.QueryRow(`
		SELECT id, username, display_name, password_hash, role, COALESCE(image, ''), created_at
		FROM members WHERE username = ?
	`, username))
}

func (s *Store) GetMemberByID(id string) (*models.Member, error) {
	return s.scanMember(s.db.QueryRow(`
		SELECT id, username, display_name, password_hash, role, COALESCE(image, ''), created_at
		FROM members WHERE id = ?
	`, id))
}

func (s *Store) scanMember(row *sql.Row) (*models.Member, error) {
	m := &models.Member{}
	err := row.Scan(&m.ID, &m.Username, &m.DisplayName, &m.PasswordHash, &m.Role, &m.Image, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Store) ListMembers() ([]models.MemberSummary, error) {
	rows, err := s.db.Query(`
		SELECT id, display_name, COALESCE(image, ''), role FROM members ORDER BY display_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []models.MemberSummary
	for rows.Next() {
		var m models.MemberSummary
		if err := rows.Scan(&m.ID, &m.DisplayName, &m.Image, &m.Role); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (s *Store) ValidatePassword(m *models.Member, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(password)) == nil
}

// Channel and conversation operations

func (s *Store) CreateChannel(name, createdBy string) (*models.Channel, error) {
	ch := &models.Channel{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.Exec(`
		INSERT INTO channels (id, name, created_by, created_at) VALUES (?, ?, ?, ?)
	`, ch.ID, ch.Name, ch.CreatedBy, ch.CreatedAt)
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func (s *Store) GetChannel(id string) (*models.Channel, error) {
	ch := &models.Channel{}
	err := s.db.QueryRow(`
		SELECT id, name, created_by, created_at FROM channels WHERE id = ?
	`, id).Scan(&ch.ID, &ch.Name, &ch.CreatedBy, &ch.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func (s *Store) ListChannels() ([]models.Channel, error) {
	rows, err := s.db.Query(`SELECT id, name, created_by, created_at FROM channels ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []models.Channel
	for rows.Next() {
		var ch models.Channel
		if err := rows.Scan(&ch.ID, &ch.Name, &ch.CreatedBy, &ch.CreatedAt); err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

// GetOrCreateConversation returns the direct conversation between two
// members, creating it on first use. Member order is normalized so the
// pair maps to one row regardless of who initiates.
func (s *Store) GetOrCreateConversation(memberA, memberB string) (*models.Conversation, error) {
	one, two := memberA, memberB
	if two < one {
		one, two = two, one
	}

	conv := &models.Conversation{}
	err := s.db.QueryRow(`
		SELECT id, member_one_id, member_two_id, created_at
		FROM conversations WHERE member_one_id = ? AND member_two_id = ?
	`, one, two).Scan(&conv.ID, &conv.MemberOneID, &conv.MemberTwoID, &conv.CreatedAt)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	conv = &models.Conversation{
		ID:          uuid.New().String(),
		MemberOneID: one,
		MemberTwoID: two,
		CreatedAt:   time.Now().UTC(),
	}
	_, err = s.db.Exec(`
		INSERT INTO conversations (id, member_one_id, member_two_id, created_at)
		VALUES (?, ?, ?, ?)
	`, conv.ID, conv.MemberOneID, conv.MemberTwoID, conv.CreatedAt)
	if err != nil {
		return nil, err
	}
	return conv, nil
}
