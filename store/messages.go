package store

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chatfeed/models"
)

// Query scopes a message feed: top-level messages of one channel or one
// conversation, or the replies of one thread root.
type Query struct {
	ChannelID      *string
	ConversationID *string
	ParentID       *string
}

// Page is one backward pagination step. Messages are newest-first; the
// cursor is the creation time of the oldest message returned and bounds
// the next page exclusively.
type Page struct {
	Messages   []models.FeedMessage
	NextCursor *time.Time
	Exhausted  bool
}

var ErrBadScope = errors.New("store: message must belong to exactly one of a channel or a conversation")

func (q Query) where() (string, []interface{}) {
	if q.ParentID != nil {
		return "m.parent_id = ?", []interface{}{*q.ParentID}
	}
	if q.ChannelID != nil {
		return "m.channel_id = ? AND m.parent_id IS NULL", []interface{}{*q.ChannelID}
	}
	return "m.conversation_id = ? AND m.parent_id IS NULL", []interface{}{*q.ConversationID}
}

func (s *Store) CreateMessage(memberID string, req models.CreateMessageRequest) (*models.Message, error) {
	msg := &models.Message{
		ID:             uuid.New().String(),
		ChannelID:      req.ChannelID,
		ConversationID: req.ConversationID,
		ParentID:       req.ParentID,
		MemberID:       memberID,
		Body:           req.Body,
		Image:          req.Image,
	}

	if req.ParentID != nil {
		parent, err := s.GetMessage(*req.ParentID)
		if err != nil {
			return nil, err
		}
		// Replies live in the parent's context regardless of what the
		// caller sent.
		msg.ChannelID = parent.ChannelID
		msg.ConversationID = parent.ConversationID
	}

	if (msg.ChannelID == nil) == (msg.ConversationID == nil) {
		return nil, ErrBadScope
	}

	msg.CreatedAt = s.nextTimestamp()

	_, err := s.db.Exec(`
		INSERT INTO messages (id, channel_id, conversation_id, parent_id, member_id, body, image, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, msg.ID, msg.ChannelID, msg.ConversationID, msg.ParentID, msg.MemberID, msg.Body, msg.Image, msg.CreatedAt)
	if err != nil {
		return nil, err
	}

	s.notify(eventPayload(msg))
	return msg, nil
}

func (s *Store) UpdateMessage(id, body string) error {
	msg, err := s.GetMessage(id)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if _, err := s.db.Exec(`
		UPDATE messages SET body = ?, updated_at = ? WHERE id = ?
	`, body, now, id); err != nil {
		return err
	}

	s.notify(eventPayload(msg))
	return nil
}

func (s *Store) DeleteMessage(id string) error {
	msg, err := s.GetMessage(id)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		DELETE FROM reactions WHERE message_id = ? OR message_id IN
			(SELECT id FROM messages WHERE parent_id = ?)
	`, id, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM messages WHERE parent_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM messages WHERE id = ?`, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.notify(eventPayload(msg))
	return nil
}

func (s *Store) GetMessage(id string) (*models.Message, error) {
	msg := &models.Message{}
	var channelID, conversationID, parentID, image sql.NullString
	var updatedAt sql.NullTime

	err := s.db.QueryRow(`
		SELECT id, channel_id, conversation_id, parent_id, member_id, body, image, created_at, updated_at
		FROM messages WHERE id = ?
	`, id).Scan(&msg.ID, &channelID, &conversationID, &parentID, &msg.MemberID, &msg.Body, &image, &msg.CreatedAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	msg.ChannelID = nullable(channelID)
	msg.ConversationID = nullable(conversationID)
	msg.ParentID = nullable(parentID)
	msg.Image = nullable(image)
	if updatedAt.Valid {
		t := updatedAt.Time
		msg.UpdatedAt = &t
	}
	return msg, nil
}

// GetFeedMessage returns one message with joined author, reactions and
// reply set, as a thread root is rendered.
func (s *Store) GetFeedMessage(id string) (*models.FeedMessage, error) {
	msgs, err := s.queryFeedMessages(`m.id = ?`, []interface{}{id}, 1)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, ErrNotFound
	}
	return &msgs[0], nil
}

// QueryPage fetches one page of the scoped feed, newest first, bounded by
// the cursor when present.
func (s *Store) QueryPage(q Query, cursor *time.Time, limit int) (*Page, error) {
	where, args := q.where()
	if cursor != nil {
		where += " AND m.created_at < ?"
		args = append(args, cursor.UTC())
	}

	msgs, err := s.queryFeedMessages(where, args, limit)
	if err != nil {
		return nil, err
	}

	page := &Page{Messages: msgs, Exhausted: len(msgs) < limit}
	if len(msgs) > 0 {
		oldest := msgs[len(msgs)-1].CreatedAt
		page.NextCursor = &oldest
	}
	return page, nil
}

func (s *Store) queryFeedMessages(where string, args []interface{}, limit int) ([]models.FeedMessage, error) {
	query := `
		SELECT m.id, m.channel_id, m.conversation_id, m.parent_id, m.member_id, m.body, m.image,
			   m.created_at, m.updated_at,
			   u.id, u.display_name, COALESCE(u.image, ''), u.role
		FROM messages m
		JOIN members u ON m.member_id = u.id
		WHERE ` + where + `
		ORDER BY m.created_at DESC
		LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []models.FeedMessage
	for rows.Next() {
		var msg models.FeedMessage
		var channelID, conversationID, parentID, image sql.NullString
		var updatedAt sql.NullTime

		err := rows.Scan(
			&msg.ID, &channelID, &conversationID, &parentID, &msg.MemberID, &msg.Body, &image,
			&msg.CreatedAt, &updatedAt,
			&msg.Author.ID, &msg.Author.DisplayName, &msg.Author.Image, &msg.Author.Role,
		)
		if err != nil {
			return nil, err
		}

		msg.ChannelID = nullable(channelID)
		msg.ConversationID = nullable(conversationID)
		msg.ParentID = nullable(parentID)
		msg.Image = nullable(image)
		if updatedAt.Valid {
			t := updatedAt.Time
			msg.UpdatedAt = &t
		}
		msg.Reactions = []models.Reaction{}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.attachReactions(msgs); err != nil {
		return nil, err
	}
	if err := s.attachReplies(msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (s *Store) attachReactions(msgs []models.FeedMessage) error {
	if len(msgs) == 0 {
		return nil
	}

	placeholders, args, index := messageIndex(msgs)

	rows, err := s.db.Query(`
		SELECT id, message_id, member_id, value, created_at
		FROM reactions
		WHERE message_id IN (`+placeholders+`)
		ORDER BY created_at
	`, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var r models.Reaction
		if err := rows.Scan(&r.ID, &r.MessageID, &r.MemberID, &r.Value, &r.CreatedAt); err != nil {
			return err
		}
		if i, ok := index[r.MessageID]; ok {
			msgs[i].Reactions = append(msgs[i].Reactions, r)
		}
	}
	return rows.Err()
}

func (s *Store) attachReplies(msgs []models.FeedMessage) error {
	if len(msgs) == 0 {
		return nil
	}

	placeholders, args, index := messageIndex(msgs)

	rows, err := s.db.Query(`
		SELECT m.parent_id, m.id, m.member_id, u.display_name, COALESCE(u.image, ''), m.created_at
		FROM messages m
		JOIN members u ON m.member_id = u.id
		WHERE m.parent_id IN (`+placeholders+`)
		ORDER BY m.created_at
	`, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var parentID string
		var r models.ReplySummary
		if err := rows.Scan(&parentID, &r.ID, &r.MemberID, &r.AuthorName, &r.AuthorImage, &r.CreatedAt); err != nil {
			return err
		}
		if i, ok := index[parentID]; ok {
			msgs[i].Replies = append(msgs[i].Replies, r)
		}
	}
	return rows.Err()
}

func messageIndex(msgs []models.FeedMessage) (string, []interface{}, map[string]int) {
	placeholders := make([]string, len(msgs))
	args := make([]interface{}, len(msgs))
	index := make(map[string]int, len(msgs))
	for i := range msgs {
		placeholders[i] = "?"
		args[i] = msgs[i].ID
		index[msgs[i].ID] = i
	}
	return strings.Join(placeholders, ","), args, index
}

// ToggleReaction adds the (message, member, value) reaction if absent and
// removes it if present, in one transaction. Returns whether the reaction
// exists afterwards.
func (s *Store) ToggleReaction(messageID, memberID, value string) (bool, error) {
	msg, err := s.GetMessage(messageID)
	if err != nil {
		return false, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		DELETE FROM reactions WHERE message_id = ? AND member_id = ? AND value = ?
	`, messageID, memberID, value)
	if err != nil {
		return false, err
	}

	removed, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	added := false
	if removed == 0 {
		_, err = tx.Exec(`
			INSERT INTO reactions (id, message_id, member_id, value, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, uuid.New().String(), messageID, memberID, value, time.Now().UTC())
		if err != nil {
			return false, err
		}
		added = true
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}

	s.log.Debug("reaction toggled",
		zap.String("message_id", messageID),
		zap.String("member_id", memberID),
		zap.Bool("added", added))

	s.notify(eventPayload(msg))
	return added, nil
}

func eventPayload(msg *models.Message) models.MessageEventPayload {
	return models.MessageEventPayload{
		MessageID:      msg.ID,
		ChannelID:      msg.ChannelID,
		ConversationID: msg.ConversationID,
		ParentID:       msg.ParentID,
	}
}

func nullable(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
