package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nhle/taskbot/internal/model"
)

// LoadSessionState returns the user's advisory state bag.
//
// A missing row and an unparsable stored value both yield an empty map
// with no error. Corruption is logged so it stays observable, but it
// never fails the interaction the state accompanies.
func (s *SQLiteStore) LoadSessionState(ctx context.Context, userID int64) (model.SessionState, error) {
	var raw sql.NullString
	err := s.db.GetContext(ctx, &raw,
		"SELECT state FROM user_states WHERE user_id = ?", userID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SessionState{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session state for user %d: %w", userID, err)
	}

	if !raw.Valid || raw.String == "" {
		return model.SessionState{}, nil
	}

	var state model.SessionState
	if err := json.Unmarshal([]byte(raw.String), &state); err != nil {
		s.log.Warn("discarding corrupt session state",
			"user_id", userID, "error", err)
		return model.SessionState{}, nil
	}
	if state == nil {
		state = model.SessionState{}
	}
	return state, nil
}

// SaveSessionState serializes the state bag and upserts it keyed by
// user id. The previous value is replaced entirely; callers that want
// to keep earlier fields must load, mutate, then save.
func (s *SQLiteStore) SaveSessionState(ctx context.Context, userID int64, state model.SessionState) error {
	if state == nil {
		state = model.SessionState{}
	}

	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshaling session state for user %d: %w", userID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_states (user_id, state) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET state = excluded.state`,
		userID, string(raw),
	)
	if err != nil {
		return fmt.Errorf("saving session state for user %d: %w", userID, err)
	}
	return nil
}
