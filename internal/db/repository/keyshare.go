package repository

import (
	"context"
	"strings"

	"groupvault/internal/domain"
)

var _ domain.KeyShareRepository = (*KeyShareRepo)(nil)

// KeyShareRepo implements domain.KeyShareRepository using SQLite.
type KeyShareRepo struct {
	db DBTX
}

// NewKeyShareRepo creates a new KeyShareRepo.
func NewKeyShareRepo(db DBTX) *KeyShareRepo {
	return &KeyShareRepo{db: db}
}

func (r *KeyShareRepo) InsertMany(ctx context.Context, shares []domain.ProjectKeyShare) error {
	if len(shares) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString("INSERT INTO project_key_shares (id, project_id, sender_id, receiver_id, encrypted_key, nonce) VALUES ")
	args := make([]any, 0, len(shares)*6)
	for i := range shares {
		s := &shares[i]
		if s.ID == "" {
			s.ID = domain.NewID()
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?, ?, ?)")
		args = append(args, s.ID, s.ProjectID, s.SenderID, s.ReceiverID, s.EncryptedKey, s.Nonce)
	}
	_, err := r.db.ExecContext(ctx, sb.String(), args...)
	return mapDBError(err)
}

func (r *KeyShareRepo) LatestForReceiver(ctx context.Context, projectID, receiverID string) (*domain.ProjectKeyShare, error) {
	var s domain.ProjectKeyShare
	err := r.db.QueryRowContext(ctx, `
SELECT id, project_id, sender_id, receiver_id, encrypted_key, nonce, created_at
FROM project_key_shares
WHERE project_id = ? AND receiver_id = ?
ORDER BY created_at DESC, rowid DESC
LIMIT 1`,
		projectID, receiverID,
	).Scan(&s.ID, &s.ProjectID, &s.SenderID, &s.ReceiverID, &s.EncryptedKey, &s.Nonce, &s.CreatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	return &s, nil
}

func (r *KeyShareRepo) ExistingReceivers(ctx context.Context, projectID string, receiverIDs []string) (map[string]bool, error) {
	if len(receiverIDs) == 0 {
		return map[string]bool{}, nil
	}
	args := append([]any{projectID}, toAnySlice(receiverIDs)...)
	rows, err := r.db.QueryContext(ctx,
		"SELECT DISTINCT receiver_id FROM project_key_shares WHERE project_id = ? AND receiver_id IN ("+placeholders(len(receiverIDs))+")",
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	existing := make(map[string]bool, len(receiverIDs))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		existing[id] = true
	}
	return existing, rows.Err()
}

func (r *KeyShareRepo) DeleteForReceiver(ctx context.Context, projectID, receiverID string) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM project_key_shares WHERE project_id = ? AND receiver_id = ?",
		projectID, receiverID,
	)
	return err
}

func (r *KeyShareRepo) DeleteForReceiverInProjects(ctx context.Context, receiverID string, projectIDs []string) error {
	if len(projectIDs) == 0 {
		return nil
	}
	args := append([]any{receiverID}, toAnySlice(projectIDs)...)
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM project_key_shares WHERE receiver_id = ? AND project_id IN ("+placeholders(len(projectIDs))+")",
		args...,
	)
	return err
}
