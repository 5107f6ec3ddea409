package repository

import (
	"context"

	"groupvault/internal/domain"
)

var _ domain.SyncConfigRepository = (*SyncConfigRepo)(nil)

// SyncConfigRepo implements domain.SyncConfigRepository using SQLite.
type SyncConfigRepo struct {
	db DBTX
}

// NewSyncConfigRepo creates a new SyncConfigRepo.
func NewSyncConfigRepo(db DBTX) *SyncConfigRepo {
	return &SyncConfigRepo{db: db}
}

const syncConfigColumns = "id, org_id, provider_org, encrypted_access_token, is_active, created_at, updated_at"

func (r *SyncConfigRepo) Create(ctx context.Context, cfg *domain.DirectorySyncConfig) (*domain.DirectorySyncConfig, error) {
	if cfg.ID == "" {
		cfg.ID = domain.NewID()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO directory_sync_configs (id, org_id, provider_org, encrypted_access_token, is_active)
VALUES (?, ?, ?, ?, ?)`,
		cfg.ID, cfg.OrgID, cfg.ProviderOrg, cfg.EncryptedAccessToken, boolToInt(cfg.Active),
	)
	if err != nil {
		return nil, mapDBError(err)
	}
	return r.GetByOrg(ctx, cfg.OrgID)
}

func (r *SyncConfigRepo) GetByOrg(ctx context.Context, orgID string) (*domain.DirectorySyncConfig, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+syncConfigColumns+" FROM directory_sync_configs WHERE org_id = ?", orgID)

	var cfg domain.DirectorySyncConfig
	var active int64
	err := row.Scan(&cfg.ID, &cfg.OrgID, &cfg.ProviderOrg, &cfg.EncryptedAccessToken,
		&active, &cfg.CreatedAt, &cfg.UpdatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	cfg.Active = active != 0
	return &cfg, nil
}

func (r *SyncConfigRepo) Update(ctx context.Context, cfg *domain.DirectorySyncConfig) (*domain.DirectorySyncConfig, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE directory_sync_configs
SET provider_org = ?, encrypted_access_token = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
WHERE org_id = ?`,
		cfg.ProviderOrg, cfg.EncryptedAccessToken, boolToInt(cfg.Active), cfg.OrgID,
	)
	if err != nil {
		return nil, mapDBError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, domain.ErrNotFound("directory sync config for org %s not found", cfg.OrgID)
	}
	return r.GetByOrg(ctx, cfg.OrgID)
}

func (r *SyncConfigRepo) DeleteByOrg(ctx context.Context, orgID string) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM directory_sync_configs WHERE org_id = ?", orgID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound("directory sync config for org %s not found", orgID)
	}
	return nil
}
