package repository

import (
	"context"
	"database/sql"

	"groupvault/internal/domain"
)

var _ domain.Store = (*Store)(nil)

// Store aggregates the SQLite repositories and implements the transaction
// primitive. A Store is either bound to the write pool or, inside
// RunInTransaction, to a single *sql.Tx.
type Store struct {
	db *sql.DB // nil when transaction-bound

	principals  *PrincipalRepo
	groups      *GroupRepo
	memberships *MembershipRepo
	projects    *ProjectRepo
	keyShares   *KeyShareRepo
	grants      *GrantRepo
	syncConfigs *SyncConfigRepo
}

// NewStore creates a Store bound to the write pool.
func NewStore(db *sql.DB) *Store {
	s := &Store{db: db}
	s.bind(db)
	return s
}

func (s *Store) bind(q DBTX) {
	s.principals = NewPrincipalRepo(q)
	s.groups = NewGroupRepo(q)
	s.memberships = NewMembershipRepo(q)
	s.projects = NewProjectRepo(q)
	s.keyShares = NewKeyShareRepo(q)
	s.grants = NewGrantRepo(q)
	s.syncConfigs = NewSyncConfigRepo(q)
}

func (s *Store) Principals() domain.PrincipalRepository   { return s.principals }
func (s *Store) Groups() domain.GroupRepository           { return s.groups }
func (s *Store) Memberships() domain.MembershipRepository { return s.memberships }
func (s *Store) Projects() domain.ProjectRepository       { return s.projects }
func (s *Store) KeyShares() domain.KeyShareRepository     { return s.keyShares }
func (s *Store) Grants() domain.GrantRepository           { return s.grants }
func (s *Store) SyncConfigs() domain.SyncConfigRepository { return s.syncConfigs }

// RunInTransaction runs fn against a transaction-bound copy of the Store and
// commits when fn returns nil. A Store that is already transaction-bound
// joins the surrounding transaction instead of opening a nested one.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.Store) error) error {
	if s.db == nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	txStore := &Store{}
	txStore.bind(tx)

	if err := fn(txStore); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}
