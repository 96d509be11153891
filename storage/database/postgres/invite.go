package pgrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/invite"
)

type inviteRepository struct {
	db *sqlx.DB
}

var _ invite.Repository = (*inviteRepository)(nil) // interface compliance check

func NewInviteRepository(db *sqlx.DB) *inviteRepository {
	return &inviteRepository{db: db}
}

type invitationRow struct {
	ID            string    `db:"id"`
	SchoolID      string    `db:"school_id"`
	InvitedByID   string    `db:"invited_by_id"`
	InvitedUserID string    `db:"invited_user_id"`
	Status        string    `db:"status"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     null.Time `db:"updated_at"`
}

func (repo inviteRepository) CreateInvitation(ctx context.Context, inv *invite.Invitation) error {
	inv.ID = uuid.New().String()
	inv.CreatedAt = time.Now().UTC()
	row := invitationRow(*inv)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO invitations (id, school_id, invited_by_id, invited_user_id, status, created_at, updated_at)
		VALUES (:id, :school_id, :invited_by_id, :invited_user_id, :status, :created_at, :updated_at)`, row)
	if err != nil {
		return trapErr(err, "inserting invitation", invite.ErrNotFound)
	}
	return nil
}

func (repo inviteRepository) GetInvitationByID(ctx context.Context, id string) (invite.Invitation, error) {
	var row invitationRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM invitations WHERE id = $1`, id); err != nil {
		return invite.Invitation{}, trapErr(err, "getting invitation by id", invite.ErrNotFound)
	}
	return invite.Invitation(row), nil
}

func (repo inviteRepository) FilterInvitations(ctx context.Context, filter invite.QueryFilter) ([]invite.Invitation, error) {
	query := `SELECT * FROM invitations WHERE true`
	var args []interface{}
	if filter.SchoolID != "" {
		args = append(args, filter.SchoolID)
		query += ` AND school_id = ?`
	}
	if filter.InvitedUserID != "" {
		args = append(args, filter.InvitedUserID)
		query += ` AND invited_user_id = ?`
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += ` AND status = ?`
	}
	query += ` ORDER BY created_at DESC`

	var rows []invitationRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, trapErr(err, "filtering invitations", invite.ErrNotFound)
	}
	invs := make([]invite.Invitation, 0, len(rows))
	for _, row := range rows {
		invs = append(invs, invite.Invitation(row))
	}
	return invs, nil
}

// AcceptInvitation marks inv accepted and writes its school onto the invited
// user's record in the same transaction.
func (repo inviteRepository) AcceptInvitation(ctx context.Context, inv *invite.Invitation) error {
	now := time.Now().UTC()
	inv.UpdatedAt = null.TimeFrom(now)
	return core.Atomic(ctx, repo.db.DB, func(tx core.DBTransactor) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE invitations SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
			inv.Status, now, inv.ID, invite.StatusPending)
		if err != nil {
			return trapErr(err, "accepting invitation", invite.ErrNotFound)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return invite.ErrAlreadyDecided
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE users SET school_id = $1, updated_at = $2 WHERE id = $3`,
			inv.SchoolID, now, inv.InvitedUserID)
		if err != nil {
			return trapErr(err, "assigning invited user", invite.ErrInviteeNotFound)
		}
		return nil
	})
}

func (repo inviteRepository) UpdateInvitation(ctx context.Context, inv *invite.Invitation) error {
	inv.UpdatedAt = null.TimeFrom(time.Now().UTC())
	row := invitationRow(*inv)
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE invitations SET status = :status, updated_at = :updated_at WHERE id = :id`, row)
	if err != nil {
		return trapErr(err, "updating invitation", invite.ErrNotFound)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return invite.ErrNotFound
	}
	return nil
}
