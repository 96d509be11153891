package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/invite"
)

type inviteRepository struct {
	db *DB
}

var _ invite.Repository = (*inviteRepository)(nil)

func NewInviteRepository(db *DB) *inviteRepository {
	return &inviteRepository{db: db}
}

func (repo *inviteRepository) CreateInvitation(ctx context.Context, inv *invite.Invitation) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	inv.ID = uuid.New().String()
	inv.CreatedAt = time.Now().UTC()
	cp := *inv
	repo.db.invitations[cp.ID] = &cp
	return nil
}

func (repo *inviteRepository) GetInvitationByID(ctx context.Context, id string) (invite.Invitation, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if inv, ok := repo.db.invitations[id]; ok {
		return *inv, nil
	}
	return invite.Invitation{}, invite.ErrNotFound
}

func (repo *inviteRepository) FilterInvitations(ctx context.Context, filter invite.QueryFilter) ([]invite.Invitation, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	invs := make([]invite.Invitation, 0)
	for _, inv := range repo.db.invitations {
		if filter.SchoolID != "" && inv.SchoolID != filter.SchoolID {
			continue
		}
		if filter.InvitedUserID != "" && inv.InvitedUserID != filter.InvitedUserID {
			continue
		}
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		invs = append(invs, *inv)
	}
	sort.Slice(invs, func(i, j int) bool { return invs[i].CreatedAt.After(invs[j].CreatedAt) })
	return invs, nil
}

func (repo *inviteRepository) AcceptInvitation(ctx context.Context, inv *invite.Invitation) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.invitations[inv.ID]
	if !ok {
		return invite.ErrNotFound
	}
	if !orig.IsPending() {
		return invite.ErrAlreadyDecided
	}
	usr, ok := repo.db.users[inv.InvitedUserID]
	if !ok {
		return invite.ErrInviteeNotFound
	}

	inv.UpdatedAt = null.TimeFrom(time.Now().UTC())
	cp := *inv
	repo.db.invitations[cp.ID] = &cp
	usr.SchoolID = null.StringFrom(inv.SchoolID)
	return nil
}

func (repo *inviteRepository) UpdateInvitation(ctx context.Context, inv *invite.Invitation) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.invitations[inv.ID]; !ok {
		return invite.ErrNotFound
	}
	inv.UpdatedAt = null.TimeFrom(time.Now().UTC())
	cp := *inv
	repo.db.invitations[cp.ID] = &cp
	return nil
}
