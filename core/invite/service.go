package invite

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/group"
	"github.com/trezcool/darasa/core/school"
	"github.com/trezcool/darasa/core/user"
)

// NowFunc returns the current time. Swapped out in tests.
var NowFunc = time.Now

var (
	ErrNotFound        = core.NotFoundError("invitation not found")
	ErrInviteeNotFound = core.NotFoundError("invited user not found")
	ErrAlreadyAssigned = core.ConflictError("user already belongs to a school", "")
	ErrAlreadyDecided  = core.ConflictError("invitation is no longer pending", "")
	ErrExpired         = core.ConflictError("invitation has expired", "")
	ErrAlreadyGrouped  = core.ConflictError("student already belongs to a group", "")
)

type Repository interface {
	CreateInvitation(ctx context.Context, inv *Invitation) error
	GetInvitationByID(ctx context.Context, id string) (Invitation, error)
	FilterInvitations(ctx context.Context, filter QueryFilter) ([]Invitation, error)
	// AcceptInvitation marks inv accepted and writes its school onto the
	// invited user's record as one unit of work.
	AcceptInvitation(ctx context.Context, inv *Invitation) error
	UpdateInvitation(ctx context.Context, inv *Invitation) error
}

type Service struct {
	repo    Repository
	users   user.Repository
	schools school.Repository
	groups  group.Repository
	mailSvc core.EmailService
	conf    *core.Config
	log     core.Logger
}

func NewService(
	repo Repository,
	users user.Repository,
	schools school.Repository,
	groups group.Repository,
	mailSvc core.EmailService,
	conf *core.Config,
	log core.Logger,
) *Service {
	return &Service{
		repo:    repo,
		users:   users,
		schools: schools,
		groups:  groups,
		mailSvc: mailSvc,
		conf:    conf,
		log:     log,
	}
}

// InviteTeacher invites an unassigned teacher into the actor's school.
func (svc *Service) InviteTeacher(ctx context.Context, actor user.User, teacherID string) (Invitation, error) {
	return svc.invite(ctx, actor, teacherID, user.KindTeacher)
}

// InviteStudent invites an unassigned student into the actor's school.
func (svc *Service) InviteStudent(ctx context.Context, actor user.User, studentID string) (Invitation, error) {
	return svc.invite(ctx, actor, studentID, user.KindStudent)
}

func (svc *Service) invite(ctx context.Context, actor user.User, inviteeID, kind string) (Invitation, error) {
	if !actor.IsAdmin() && !actor.IsPrincipal() {
		return Invitation{}, core.NotAllowedError("only principals can send invitations")
	}
	scope, err := user.ResolveScope(actor)
	if err != nil {
		return Invitation{}, err
	}
	schoolID, err := scope.EffectiveSchool(null.String{})
	if err != nil {
		return Invitation{}, err
	}
	if !schoolID.Valid {
		return Invitation{}, user.ErrNotAssigned
	}
	sch, err := svc.schools.GetSchoolByID(ctx, schoolID.String)
	if err != nil {
		return Invitation{}, err
	}

	invitee, err := svc.users.GetUserByID(ctx, inviteeID)
	if err != nil || invitee.Kind != kind {
		if err == nil || core.IsNotFound(err) {
			return Invitation{}, ErrInviteeNotFound
		}
		return Invitation{}, err
	}
	if invitee.SchoolID.Valid {
		return Invitation{}, ErrAlreadyAssigned
	}

	inv := Invitation{
		SchoolID:      sch.ID,
		InvitedByID:   actor.ID,
		InvitedUserID: invitee.ID,
		Status:        StatusPending,
	}
	if err = svc.repo.CreateInvitation(ctx, &inv); err != nil {
		return Invitation{}, err
	}
	svc.sendInvitationMail(invitee, sch)
	return inv, nil
}

// ListMine lists invitations addressed to the actor.
func (svc *Service) ListMine(ctx context.Context, actor user.User) ([]Invitation, error) {
	return svc.repo.FilterInvitations(ctx, QueryFilter{InvitedUserID: actor.ID})
}

func (svc *Service) GetByID(ctx context.Context, actor user.User, id string) (Invitation, error) {
	inv, err := svc.repo.GetInvitationByID(ctx, id)
	if err != nil {
		return Invitation{}, err
	}
	if inv.InvitedUserID != actor.ID && !actor.IsAdmin() {
		scope, err := user.ResolveScope(actor)
		if err != nil {
			return Invitation{}, err
		}
		if err = scope.AllowSchool(inv.SchoolID); err != nil {
			return Invitation{}, ErrNotFound
		}
	}
	return inv, nil
}

// Accept joins the actor to the inviting school. Only the invitee can accept,
// and only while the invitation is still pending.
func (svc *Service) Accept(ctx context.Context, actor user.User, id string) (Invitation, error) {
	inv, err := svc.decidable(ctx, actor, id)
	if err != nil {
		return Invitation{}, err
	}
	if actor.SchoolID.Valid {
		return Invitation{}, ErrAlreadyAssigned
	}
	inv.Status = StatusAccepted
	if err = svc.repo.AcceptInvitation(ctx, &inv); err != nil {
		return Invitation{}, err
	}
	return inv, nil
}

// Reject declines the invitation. Terminal, no assignment happens.
func (svc *Service) Reject(ctx context.Context, actor user.User, id string) (Invitation, error) {
	inv, err := svc.decidable(ctx, actor, id)
	if err != nil {
		return Invitation{}, err
	}
	inv.Status = StatusRejected
	if err = svc.repo.UpdateInvitation(ctx, &inv); err != nil {
		return Invitation{}, err
	}
	return inv, nil
}

func (svc *Service) decidable(ctx context.Context, actor user.User, id string) (Invitation, error) {
	inv, err := svc.repo.GetInvitationByID(ctx, id)
	if err != nil {
		return Invitation{}, err
	}
	if inv.InvitedUserID != actor.ID {
		return Invitation{}, core.NotAllowedError("only the invited user can decide this invitation")
	}
	if !inv.IsPending() {
		return Invitation{}, ErrAlreadyDecided
	}
	if inv.IsExpired(NowFunc()) {
		return Invitation{}, ErrExpired
	}
	return inv, nil
}

// LinkStudentToGroup assigns an unassigned student of the actor's school to
// one of the school's groups.
func (svc *Service) LinkStudentToGroup(ctx context.Context, actor user.User, studentID, groupID string) error {
	if !actor.IsAdmin() && !actor.IsPrincipal() {
		return core.NotAllowedError("only principals can assign students to groups")
	}
	scope, err := user.ResolveScope(actor)
	if err != nil {
		return err
	}

	student, err := svc.users.GetUserByID(ctx, studentID)
	if err != nil || !student.IsStudent() {
		if err == nil || core.IsNotFound(err) {
			return ErrInviteeNotFound
		}
		return err
	}
	if !student.SchoolID.Valid {
		return user.ErrNotAssigned
	}
	if err = scope.AllowSchool(student.SchoolID.String); err != nil {
		return err
	}
	if student.GroupID.Valid {
		return ErrAlreadyGrouped
	}

	grp, err := svc.groups.GetGroupByID(ctx, groupID)
	if err != nil {
		return err
	}
	if grp.SchoolID != student.SchoolID.String {
		return user.ErrScopeMismatch
	}

	student.GroupID = null.StringFrom(grp.ID)
	_, err = svc.users.UpdateUser(ctx, student, nil)
	return err
}

func (svc *Service) sendInvitationMail(invitee user.User, sch school.School) {
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: invitee.FirstName, Address: invitee.Email}},
		Subject:      fmt.Sprintf("%s - You have been invited to join %s", svc.conf.AppName, sch.Name),
		TemplateName: "invitation",
		TemplateData: struct {
			User   user.User
			School school.School
		}{invitee, sch},
	}
	if err := msg.Render(svc.conf); err != nil {
		svc.log.Error("failed to render invitation email", err)
		return
	}
	svc.mailSvc.SendMessages(msg)
}
