package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/phongpt2005/my-task-manager-web/logging"
	"github.com/phongpt2005/my-task-manager-web/models"
	"github.com/phongpt2005/my-task-manager-web/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type InvitationStore interface {
	Insert(ctx context.Context, invite *models.Invitation) error
	FindByToken(ctx context.Context, token string) (*models.Invitation, error)
	FindPending(ctx context.Context, projectID primitive.ObjectID, email string) (*models.Invitation, error)
	ListPendingForEmail(ctx context.Context, email string) ([]models.Invitation, error)
	TransitionStatus(ctx context.Context, inviteID primitive.ObjectID, to models.InviteStatus) error
	ExpirePending(ctx context.Context, now time.Time) (int64, error)
}

// UserDirectory maps an invite email onto a known user, when one exists.
type UserDirectory interface {
	FindIDByEmail(ctx context.Context, email string) (primitive.ObjectID, bool, error)
}

type InvitationService struct {
	store    InvitationStore
	projects *ProjectService
	users    UserDirectory
	events   EventSink
	// SendEmail i AcceptURL su izdvojeni radi testova; podrazumevano ide
	// utils.SendEmail sa linkom ka frontend stranici za prihvatanje.
	SendEmail func(to, subject, body string) error
	AcceptURL string
}

func NewInvitationService(store InvitationStore, projects *ProjectService, users UserDirectory, events EventSink, acceptURL string) *InvitationService {
	return &InvitationService{
		store:     store,
		projects:  projects,
		users:     users,
		events:    events,
		SendEmail: utils.SendEmail,
		AcceptURL: acceptURL,
	}
}

// Invite kreira pending pozivnicu sa jednokratnim tokenom. Vlasništvo se ne
// dodeljuje pozivnicom.
func (s *InvitationService) Invite(ctx context.Context, actor models.Actor, projectID primitive.ObjectID, email string, role models.Role) (*models.Invitation, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if !role.IsAssignable() {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidRole, role)
	}

	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	// Ako email već pripada članu, pozivnica nema smisla.
	if userID, found, err := s.users.FindIDByEmail(ctx, email); err != nil {
		return nil, err
	} else if found && project.HasMember(userID) {
		return nil, models.ErrAlreadyMember
	}

	if _, err := s.store.FindPending(ctx, projectID, email); err == nil {
		return nil, models.ErrDuplicateInvite
	} else if !errors.Is(err, models.ErrInviteNotFound) {
		return nil, err
	}

	token, err := utils.GenerateInviteToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate invite token: %v", err)
	}

	now := time.Now()
	invite := &models.Invitation{
		ID:        primitive.NewObjectID(),
		ProjectID: projectID,
		InvitedBy: actor.ID,
		Email:     email,
		Role:      role,
		Token:     token,
		Status:    models.InviteStatusPending,
		ExpiresAt: now.Add(models.InviteTTL),
		CreatedAt: now,
	}

	// Jedinstveni parcijalni indeks hvata duplu pending pozivnicu i kada dva
	// zahteva prođu proveru iznad u isto vreme.
	if err := s.store.Insert(ctx, invite); err != nil {
		return nil, err
	}

	// Email je best-effort: pozivnica važi i kada slanje ne uspe.
	subject := fmt.Sprintf("You have been invited to the project %q", project.Name)
	body := fmt.Sprintf("You were invited to join %q as %s.<br>Accept here: %s/%s<br>The invitation expires on %s.",
		project.Name, invite.Role, s.AcceptURL, invite.Token, invite.ExpiresAt.Format("2006-01-02"))
	if err := s.SendEmail(email, subject, body); err != nil {
		logging.Logger.Warnf("Event ID: INVITE_EMAIL_FAILED, Description: failed to send invite email to %s: %v", email, err)
	}

	return invite, nil
}

// Validate returns the invitation behind a token if it is still pending and
// unexpired. Expiry is judged by the clock, never by the stored status alone.
func (s *InvitationService) Validate(ctx context.Context, token string) (*models.Invitation, error) {
	invite, err := s.store.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, models.ErrInviteNotFound) {
			return nil, models.ErrInvalidOrExpiredInvite
		}
		return nil, err
	}
	if !invite.IsValid() {
		return nil, models.ErrInvalidOrExpiredInvite
	}
	return invite, nil
}

// Accept exchanges a token for membership. The member insert runs first and
// the status flip keys on status=pending, so replaying the token either hits
// ErrAlreadyMember or ErrInvalidOrExpiredInvite and never duplicates a member.
func (s *InvitationService) Accept(ctx context.Context, token string, actor models.Actor) (*models.Project, error) {
	invite, err := s.store.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, models.ErrInviteNotFound) {
			return nil, models.ErrInvalidOrExpiredInvite
		}
		return nil, err
	}

	if !strings.EqualFold(invite.Email, actor.Email) {
		return nil, models.ErrEmailMismatch
	}

	project, err := s.projects.GetProject(ctx, invite.ProjectID)
	if err != nil {
		return nil, err
	}
	// Replay posle uspešnog prihvatanja pada ovde, pre provere statusa.
	if project.HasMember(actor.ID) {
		return nil, models.ErrAlreadyMember
	}

	if !invite.IsValid() {
		return nil, models.ErrInvalidOrExpiredInvite
	}

	if err := s.projects.AddMember(ctx, invite.ProjectID, actor.ID, invite.Role); err != nil {
		return nil, err
	}

	if err := s.store.TransitionStatus(ctx, invite.ID, models.InviteStatusAccepted); err != nil {
		if errors.Is(err, models.ErrInviteNotFound) {
			return nil, models.ErrInvalidOrExpiredInvite
		}
		return nil, err
	}

	s.events.InviteAccepted(invite.ProjectID, invite.InvitedBy, actor.ID)

	return s.projects.GetProject(ctx, invite.ProjectID)
}

// Cancel povlači pending pozivnicu; već iskorišćena ili nepostojeća vraća
// ErrInviteNotFound.
func (s *InvitationService) Cancel(ctx context.Context, inviteID primitive.ObjectID) error {
	return s.store.TransitionStatus(ctx, inviteID, models.InviteStatusRejected)
}

// MyInvites lista pending, neistekle pozivnice za email aktera.
func (s *InvitationService) MyInvites(ctx context.Context, actor models.Actor) ([]models.Invitation, error) {
	return s.store.ListPendingForEmail(ctx, strings.ToLower(actor.Email))
}

// ExpireSweep lazily flips overdue invitations to expired. Validation never
// depends on it having run.
func (s *InvitationService) ExpireSweep(ctx context.Context) {
	flipped, err := s.store.ExpirePending(ctx, time.Now())
	if err != nil {
		logging.Logger.Warnf("Event ID: INVITE_SWEEP_FAILED, Description: failed to expire invitations: %v", err)
		return
	}
	if flipped > 0 {
		logging.Logger.Infof("Event ID: INVITE_SWEEP, Description: marked %d invitations as expired", flipped)
	}
}
