package services

import (
	"context"
	"sync"
	"time"

	"github.com/phongpt2005/my-task-manager-web/models"
	"github.com/phongpt2005/my-task-manager-web/repositories"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeProjectStore drži projekte u memoriji i sprovodi istu CAS semantiku
// kao mongo repozitorijum: upis prolazi samo ako se verzija poklapa.
type fakeProjectStore struct {
	mu       sync.Mutex
	projects map[primitive.ObjectID]*models.Project
	// failFinds injects transient storage failures for retry tests.
	failFinds int
}

func newFakeProjectStore() *fakeProjectStore {
	return &fakeProjectStore{projects: make(map[primitive.ObjectID]*models.Project)}
}

func copyProject(p *models.Project) *models.Project {
	cp := *p
	cp.Members = append([]models.Member(nil), p.Members...)
	return &cp
}

func (s *fakeProjectStore) Insert(ctx context.Context, project *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[project.ID] = copyProject(project)
	return nil
}

func (s *fakeProjectStore) FindByID(ctx context.Context, projectID primitive.ObjectID) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFinds > 0 {
		s.failFinds--
		return nil, models.ErrStorageUnavailable
	}
	project, ok := s.projects[projectID]
	if !ok {
		return nil, models.ErrProjectNotFound
	}
	return copyProject(project), nil
}

func (s *fakeProjectStore) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.Project
	for _, p := range s.projects {
		if p.IsActive && p.CanAccess(userID) {
			result = append(result, *copyProject(p))
		}
	}
	return result, nil
}

func (s *fakeProjectStore) UpdateDetails(ctx context.Context, projectID primitive.ObjectID, upd models.ProjectUpdate) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	project, ok := s.projects[projectID]
	if !ok {
		return nil, models.ErrProjectNotFound
	}
	if upd.Name != nil {
		project.Name = *upd.Name
	}
	if upd.Description != nil {
		project.Description = *upd.Description
	}
	if upd.Color != nil {
		project.Color = *upd.Color
	}
	if upd.Icon != nil {
		project.Icon = *upd.Icon
	}
	project.UpdatedAt = time.Now()
	return copyProject(project), nil
}

func (s *fakeProjectStore) Deactivate(ctx context.Context, projectID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	project, ok := s.projects[projectID]
	if !ok {
		return models.ErrProjectNotFound
	}
	project.IsActive = false
	return nil
}

func (s *fakeProjectStore) UpdateMembers(ctx context.Context, projectID primitive.ObjectID, version int64, members []models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	project, ok := s.projects[projectID]
	if !ok {
		return models.ErrProjectNotFound
	}
	if project.Version != version {
		return repositories.ErrVersionConflict
	}
	project.Members = append([]models.Member(nil), members...)
	project.Version++
	project.UpdatedAt = time.Now()
	return nil
}

// recordingSink pamti objavljene događaje.
type recordingSink struct {
	mu     sync.Mutex
	events []string
}

func (s *recordingSink) record(event string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *recordingSink) MemberAdded(projectID, userID primitive.ObjectID, role models.Role) {
	s.record("member_added:" + string(role))
}

func (s *recordingSink) MemberRemoved(projectID, userID primitive.ObjectID) {
	s.record("member_removed")
}

func (s *recordingSink) RoleChanged(projectID, userID primitive.ObjectID, newRole models.Role) {
	s.record("role_changed:" + string(newRole))
}

func (s *recordingSink) InviteAccepted(projectID, invitedBy, acceptedBy primitive.ObjectID) {
	s.record("invite_accepted")
}

type fakeInvitationStore struct {
	mu      sync.Mutex
	invites map[primitive.ObjectID]*models.Invitation
}

func newFakeInvitationStore() *fakeInvitationStore {
	return &fakeInvitationStore{invites: make(map[primitive.ObjectID]*models.Invitation)}
}

func (s *fakeInvitationStore) Insert(ctx context.Context, invite *models.Invitation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.invites {
		if existing.ProjectID == invite.ProjectID && existing.Email == invite.Email &&
			existing.Status == models.InviteStatusPending {
			return models.ErrDuplicateInvite
		}
	}
	cp := *invite
	s.invites[invite.ID] = &cp
	return nil
}

func (s *fakeInvitationStore) FindByToken(ctx context.Context, token string) (*models.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, invite := range s.invites {
		if invite.Token == token {
			cp := *invite
			return &cp, nil
		}
	}
	return nil, models.ErrInviteNotFound
}

func (s *fakeInvitationStore) FindPending(ctx context.Context, projectID primitive.ObjectID, email string) (*models.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, invite := range s.invites {
		if invite.ProjectID == projectID && invite.Email == email && invite.Status == models.InviteStatusPending {
			cp := *invite
			return &cp, nil
		}
	}
	return nil, models.ErrInviteNotFound
}

func (s *fakeInvitationStore) ListPendingForEmail(ctx context.Context, email string) ([]models.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.Invitation
	for _, invite := range s.invites {
		if invite.Email == email && invite.Status == models.InviteStatusPending && time.Now().Before(invite.ExpiresAt) {
			result = append(result, *invite)
		}
	}
	return result, nil
}

func (s *fakeInvitationStore) TransitionStatus(ctx context.Context, inviteID primitive.ObjectID, to models.InviteStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	invite, ok := s.invites[inviteID]
	if !ok || invite.Status != models.InviteStatusPending {
		return models.ErrInviteNotFound
	}
	invite.Status = to
	return nil
}

func (s *fakeInvitationStore) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var flipped int64
	for _, invite := range s.invites {
		if invite.Status == models.InviteStatusPending && !invite.ExpiresAt.After(now) {
			invite.Status = models.InviteStatusExpired
			flipped++
		}
	}
	return flipped, nil
}

// setExpiry pomera rok pozivnice unazad za test isteka.
func (s *fakeInvitationStore) setExpiry(inviteID primitive.ObjectID, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if invite, ok := s.invites[inviteID]; ok {
		invite.ExpiresAt = expiresAt
	}
}

type fakeUserDirectory struct {
	byEmail map[string]primitive.ObjectID
}

func newFakeUserDirectory() *fakeUserDirectory {
	return &fakeUserDirectory{byEmail: make(map[string]primitive.ObjectID)}
}

func (d *fakeUserDirectory) FindIDByEmail(ctx context.Context, email string) (primitive.ObjectID, bool, error) {
	id, ok := d.byEmail[email]
	return id, ok, nil
}
