package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/phongpt2005/my-task-manager-web/logging"
	"github.com/phongpt2005/my-task-manager-web/models"
	"github.com/phongpt2005/my-task-manager-web/repositories"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProjectStore je jedini legitimni put do liste članova projekta.
type ProjectStore interface {
	Insert(ctx context.Context, project *models.Project) error
	FindByID(ctx context.Context, projectID primitive.ObjectID) (*models.Project, error)
	ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Project, error)
	UpdateDetails(ctx context.Context, projectID primitive.ObjectID, upd models.ProjectUpdate) (*models.Project, error)
	Deactivate(ctx context.Context, projectID primitive.ObjectID) error
	UpdateMembers(ctx context.Context, projectID primitive.ObjectID, version int64, members []models.Member) error
}

// EventSink prima best-effort obaveštenja; greške se nikada ne propagiraju
// nazad u operaciju koja ih je izazvala.
type EventSink interface {
	MemberAdded(projectID, userID primitive.ObjectID, role models.Role)
	MemberRemoved(projectID, userID primitive.ObjectID)
	RoleChanged(projectID, userID primitive.ObjectID, newRole models.Role)
	InviteAccepted(projectID, invitedBy, acceptedBy primitive.ObjectID)
}

const (
	// casAttempts bounds the optimistic-concurrency retry loop.
	casAttempts = 5
	// storageRetries bounds retries of transient storage failures.
	storageRetries = 3
	retryBackoff   = 100 * time.Millisecond
)

type ProjectService struct {
	store  ProjectStore
	events EventSink
}

func NewProjectService(store ProjectStore, events EventSink) *ProjectService {
	return &ProjectService{store: store, events: events}
}

// CreateProject creates a project with the caller materialized as its sole
// owner member, so access checks never need the creator fallback for new data.
func (s *ProjectService) CreateProject(ctx context.Context, actor models.Actor, name, description, color, icon string) (*models.Project, error) {
	if name == "" {
		return nil, fmt.Errorf("project name is required")
	}
	if color == "" {
		color = "#667eea"
	}
	if icon == "" {
		icon = "📁"
	}

	now := time.Now()
	project := &models.Project{
		ID:          primitive.NewObjectID(),
		Name:        name,
		Description: description,
		Color:       color,
		Icon:        icon,
		CreatedBy:   actor.ID,
		Members: []models.Member{
			{UserID: actor.ID, Role: models.RoleOwner, JoinedAt: now},
		},
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.withStorageRetry(ctx, func() error {
		return s.store.Insert(ctx, project)
	}); err != nil {
		return nil, err
	}
	return project, nil
}

// GetProject vraća aktivan projekat; deaktivirani se tretiraju kao nepostojeći.
func (s *ProjectService) GetProject(ctx context.Context, projectID primitive.ObjectID) (*models.Project, error) {
	var project *models.Project
	err := s.withStorageRetry(ctx, func() error {
		var err error
		project, err = s.store.FindByID(ctx, projectID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !project.IsActive {
		return nil, models.ErrProjectNotFound
	}
	return project, nil
}

func (s *ProjectService) ListProjects(ctx context.Context, actor models.Actor) ([]models.Project, error) {
	return s.store.ListForUser(ctx, actor.ID)
}

func (s *ProjectService) UpdateProject(ctx context.Context, projectID primitive.ObjectID, upd models.ProjectUpdate) (*models.Project, error) {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.store.UpdateDetails(ctx, projectID, upd)
}

// DeleteProject je soft delete.
func (s *ProjectService) DeleteProject(ctx context.Context, projectID primitive.ObjectID) error {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return err
	}
	return s.store.Deactivate(ctx, projectID)
}

// AddMember appends a member. Fails with ErrAlreadyMember if present and
// ErrInvalidRole if someone tries to hand out ownership by direct add.
func (s *ProjectService) AddMember(ctx context.Context, projectID, userID primitive.ObjectID, role models.Role) error {
	if !role.IsAssignable() {
		return fmt.Errorf("%w: %q", models.ErrInvalidRole, role)
	}

	err := s.mutateMembers(ctx, projectID, func(p *models.Project) error {
		if p.HasMember(userID) {
			return models.ErrAlreadyMember
		}
		p.Members = append(p.Members, models.Member{
			UserID:   userID,
			Role:     role,
			JoinedAt: time.Now(),
		})
		return nil
	})
	if err != nil {
		return err
	}

	s.events.MemberAdded(projectID, userID, role)
	return nil
}

// RemoveMember removes a member; the owner can never be removed, ownership
// has to be transferred first.
func (s *ProjectService) RemoveMember(ctx context.Context, projectID, userID primitive.ObjectID) error {
	err := s.mutateMembers(ctx, projectID, func(p *models.Project) error {
		member, ok := p.FindMember(userID)
		if !ok {
			return models.ErrNotAMember
		}
		if member.Role == models.RoleOwner {
			return models.ErrCannotRemoveOwner
		}
		p.Members = removeMember(p.Members, userID)
		return nil
	})
	if err != nil {
		return err
	}

	s.events.MemberRemoved(projectID, userID)
	return nil
}

// ChangeRole menja ulogu člana. Promocija u owner-a u istom upisu demotuje
// dotadašnjeg vlasnika u manager-a, tako da projekat uvek ima tačno jednog.
func (s *ProjectService) ChangeRole(ctx context.Context, projectID, userID primitive.ObjectID, newRole models.Role) error {
	if _, err := models.ParseRole(string(newRole)); err != nil {
		return err
	}

	err := s.mutateMembers(ctx, projectID, func(p *models.Project) error {
		idx := -1
		for i := range p.Members {
			if p.Members[i].UserID == userID {
				idx = i
				break
			}
		}
		if idx == -1 {
			return models.ErrNotAMember
		}

		if newRole == models.RoleOwner {
			for i := range p.Members {
				if p.Members[i].Role == models.RoleOwner {
					p.Members[i].Role = models.RoleManager
				}
			}
		}
		p.Members[idx].Role = newRole
		return nil
	})
	if err != nil {
		return err
	}

	// Demotions inside the same write are not notified separately.
	s.events.RoleChanged(projectID, userID, newRole)
	return nil
}

// Leave uklanja samog aktera; vlasnik prvo mora da prenese vlasništvo.
func (s *ProjectService) Leave(ctx context.Context, projectID primitive.ObjectID, actor models.Actor) error {
	return s.RemoveMember(ctx, projectID, actor.ID)
}

// mutateMembers is the single read-modify-write path for the member list:
// read the project, apply fn on the in-memory copy, write back with a version
// check and retry from a fresh read when a concurrent writer won the race.
func (s *ProjectService) mutateMembers(ctx context.Context, projectID primitive.ObjectID, fn func(*models.Project) error) error {
	for attempt := 0; attempt < casAttempts; attempt++ {
		var project *models.Project
		err := s.withStorageRetry(ctx, func() error {
			var err error
			project, err = s.store.FindByID(ctx, projectID)
			return err
		})
		if err != nil {
			return err
		}
		if !project.IsActive {
			return models.ErrProjectNotFound
		}

		if err := fn(project); err != nil {
			return err
		}

		if len(project.Members) > 0 && project.OwnerCount() > 1 {
			logging.Logger.Errorf("Event ID: OWNER_INVARIANT_VIOLATION, Description: project %s would end up with %d owners", projectID.Hex(), project.OwnerCount())
			return models.ErrOwnerConflict
		}

		err = s.withStorageRetry(ctx, func() error {
			return s.store.UpdateMembers(ctx, projectID, project.Version, project.Members)
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, repositories.ErrVersionConflict) {
			return err
		}
		// Lost the race, re-read and try again.
	}
	return fmt.Errorf("%w: too many concurrent updates", models.ErrStorageUnavailable)
}

// withStorageRetry ponavlja prolazne greške skladišta sa backoff-om pre nego
// što ih preda pozivaocu.
func (s *ProjectService) withStorageRetry(ctx context.Context, op func() error) error {
	var err error
	for attempt := 0; attempt <= storageRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retryBackoff << (attempt - 1)):
			case <-ctx.Done():
				return fmt.Errorf("%w: %v", models.ErrStorageUnavailable, ctx.Err())
			}
		}
		err = op()
		if err == nil || !errors.Is(err, models.ErrStorageUnavailable) {
			return err
		}
	}
	return err
}

func removeMember(members []models.Member, userID primitive.ObjectID) []models.Member {
	result := members[:0]
	for _, m := range members {
		if m.UserID != userID {
			result = append(result, m)
		}
	}
	return result
}
