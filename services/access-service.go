package services

import (
	"context"
	"fmt"

	"github.com/phongpt2005/my-task-manager-web/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AccessService računa efektivnu ulogu aktera i čuva je kao jedini ulaz za
// sve provere dozvola nad projektima i zadacima.
type AccessService struct {
	projects *ProjectService
}

func NewAccessService(projects *ProjectService) *AccessService {
	return &AccessService{projects: projects}
}

// ResolvedRole says where the role came from. LegacyCreator marks the
// read-time compatibility shim for old projects whose creator was never
// written into the member list; new projects never hit it.
type ResolvedRole struct {
	Role          models.Role
	LegacyCreator bool
}

// EffectiveRole resolves in order: global admin override, explicit
// membership, creator fallback. Pure - safe to call as a guard anywhere.
func (s *AccessService) EffectiveRole(actor models.Actor, project *models.Project) (ResolvedRole, bool) {
	if actor.IsAdmin {
		return ResolvedRole{Role: models.RoleAdmin}, true
	}
	if member, ok := project.FindMember(actor.ID); ok {
		return ResolvedRole{Role: member.Role}, true
	}
	if project.CreatedBy == actor.ID {
		return ResolvedRole{Role: models.RoleOwner, LegacyCreator: true}, true
	}
	return ResolvedRole{}, false
}

// Authorize loads the project and checks a single capability. An actor with
// no access at all gets ErrProjectNotFound so the check leaks nothing about
// the project's existence; ErrForbidden only once some access is confirmed.
func (s *AccessService) Authorize(ctx context.Context, actor models.Actor, projectID primitive.ObjectID, capability models.Capability) (*models.Project, error) {
	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	resolved, ok := s.EffectiveRole(actor, project)
	if !ok {
		return nil, models.ErrProjectNotFound
	}
	if !resolved.Role.Can(capability) {
		return nil, fmt.Errorf("%w: role %q lacks capability %q", models.ErrForbidden, resolved.Role, capability)
	}
	return project, nil
}

// AuthorizeRole je varijanta za operacije vezane za ulogu, a ne za
// pojedinačnu dozvolu (npr. samo owner sme da obriše projekat).
func (s *AccessService) AuthorizeRole(ctx context.Context, actor models.Actor, projectID primitive.ObjectID, allowed ...models.Role) (*models.Project, error) {
	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	resolved, ok := s.EffectiveRole(actor, project)
	if !ok {
		return nil, models.ErrProjectNotFound
	}
	if resolved.Role == models.RoleAdmin {
		return project, nil
	}
	for _, role := range allowed {
		if resolved.Role == role {
			return project, nil
		}
	}
	return nil, fmt.Errorf("%w: role %q is not allowed for this operation", models.ErrForbidden, resolved.Role)
}

// AuthorizeTaskEdit: admin, owner i manager menjaju svaki zadatak; member
// samo zadatke koje je sam kreirao; viewer nijedan.
func (s *AccessService) AuthorizeTaskEdit(ctx context.Context, actor models.Actor, projectID primitive.ObjectID, task *models.Task) error {
	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return err
	}

	resolved, ok := s.EffectiveRole(actor, project)
	if !ok {
		return models.ErrProjectNotFound
	}

	switch resolved.Role {
	case models.RoleAdmin, models.RoleOwner, models.RoleManager:
		return nil
	case models.RoleMember:
		if task.CreatedBy == actor.ID {
			return nil
		}
		return fmt.Errorf("%w: members may only edit their own tasks", models.ErrForbidden)
	default:
		return fmt.Errorf("%w: role %q cannot edit tasks", models.ErrForbidden, resolved.Role)
	}
}
