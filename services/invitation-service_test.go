package services

import (
	"context"
	"testing"
	"time"

	"github.com/phongpt2005/my-task-manager-web/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type inviteFixture struct {
	invites  *InvitationService
	projects *ProjectService
	access   *AccessService
	store    *fakeInvitationStore
	users    *fakeUserDirectory
	sink     *recordingSink
	sent     []string
}

func newInviteFixture() *inviteFixture {
	projectStore := newFakeProjectStore()
	sink := &recordingSink{}
	projects := NewProjectService(projectStore, sink)

	store := newFakeInvitationStore()
	users := newFakeUserDirectory()

	f := &inviteFixture{
		projects: projects,
		access:   NewAccessService(projects),
		store:    store,
		users:    users,
		sink:     sink,
	}
	f.invites = NewInvitationService(store, projects, users, sink, "http://localhost:4200/invite")
	f.invites.SendEmail = func(to, subject, body string) error {
		f.sent = append(f.sent, to)
		return nil
	}
	return f
}

func TestInviteRejectsOwnerRole(t *testing.T) {
	f := newInviteFixture()
	creator := newTestActor()
	project, err := f.projects.CreateProject(context.Background(), creator, "Roadmap", "", "", "")
	require.NoError(t, err)

	_, err = f.invites.Invite(context.Background(), creator, project.ID, "b@example.com", models.RoleOwner)
	assert.ErrorIs(t, err, models.ErrInvalidRole)
}

func TestInviteRejectsExistingMember(t *testing.T) {
	f := newInviteFixture()
	creator := newTestActor()
	project, err := f.projects.CreateProject(context.Background(), creator, "Roadmap", "", "", "")
	require.NoError(t, err)

	memberID := primitive.NewObjectID()
	require.NoError(t, f.projects.AddMember(context.Background(), project.ID, memberID, models.RoleMember))
	f.users.byEmail["b@example.com"] = memberID

	_, err = f.invites.Invite(context.Background(), creator, project.ID, "B@Example.com", models.RoleViewer)
	assert.ErrorIs(t, err, models.ErrAlreadyMember)
}

func TestInviteRejectsDuplicatePending(t *testing.T) {
	f := newInviteFixture()
	creator := newTestActor()
	project, err := f.projects.CreateProject(context.Background(), creator, "Roadmap", "", "", "")
	require.NoError(t, err)

	_, err = f.invites.Invite(context.Background(), creator, project.ID, "b@example.com", models.RoleMember)
	require.NoError(t, err)

	_, err = f.invites.Invite(context.Background(), creator, project.ID, "B@EXAMPLE.COM", models.RoleViewer)
	assert.ErrorIs(t, err, models.ErrDuplicateInvite)
}

func TestInviteIssuesTokenAndSendsEmail(t *testing.T) {
	f := newInviteFixture()
	creator := newTestActor()
	project, err := f.projects.CreateProject(context.Background(), creator, "Roadmap", "", "", "")
	require.NoError(t, err)

	invite, err := f.invites.Invite(context.Background(), creator, project.ID, "B@Example.com ", models.RoleMember)
	require.NoError(t, err)

	assert.Equal(t, "b@example.com", invite.Email)
	assert.Equal(t, models.InviteStatusPending, invite.Status)
	assert.NotEmpty(t, invite.Token)
	assert.WithinDuration(t, time.Now().Add(models.InviteTTL), invite.ExpiresAt, time.Minute)
	assert.Equal(t, []string{"b@example.com"}, f.sent)
}

// Scenario iz specifikacije: A kreira projekat, pozove B-a, B prihvati,
// ponovno prihvatanje istog tokena pada sa AlreadyMember.
func TestInviteAcceptScenario(t *testing.T) {
	f := newInviteFixture()
	ctx := context.Background()

	creatorA := models.Actor{ID: primitive.NewObjectID(), Email: "a@example.com"}
	project, err := f.projects.CreateProject(ctx, creatorA, "Roadmap", "", "", "")
	require.NoError(t, err)

	resolved, ok := f.access.EffectiveRole(creatorA, project)
	require.True(t, ok)
	require.Equal(t, models.RoleOwner, resolved.Role)

	invite, err := f.invites.Invite(ctx, creatorA, project.ID, "b@example.com", models.RoleMember)
	require.NoError(t, err)

	actorB := models.Actor{ID: primitive.NewObjectID(), Email: "B@example.com"}
	joined, err := f.invites.Accept(ctx, invite.Token, actorB)
	require.NoError(t, err)

	member, ok := joined.FindMember(actorB.ID)
	require.True(t, ok)
	assert.Equal(t, models.RoleMember, member.Role)

	resolvedB, ok := f.access.EffectiveRole(actorB, joined)
	require.True(t, ok)
	assert.Equal(t, models.RoleMember, resolvedB.Role)

	assert.Contains(t, f.sink.events, "invite_accepted")

	// Token je jednokratan: ponovljeno prihvatanje ne duplira članstvo.
	_, err = f.invites.Accept(ctx, invite.Token, actorB)
	assert.ErrorIs(t, err, models.ErrAlreadyMember)

	final, err := f.projects.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Len(t, final.Members, 2)
}

func TestAcceptEmailMismatch(t *testing.T) {
	f := newInviteFixture()
	ctx := context.Background()
	creator := newTestActor()
	project, err := f.projects.CreateProject(ctx, creator, "Roadmap", "", "", "")
	require.NoError(t, err)

	invite, err := f.invites.Invite(ctx, creator, project.ID, "b@example.com", models.RoleMember)
	require.NoError(t, err)

	impostor := models.Actor{ID: primitive.NewObjectID(), Email: "c@example.com"}
	_, err = f.invites.Accept(ctx, invite.Token, impostor)
	assert.ErrorIs(t, err, models.ErrEmailMismatch)
}

func TestValidateExpiredInviteFailsBeforeSweep(t *testing.T) {
	f := newInviteFixture()
	ctx := context.Background()
	creator := newTestActor()
	project, err := f.projects.CreateProject(ctx, creator, "Roadmap", "", "", "")
	require.NoError(t, err)

	invite, err := f.invites.Invite(ctx, creator, project.ID, "b@example.com", models.RoleMember)
	require.NoError(t, err)

	// Rok ističe, ali status u skladištu i dalje piše pending.
	f.store.setExpiry(invite.ID, time.Now().Add(-time.Hour))

	_, err = f.invites.Validate(ctx, invite.Token)
	assert.ErrorIs(t, err, models.ErrInvalidOrExpiredInvite)

	actorB := models.Actor{ID: primitive.NewObjectID(), Email: "b@example.com"}
	_, err = f.invites.Accept(ctx, invite.Token, actorB)
	assert.ErrorIs(t, err, models.ErrInvalidOrExpiredInvite)
}

func TestValidateUnknownToken(t *testing.T) {
	f := newInviteFixture()
	_, err := f.invites.Validate(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, models.ErrInvalidOrExpiredInvite)
}

func TestCancelInvite(t *testing.T) {
	f := newInviteFixture()
	ctx := context.Background()
	creator := newTestActor()
	project, err := f.projects.CreateProject(ctx, creator, "Roadmap", "", "", "")
	require.NoError(t, err)

	invite, err := f.invites.Invite(ctx, creator, project.ID, "b@example.com", models.RoleMember)
	require.NoError(t, err)

	require.NoError(t, f.invites.Cancel(ctx, invite.ID))

	// Otkazana pozivnica je terminalna: token ne važi, ponovni cancel pada.
	_, err = f.invites.Validate(ctx, invite.Token)
	assert.ErrorIs(t, err, models.ErrInvalidOrExpiredInvite)
	assert.ErrorIs(t, f.invites.Cancel(ctx, invite.ID), models.ErrInviteNotFound)
}

func TestExpireSweepFlipsOverdueInvites(t *testing.T) {
	f := newInviteFixture()
	ctx := context.Background()
	creator := newTestActor()
	project, err := f.projects.CreateProject(ctx, creator, "Roadmap", "", "", "")
	require.NoError(t, err)

	invite, err := f.invites.Invite(ctx, creator, project.ID, "b@example.com", models.RoleMember)
	require.NoError(t, err)
	f.store.setExpiry(invite.ID, time.Now().Add(-time.Minute))

	f.invites.ExpireSweep(ctx)

	stored, err := f.store.FindByToken(ctx, invite.Token)
	require.NoError(t, err)
	assert.Equal(t, models.InviteStatusExpired, stored.Status)
}

func TestMyInvitesListsPendingOnly(t *testing.T) {
	f := newInviteFixture()
	ctx := context.Background()
	creator := newTestActor()
	projectA, err := f.projects.CreateProject(ctx, creator, "Roadmap", "", "", "")
	require.NoError(t, err)
	projectB, err := f.projects.CreateProject(ctx, creator, "Backlog", "", "", "")
	require.NoError(t, err)

	_, err = f.invites.Invite(ctx, creator, projectA.ID, "b@example.com", models.RoleMember)
	require.NoError(t, err)
	stale, err := f.invites.Invite(ctx, creator, projectB.ID, "b@example.com", models.RoleViewer)
	require.NoError(t, err)
	f.store.setExpiry(stale.ID, time.Now().Add(-time.Minute))

	invites, err := f.invites.MyInvites(ctx, models.Actor{Email: "B@example.com"})
	require.NoError(t, err)
	require.Len(t, invites, 1)
	assert.Equal(t, projectA.ID, invites[0].ProjectID)
}
