package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/phongpt2005/my-task-manager-web/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type InvitationRepo struct {
	collection *mongo.Collection
}

func NewInvitationRepo(collection *mongo.Collection) *InvitationRepo {
	return &InvitationRepo{collection: collection}
}

// EnsureIndexes: jedinstven token, parcijalno jedinstven (projekat, email) za
// pending pozivnice i TTL indeks koji vremenom počisti istekle dokumente.
// Ispravnost ne zavisi od TTL indeksa - Validate uvek gleda expires_at.
func (r *InvitationRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "project_id", Value: 1}, {Key: "email", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": string(models.InviteStatusPending)}),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create invitation indexes: %v", err)
	}
	return nil
}

func (r *InvitationRepo) Insert(ctx context.Context, invite *models.Invitation) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, invite)
	if err != nil {
		// Parcijalni indeks zatvara check-then-insert trku za duple pozivnice.
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrDuplicateInvite
		}
		return wrapStorageErr("failed to insert invitation", err)
	}
	invite.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *InvitationRepo) FindByToken(ctx context.Context, token string) (*models.Invitation, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var invite models.Invitation
	err := r.collection.FindOne(ctx, bson.M{"token": token}).Decode(&invite)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrInviteNotFound
		}
		return nil, wrapStorageErr("failed to fetch invitation", err)
	}
	return &invite, nil
}

func (r *InvitationRepo) FindPending(ctx context.Context, projectID primitive.ObjectID, email string) (*models.Invitation, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	filter := bson.M{
		"project_id": projectID,
		"email":      email,
		"status":     models.InviteStatusPending,
	}

	var invite models.Invitation
	err := r.collection.FindOne(ctx, filter).Decode(&invite)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrInviteNotFound
		}
		return nil, wrapStorageErr("failed to fetch pending invitation", err)
	}
	return &invite, nil
}

// ListPendingForEmail vraća neistekle pending pozivnice za dati email.
func (r *InvitationRepo) ListPendingForEmail(ctx context.Context, email string) ([]models.Invitation, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	filter := bson.M{
		"email":      email,
		"status":     models.InviteStatusPending,
		"expires_at": bson.M{"$gt": time.Now()},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, wrapStorageErr("failed to list invitations", err)
	}
	defer cursor.Close(ctx)

	var invites []models.Invitation
	if err := cursor.All(ctx, &invites); err != nil {
		return nil, wrapStorageErr("failed to decode invitations", err)
	}
	return invites, nil
}

// TransitionStatus flips a pending invitation to a terminal status. The
// filter keys on status=pending so a token can be consumed exactly once;
// ErrInviteNotFound means the invitation is absent or already terminal.
func (r *InvitationRepo) TransitionStatus(ctx context.Context, inviteID primitive.ObjectID, to models.InviteStatus) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": inviteID, "status": models.InviteStatusPending},
		bson.M{"$set": bson.M{"status": to}},
	)
	if err != nil {
		return wrapStorageErr("failed to update invitation status", err)
	}
	if result.ModifiedCount == 0 {
		return models.ErrInviteNotFound
	}
	return nil
}

// ExpirePending lazily flips overdue pending invitations to expired.
func (r *InvitationRepo) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.collection.UpdateMany(ctx,
		bson.M{"status": models.InviteStatusPending, "expires_at": bson.M{"$lte": now}},
		bson.M{"$set": bson.M{"status": models.InviteStatusExpired}},
	)
	if err != nil {
		return 0, wrapStorageErr("failed to expire invitations", err)
	}
	return result.ModifiedCount, nil
}
