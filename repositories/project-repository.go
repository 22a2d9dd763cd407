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

// ErrVersionConflict se vraća kada CAS upis ne prođe jer je neko drugi
// u međuvremenu izmenio listu članova. Servis ponavlja operaciju.
var ErrVersionConflict = errors.New("project version conflict")

// queryTimeout bounds every storage round trip so no operation can hang.
const queryTimeout = 5 * time.Second

type ProjectRepo struct {
	collection *mongo.Collection
}

func NewProjectRepo(collection *mongo.Collection) *ProjectRepo {
	return &ProjectRepo{collection: collection}
}

// EnsureIndexes creates the lookup indexes used by access resolution and
// membership listing.
func (r *ProjectRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_by", Value: 1}, {Key: "is_active", Value: 1}}},
		{Keys: bson.D{{Key: "members.user_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create project indexes: %v", err)
	}
	return nil
}

func (r *ProjectRepo) Insert(ctx context.Context, project *models.Project) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, project)
	if err != nil {
		return wrapStorageErr("failed to insert project", err)
	}
	project.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *ProjectRepo) FindByID(ctx context.Context, projectID primitive.ObjectID) (*models.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var project models.Project
	err := r.collection.FindOne(ctx, bson.M{"_id": projectID}).Decode(&project)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrProjectNotFound
		}
		return nil, wrapStorageErr("failed to fetch project", err)
	}
	return &project, nil
}

// ListForUser vraća aktivne projekte u kojima je korisnik kreator ili član.
// Čitanje bez ordering garancija - može ići na repliku.
func (r *ProjectRepo) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	filter := bson.M{
		"is_active": true,
		"$or": []bson.M{
			{"created_by": userID},
			{"members.user_id": userID},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, wrapStorageErr("failed to list projects", err)
	}
	defer cursor.Close(ctx)

	var projects []models.Project
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, wrapStorageErr("failed to decode projects", err)
	}
	return projects, nil
}

func (r *ProjectRepo) UpdateDetails(ctx context.Context, projectID primitive.ObjectID, upd models.ProjectUpdate) (*models.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	fields := bson.M{"updated_at": time.Now()}
	if upd.Name != nil {
		fields["name"] = *upd.Name
	}
	if upd.Description != nil {
		fields["description"] = *upd.Description
	}
	if upd.Color != nil {
		fields["color"] = *upd.Color
	}
	if upd.Icon != nil {
		fields["icon"] = *upd.Icon
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var project models.Project
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": projectID}, bson.M{"$set": fields}, opts).Decode(&project)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrProjectNotFound
		}
		return nil, wrapStorageErr("failed to update project", err)
	}
	return &project, nil
}

// Deactivate je soft delete - projekat se nikada fizički ne briše.
func (r *ProjectRepo) Deactivate(ctx context.Context, projectID primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": projectID},
		bson.M{"$set": bson.M{"is_active": false, "updated_at": time.Now()}},
	)
	if err != nil {
		return wrapStorageErr("failed to deactivate project", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrProjectNotFound
	}
	return nil
}

// UpdateMembers replaces the member list only if the stored version still
// matches the one the caller read. A concurrent writer bumps the version,
// the filter no longer matches and the caller gets ErrVersionConflict.
func (r *ProjectRepo) UpdateMembers(ctx context.Context, projectID primitive.ObjectID, version int64, members []models.Member) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	filter := bson.M{"_id": projectID, "version": version}
	update := bson.M{
		"$set": bson.M{"members": members, "updated_at": time.Now()},
		"$inc": bson.M{"version": 1},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return wrapStorageErr("failed to update project members", err)
	}
	if result.MatchedCount == 0 {
		// Razlikuj nestali projekat od izgubljene trke po verziji.
		count, err := r.collection.CountDocuments(ctx, bson.M{"_id": projectID})
		if err != nil {
			return wrapStorageErr("failed to check project existence", err)
		}
		if count == 0 {
			return models.ErrProjectNotFound
		}
		return ErrVersionConflict
	}
	return nil
}

// wrapStorageErr classifies driver failures: timeouts and network errors are
// transient and retryable, everything else propagates as-is.
func wrapStorageErr(msg string, err error) error {
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %v", msg, models.ErrStorageUnavailable, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
