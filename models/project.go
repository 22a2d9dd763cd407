package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Project struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description" bson:"description"`
	Color       string             `json:"color" bson:"color"`
	Icon        string             `json:"icon" bson:"icon"`
	CreatedBy   primitive.ObjectID `json:"createdBy" bson:"created_by"`
	Members     []Member           `json:"members" bson:"members"`
	IsActive    bool               `json:"isActive" bson:"is_active"`
	// Version raste pri svakoj izmeni liste članova; koristi se za CAS upis.
	Version   int64     `json:"-" bson:"version"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

type Member struct {
	UserID   primitive.ObjectID `json:"userId" bson:"user_id"`
	Role     Role               `json:"role" bson:"role"`
	JoinedAt time.Time          `json:"joinedAt" bson:"joined_at"`
}

// ProjectUpdate nosi izmene opisnih polja; nil znači "ne diraj".
type ProjectUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Color       *string `json:"color,omitempty"`
	Icon        *string `json:"icon,omitempty"`
}

// FindMember returns the member entry for the given user, if any.
func (p *Project) FindMember(userID primitive.ObjectID) (Member, bool) {
	for _, m := range p.Members {
		if m.UserID == userID {
			return m, true
		}
	}
	return Member{}, false
}

func (p *Project) HasMember(userID primitive.ObjectID) bool {
	_, ok := p.FindMember(userID)
	return ok
}

// OwnerCount broji članove sa ulogom owner.
func (p *Project) OwnerCount() int {
	count := 0
	for _, m := range p.Members {
		if m.Role == RoleOwner {
			count++
		}
	}
	return count
}

// CanAccess reports whether the user is the creator or an explicit member.
func (p *Project) CanAccess(userID primitive.ObjectID) bool {
	return p.CreatedBy == userID || p.HasMember(userID)
}
