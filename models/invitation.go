package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
	InviteStatusRejected InviteStatus = "rejected"
	InviteStatusExpired  InviteStatus = "expired"
)

// InviteTTL je podrazumevani rok važenja pozivnice.
const InviteTTL = 7 * 24 * time.Hour

type Invitation struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ProjectID primitive.ObjectID `json:"projectId" bson:"project_id"`
	InvitedBy primitive.ObjectID `json:"invitedBy" bson:"invited_by"`
	Email     string             `json:"email" bson:"email"`
	Role      Role               `json:"role" bson:"role"`
	// Token is a single-use bearer credential; unique across the whole system.
	Token     string       `json:"token,omitempty" bson:"token"`
	Status    InviteStatus `json:"status" bson:"status"`
	ExpiresAt time.Time    `json:"expiresAt" bson:"expires_at"`
	CreatedAt time.Time    `json:"createdAt" bson:"created_at"`
}

// IsValid checks validity against the wall clock, not against the stored
// status alone: an invite past its deadline is invalid even before any
// background sweep flips it to expired.
func (i *Invitation) IsValid() bool {
	return i.Status == InviteStatusPending && time.Now().Before(i.ExpiresAt)
}
