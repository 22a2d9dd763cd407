package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in progress"
	StatusCompleted  TaskStatus = "completed"
)

// Task carries only the fields the edit gate needs; the tasks service owns
// the full document.
type Task struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ProjectID primitive.ObjectID `json:"projectId" bson:"project_id"`
	Title     string             `json:"title" bson:"title"`
	Status    TaskStatus         `json:"status" bson:"status"`
	CreatedBy primitive.ObjectID `json:"createdBy" bson:"created_by"`
}
