package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/phongpt2005/my-task-manager-web/logging"
	"github.com/phongpt2005/my-task-manager-web/models"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// notificationEvent je ugovor prema notifications servisu.
type notificationEvent struct {
	EventID   string `json:"eventId"`
	Type      string `json:"type"`
	ProjectID string `json:"projectId"`
	UserID    string `json:"userId,omitempty"`
	InvitedBy string `json:"invitedBy,omitempty"`
	Role      string `json:"role,omitempty"`
	Timestamp string `json:"timestamp"`
}

// NotificationClient sends membership events to the notifications service.
// Delivery is best-effort: every failure is logged and swallowed so the
// membership operation that produced the event never fails because of it.
type NotificationClient struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

func NewNotificationClient(baseURL string, httpClient *http.Client) *NotificationClient {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "notifications-cb",
		MaxRequests: 1,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})
	return &NotificationClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		breaker:    breaker,
	}
}

func (c *NotificationClient) MemberAdded(projectID, userID primitive.ObjectID, role models.Role) {
	c.publish(notificationEvent{
		Type:      "member_added",
		ProjectID: projectID.Hex(),
		UserID:    userID.Hex(),
		Role:      string(role),
	})
}

func (c *NotificationClient) MemberRemoved(projectID, userID primitive.ObjectID) {
	c.publish(notificationEvent{
		Type:      "member_removed",
		ProjectID: projectID.Hex(),
		UserID:    userID.Hex(),
	})
}

func (c *NotificationClient) RoleChanged(projectID, userID primitive.ObjectID, newRole models.Role) {
	c.publish(notificationEvent{
		Type:      "role_changed",
		ProjectID: projectID.Hex(),
		UserID:    userID.Hex(),
		Role:      string(newRole),
	})
}

func (c *NotificationClient) InviteAccepted(projectID, invitedBy, acceptedBy primitive.ObjectID) {
	c.publish(notificationEvent{
		Type:      "invite_accepted",
		ProjectID: projectID.Hex(),
		UserID:    acceptedBy.Hex(),
		InvitedBy: invitedBy.Hex(),
	})
}

func (c *NotificationClient) publish(event notificationEvent) {
	event.EventID = uuid.New().String()
	event.Timestamp = time.Now().Format(time.RFC3339)

	_, err := c.breaker.Execute(func() (interface{}, error) {
		payload, err := json.Marshal(event)
		if err != nil {
			return nil, err
		}
		resp, err := c.httpClient.Post(c.baseURL+"/api/notifications", "application/json", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, fmt.Errorf("notifications service returned status %d", resp.StatusCode)
		}
		return nil, nil
	})
	if err != nil {
		logging.Logger.Warnf("Event ID: NOTIFICATION_PUBLISH_FAILED, Description: failed to publish %s event for project %s: %v", event.Type, event.ProjectID, err)
	}
}
