package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Notification struct {
	Id        primitive.ObjectID     `json:"_id" bson:"_id,omitempty"`
	Recipient primitive.ObjectID     `json:"recipient" bson:"recipient"`
	Sender    primitive.ObjectID     `json:"sender,omitempty" bson:"sender,omitempty"`
	Type      NotificationType       `json:"type" bson:"type"`
	Title     string                 `json:"title" bson:"title"`
	Message   string                 `json:"message" bson:"message"`
	Data      map[string]interface{} `json:"data,omitempty" bson:"data,omitempty"`
	Read      bool                   `json:"read" bson:"read"`
	CreatedAt time.Time              `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt" bson:"updatedAt"`
}

type NotificationType string

const (
	NotificationTypeConnectionRequest   NotificationType = "connection_request"
	NotificationTypeConnectionAccepted  NotificationType = "connection_accepted"
	NotificationTypeConnectionWithdrawn NotificationType = "connection_withdrawn"
	NotificationTypeMessage             NotificationType = "message"
	NotificationTypeSystem              NotificationType = "system"
)

// NotificationFilter selects which read states List returns.
type NotificationFilter string

const (
	FilterAll    NotificationFilter = "all"
	FilterRead   NotificationFilter = "read"
	FilterUnread NotificationFilter = "unread"
)
