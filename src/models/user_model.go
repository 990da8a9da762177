package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ConnectionStatus is the relationship between two users, viewed from one side.
type ConnectionStatus string

const (
	StatusConnected       ConnectionStatus = "connected"
	StatusRequestSent     ConnectionStatus = "request_sent"
	StatusRequestReceived ConnectionStatus = "request_received"
	StatusNotConnected    ConnectionStatus = "not_connected"
)

// User is the profile document. The identity provider owns authentication;
// ExternalId is its id for this user. Connections, RequestsSent and
// RequestsReceived are sets: mutated only with $addToSet / $pull.
type User struct {
	Id               primitive.ObjectID   `json:"_id" bson:"_id,omitempty"`
	ExternalId       string               `json:"externalId" bson:"externalId"`
	Email            string               `json:"email" bson:"email"`
	FullName         string               `json:"fullName" bson:"fullName"`
	Avatar           string               `json:"avatar,omitempty" bson:"avatar,omitempty"`
	Bio              string               `json:"bio,omitempty" bson:"bio,omitempty"`
	Location         string               `json:"location,omitempty" bson:"location,omitempty"`
	SkillsTeaching   []string             `json:"skillsTeaching" bson:"skillsTeaching"`
	SkillsLearning   []string             `json:"skillsLearning" bson:"skillsLearning"`
	Connections      []primitive.ObjectID `json:"connections" bson:"connections"`
	RequestsSent     []primitive.ObjectID `json:"requestsSent" bson:"requestsSent"`
	RequestsReceived []primitive.ObjectID `json:"requestsReceived" bson:"requestsReceived"`
	CreatedAt        time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// UserDto is the public projection used in lists and notification payloads.
type UserDto struct {
	ID         primitive.ObjectID `json:"_id"`
	ExternalId string             `json:"externalId"`
	FullName   string             `json:"fullName"`
	Avatar     string             `json:"avatar,omitempty"`
	Bio        string             `json:"bio,omitempty"`
	Location   string             `json:"location,omitempty"`
}

// Dto converts a user to its public projection.
func (u *User) Dto() UserDto {
	return UserDto{
		ID:         u.Id,
		ExternalId: u.ExternalId,
		FullName:   u.FullName,
		Avatar:     u.Avatar,
		Bio:        u.Bio,
		Location:   u.Location,
	}
}

func contains(set []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range set {
		if v == id {
			return true
		}
	}
	return false
}

// HasConnection reports whether other is in the connections set.
func (u *User) HasConnection(other primitive.ObjectID) bool {
	return contains(u.Connections, other)
}

// HasSentRequest reports whether a request to other is pending.
func (u *User) HasSentRequest(other primitive.ObjectID) bool {
	return contains(u.RequestsSent, other)
}

// HasReceivedRequest reports whether a request from other is pending.
func (u *User) HasReceivedRequest(other primitive.ObjectID) bool {
	return contains(u.RequestsReceived, other)
}

// StatusWith computes the connection status toward other. Connected is checked
// first: it is the terminal state and wins over any stale pending entry.
func (u *User) StatusWith(other primitive.ObjectID) ConnectionStatus {
	switch {
	case u.HasConnection(other):
		return StatusConnected
	case u.HasSentRequest(other):
		return StatusRequestSent
	case u.HasReceivedRequest(other):
		return StatusRequestReceived
	default:
		return StatusNotConnected
	}
}
