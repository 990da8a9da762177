package models

import (
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation is one direct-message thread. Participants are the two users'
// identity-provider ids, stored sorted so either direction resolves to the
// same document.
type Conversation struct {
	Id           primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Participants []string           `json:"participants" bson:"participants"`
	LastMessage  string             `json:"lastMessage,omitempty" bson:"lastMessage,omitempty"`
	LastSenderId string             `json:"lastSenderId,omitempty" bson:"lastSenderId,omitempty"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// ParticipantPair returns the two ids in canonical (sorted) order.
func ParticipantPair(a, b string) []string {
	pair := []string{a, b}
	sort.Strings(pair)
	return pair
}

// Other returns the counterpart of userID in this conversation.
func (c *Conversation) Other(userID string) string {
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return userID
}
