package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStatusWithPrecedence(t *testing.T) {
	other := primitive.NewObjectID()
	u := &User{}

	assert.Equal(t, StatusNotConnected, u.StatusWith(other))

	u.RequestsReceived = []primitive.ObjectID{other}
	assert.Equal(t, StatusRequestReceived, u.StatusWith(other))

	u.RequestsSent = []primitive.ObjectID{other}
	assert.Equal(t, StatusRequestSent, u.StatusWith(other))

	// Connected wins over any stale pending entry.
	u.Connections = []primitive.ObjectID{other}
	assert.Equal(t, StatusConnected, u.StatusWith(other))
}

func TestParticipantPairIsSorted(t *testing.T) {
	assert.Equal(t, []string{"user_a", "user_b"}, ParticipantPair("user_b", "user_a"))
	assert.Equal(t, ParticipantPair("user_a", "user_b"), ParticipantPair("user_b", "user_a"))
}

func TestConversationOther(t *testing.T) {
	c := &Conversation{Participants: []string{"user_a", "user_b"}}
	assert.Equal(t, "user_b", c.Other("user_a"))
	assert.Equal(t, "user_a", c.Other("user_b"))
}
