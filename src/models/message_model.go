package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Message struct {
	Id           primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Conversation primitive.ObjectID `json:"conversation" bson:"conversation"`
	SenderId     string             `json:"senderId" bson:"senderId"`
	RecipientId  string             `json:"recipientId" bson:"recipientId"`
	Text         string             `json:"text" bson:"text"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
}
