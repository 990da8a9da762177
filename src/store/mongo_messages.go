package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"skillswap/backend/src/models"
)

// MongoMessageStore is the MongoDB-backed MessageStore.
type MongoMessageStore struct {
	conversations *mongo.Collection
	messages      *mongo.Collection
}

func NewMongoMessageStore(db *mongo.Database) *MongoMessageStore {
	return &MongoMessageStore{
		conversations: db.Collection("conversations"),
		messages:      db.Collection("messages"),
	}
}

func (s *MongoMessageStore) UpsertConversation(ctx context.Context, a, b string) (*models.Conversation, error) {
	pair := models.ParticipantPair(a, b)
	now := time.Now()

	update := bson.M{
		"$set":         bson.M{"updatedAt": now},
		"$setOnInsert": bson.M{"participants": pair, "createdAt": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var convo models.Conversation
	err := s.conversations.FindOneAndUpdate(ctx, bson.M{"participants": pair}, update, opts).Decode(&convo)
	if err != nil {
		return nil, err
	}
	return &convo, nil
}

func (s *MongoMessageStore) Conversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	opts := options.Find().SetSort(bson.M{"updatedAt": -1})
	cursor, err := s.conversations.Find(ctx, bson.M{"participants": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var convos []models.Conversation
	if err := cursor.All(ctx, &convos); err != nil {
		return nil, err
	}
	return convos, nil
}

func (s *MongoMessageStore) Messages(ctx context.Context, conversationID primitive.ObjectID) ([]models.Message, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": 1})
	cursor, err := s.messages.Find(ctx, bson.M{"conversation": conversationID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var msgs []models.Message
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (s *MongoMessageStore) Append(ctx context.Context, m *models.Message) (*models.Message, error) {
	m.Id = primitive.NewObjectID()
	m.CreatedAt = time.Now()

	if _, err := s.messages.InsertOne(ctx, m); err != nil {
		return nil, err
	}

	_, err := s.conversations.UpdateOne(ctx,
		bson.M{"_id": m.Conversation},
		bson.M{"$set": bson.M{
			"lastMessage":  m.Text,
			"lastSenderId": m.SenderId,
			"updatedAt":    m.CreatedAt,
		}},
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}
