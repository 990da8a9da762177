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

// MongoNotificationStore is the MongoDB-backed notification log.
type MongoNotificationStore struct {
	notifications *mongo.Collection
}

func NewMongoNotificationStore(db *mongo.Database) *MongoNotificationStore {
	return &MongoNotificationStore{notifications: db.Collection("notifications")}
}

func (s *MongoNotificationStore) Create(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	now := time.Now()
	n.Id = primitive.NewObjectID()
	n.Read = false
	n.CreatedAt = now
	n.UpdatedAt = now
	if n.Data == nil {
		n.Data = map[string]interface{}{}
	}

	if _, err := s.notifications.InsertOne(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *MongoNotificationStore) List(ctx context.Context, recipient primitive.ObjectID, filter models.NotificationFilter, limit, skip int64) ([]models.Notification, bool, error) {
	query := bson.M{"recipient": recipient}
	switch filter {
	case models.FilterRead:
		query["read"] = true
	case models.FilterUnread:
		query["read"] = false
	}

	// Fetch one extra record to compute hasMore without a count query.
	opts := options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetLimit(limit + 1).
		SetSkip(skip)

	cursor, err := s.notifications.Find(ctx, query, opts)
	if err != nil {
		return nil, false, err
	}
	defer cursor.Close(ctx)

	var page []models.Notification
	if err := cursor.All(ctx, &page); err != nil {
		return nil, false, err
	}

	hasMore := int64(len(page)) > limit
	if hasMore {
		page = page[:limit]
	}
	return page, hasMore, nil
}

func (s *MongoNotificationStore) FindByID(ctx context.Context, id, recipient primitive.ObjectID) (*models.Notification, error) {
	var n models.Notification
	err := s.notifications.FindOne(ctx, bson.M{"_id": id, "recipient": recipient}).Decode(&n)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *MongoNotificationStore) MarkRead(ctx context.Context, id, recipient primitive.ObjectID) error {
	res, err := s.notifications.UpdateOne(ctx,
		bson.M{"_id": id, "recipient": recipient},
		bson.M{"$set": bson.M{"read": true, "updatedAt": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoNotificationStore) MarkAllRead(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	res, err := s.notifications.UpdateMany(ctx,
		bson.M{"recipient": recipient, "read": false},
		bson.M{"$set": bson.M{"read": true, "updatedAt": time.Now()}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (s *MongoNotificationStore) UnreadCount(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	return s.notifications.CountDocuments(ctx, bson.M{"recipient": recipient, "read": false})
}

func (s *MongoNotificationStore) Delete(ctx context.Context, id, recipient primitive.ObjectID) error {
	res, err := s.notifications.DeleteOne(ctx, bson.M{"_id": id, "recipient": recipient})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoNotificationStore) DeleteMatching(ctx context.Context, recipient, sender primitive.ObjectID, typ models.NotificationType) (int64, error) {
	res, err := s.notifications.DeleteMany(ctx, bson.M{
		"recipient": recipient,
		"sender":    sender,
		"type":      typ,
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *MongoNotificationStore) Upgrade(ctx context.Context, id, recipient primitive.ObjectID, typ models.NotificationType, title, message string) error {
	// Guarded by the current type: only an unprocessed connection_request
	// is rewritten, anything else falls through to ErrNotFound.
	res, err := s.notifications.UpdateOne(ctx,
		bson.M{"_id": id, "recipient": recipient, "type": models.NotificationTypeConnectionRequest},
		bson.M{"$set": bson.M{
			"type":      typ,
			"title":     title,
			"message":   message,
			"read":      true,
			"updatedAt": time.Now(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
