package store

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"skillswap/backend/src/models"
)

// externalIDPrefix marks identity-provider ids, e.g. "user_2ab...".
const externalIDPrefix = "user_"

// MongoUserStore is the MongoDB-backed UserStore.
type MongoUserStore struct {
	users *mongo.Collection
}

func NewMongoUserStore(db *mongo.Database) *MongoUserStore {
	return &MongoUserStore{users: db.Collection("users")}
}

func (s *MongoUserStore) Resolve(ctx context.Context, ref string) (*models.User, error) {
	if strings.HasPrefix(ref, externalIDPrefix) {
		return s.FindByExternalID(ctx, ref)
	}

	id, err := primitive.ObjectIDFromHex(ref)
	if err != nil {
		return nil, ErrInvalidID
	}
	return s.FindByID(ctx, id)
}

func (s *MongoUserStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *MongoUserStore) FindByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"externalId": externalID})
}

func (s *MongoUserStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, filter).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *MongoUserStore) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}

	cursor, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Upsert creates or refreshes a profile keyed by externalId. The relation
// sets are only initialized on insert; later syncs never touch them.
func (s *MongoUserStore) Upsert(ctx context.Context, u *models.User) (*models.User, error) {
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"email":     u.Email,
			"fullName":  u.FullName,
			"avatar":    u.Avatar,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"externalId":       u.ExternalId,
			"bio":              u.Bio,
			"location":         u.Location,
			"skillsTeaching":   []string{},
			"skillsLearning":   []string{},
			"connections":      []primitive.ObjectID{},
			"requestsSent":     []primitive.ObjectID{},
			"requestsReceived": []primitive.ObjectID{},
			"createdAt":        now,
		},
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var saved models.User
	err := s.users.FindOneAndUpdate(ctx, bson.M{"externalId": u.ExternalId}, update, opts).Decode(&saved)
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (s *MongoUserStore) UpdateProfile(ctx context.Context, id primitive.ObjectID, set map[string]interface{}) (*models.User, error) {
	fields := bson.M{"updatedAt": time.Now()}
	for k, v := range set {
		fields[k] = v
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.User
	err := s.users.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, opts).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Suggestions returns users the given user has no relation with yet.
func (s *MongoUserStore) Suggestions(ctx context.Context, u *models.User, limit int64) ([]models.User, error) {
	exclude := make([]primitive.ObjectID, 0, len(u.Connections)+len(u.RequestsSent)+len(u.RequestsReceived)+1)
	exclude = append(exclude, u.Id)
	exclude = append(exclude, u.Connections...)
	exclude = append(exclude, u.RequestsSent...)
	exclude = append(exclude, u.RequestsReceived...)

	opts := options.Find().SetLimit(limit).SetSort(bson.M{"createdAt": -1})
	cursor, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$nin": exclude}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *MongoUserStore) AddToSet(ctx context.Context, userID primitive.ObjectID, field RelationField, other primitive.ObjectID) error {
	return s.updateSet(ctx, userID, bson.M{"$addToSet": bson.M{string(field): other}})
}

func (s *MongoUserStore) PullFromSet(ctx context.Context, userID primitive.ObjectID, field RelationField, other primitive.ObjectID) error {
	return s.updateSet(ctx, userID, bson.M{"$pull": bson.M{string(field): other}})
}

func (s *MongoUserStore) updateSet(ctx context.Context, userID primitive.ObjectID, update bson.M) error {
	update["$set"] = bson.M{"updatedAt": time.Now()}
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoUserStore) ForEachUser(ctx context.Context, fn func(*models.User) error) error {
	cursor, err := s.users.Find(ctx, bson.M{})
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var user models.User
		if err := cursor.Decode(&user); err != nil {
			return err
		}
		if err := fn(&user); err != nil {
			return err
		}
	}
	return cursor.Err()
}
