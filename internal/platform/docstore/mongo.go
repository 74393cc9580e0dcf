package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore maps each collection to a MongoDB collection with the document
// id stored as _id.
type MongoStore struct {
	client   *mongo.Client
	database *mongo.Database
}

func OpenMongo(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, errors.New("MONGODB_URI is required")
	}
	if strings.TrimSpace(dbName) == "" {
		dbName = "anilist"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("docstore mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("docstore mongo ping: %w", err)
	}
	return &MongoStore{client: client, database: client.Database(dbName)}, nil
}

func (s *MongoStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var raw bson.M
	err := s.database.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("docstore mongo get %s: %w", collection, err)
	}
	return withKey(fromBSON(raw), id), nil
}

func (s *MongoStore) GetAll(ctx context.Context, collection string) ([]Document, error) {
	cur, err := s.database.Collection(collection).Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("docstore mongo get all %s: %w", collection, err)
	}
	defer cur.Close(ctx)

	var raws []bson.M
	if err := cur.All(ctx, &raws); err != nil {
		return nil, fmt.Errorf("docstore mongo get all %s: %w", collection, err)
	}
	out := make([]Document, 0, len(raws))
	for _, raw := range raws {
		doc := fromBSON(raw)
		if id, ok := raw["_id"].(string); ok {
			doc = withKey(doc, id)
		}
		out = append(out, doc)
	}
	return out, nil
}

func (s *MongoStore) Put(ctx context.Context, collection, id string, doc Document) error {
	body := bson.M{}
	for k, v := range doc {
		body[k] = v
	}
	body["_id"] = id
	_, err := s.database.Collection(collection).ReplaceOne(ctx, bson.M{"_id": id}, body, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("docstore mongo put %s: %w", collection, err)
	}
	return nil
}

func (s *MongoStore) UpdatePartial(ctx context.Context, collection, id string, fields Document) error {
	set := bson.M{}
	for k, v := range fields {
		if k == "_id" {
			continue
		}
		set[k] = v
	}
	if len(set) == 0 {
		if _, err := s.Get(ctx, collection, id); err != nil {
			return err
		}
		return nil
	}
	res, err := s.database.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("docstore mongo update %s: %w", collection, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, collection, id string) (bool, error) {
	res, err := s.database.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("docstore mongo delete %s: %w", collection, err)
	}
	return res.DeletedCount > 0, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// fromBSON drops _id and turns driver container types into plain maps and
// slices.
func fromBSON(raw bson.M) Document {
	out := make(Document, len(raw))
	for k, v := range raw {
		if k == "_id" {
			continue
		}
		out[k] = normalizeBSON(v)
	}
	return out
}

func normalizeBSON(v any) any {
	switch t := v.(type) {
	case primitive.M:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = normalizeBSON(e)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = normalizeBSON(e)
		}
		return m
	case primitive.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = normalizeBSON(e.Value)
		}
		return m
	case primitive.A:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = normalizeBSON(e)
		}
		return s
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = normalizeBSON(e)
		}
		return s
	case primitive.DateTime:
		return t.Time().UTC().Format(time.RFC3339)
	default:
		return v
	}
}
