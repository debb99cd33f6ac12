package store

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AnshRaj112/karmnik-backend/internal/models"
)

// feedingDocument is the stored shape: {_id, timestamp}.
type feedingDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Timestamp string             `bson:"timestamp"`
}

// MongoStore keeps feedings in a MongoDB collection.
type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection(CollectionName)}
}

// EnsureIndexes creates the timestamp index used by the live query. Called on startup.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "timestamp", Value: -1}},
		Options: options.Index().SetName("idx_timestamp_desc"),
	})
	return err
}

func (s *MongoStore) Insert(ctx context.Context, entry models.FeedingEntry) (models.FeedingEntry, error) {
	doc := feedingDocument{ID: primitive.NewObjectID(), Timestamp: entry.Timestamp}
	if _, err := s.col.InsertOne(ctx, doc); err != nil {
		return models.FeedingEntry{}, fmt.Errorf("insert feeding: %w", err)
	}
	entry.ID = doc.ID.Hex()
	return entry, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	filter, err := idFilter(id)
	if err != nil {
		return err
	}
	if _, err := s.col.DeleteOne(ctx, filter); err != nil {
		return fmt.Errorf("delete feeding %s: %w", id, err)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context) ([]models.FeedingEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})

	cur, err := s.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list feedings: %w", err)
	}
	defer cur.Close(ctx)

	entries := make([]models.FeedingEntry, 0)
	for cur.Next(ctx) {
		entry, err := decodeFeeding(cur.Current)
		if err != nil {
			return nil, fmt.Errorf("list feedings: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list feedings: %w", err)
	}
	return entries, nil
}

// idFilter matches a feeding by id. Hex ids may be stored as ObjectIDs or,
// for imported documents, as plain strings.
func idFilter(id string) (bson.M, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidID
	}
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": bson.M{"$in": bson.A{oid, id}}}, nil
	}
	return bson.M{"_id": id}, nil
}

// decodeFeeding reads {_id, timestamp} from a raw document. Besides the shape
// Insert writes it accepts string ids and BSON dates.
func decodeFeeding(raw bson.Raw) (models.FeedingEntry, error) {
	var entry models.FeedingEntry

	id, err := raw.LookupErr("_id")
	if err != nil {
		return entry, fmt.Errorf("feeding without _id: %w", err)
	}
	switch id.Type {
	case bson.TypeObjectID:
		entry.ID = id.ObjectID().Hex()
	case bson.TypeString:
		entry.ID = id.StringValue()
	default:
		return entry, fmt.Errorf("feeding _id has unsupported type %s", id.Type)
	}

	ts, err := raw.LookupErr("timestamp")
	if err != nil {
		return entry, fmt.Errorf("feeding %s without timestamp: %w", entry.ID, err)
	}
	switch ts.Type {
	case bson.TypeString:
		entry.Timestamp = ts.StringValue()
	case bson.TypeDateTime:
		entry.Timestamp = ts.Time().UTC().Format(models.TimestampLayout)
	default:
		return entry, fmt.Errorf("feeding %s timestamp has unsupported type %s", entry.ID, ts.Type)
	}
	return entry, nil
}

// Watch follows the collection's change stream. It needs a replica set;
// on a standalone server the driver error is returned straight away.
func (s *MongoStore) Watch(ctx context.Context, onChange func()) error {
	stream, err := s.col.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		return fmt.Errorf("watch feedings: %w", err)
	}
	defer stream.Close(context.Background())

	for stream.Next(ctx) {
		onChange()
	}
	if err := stream.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("watch feedings: %w", err)
	}
	return nil
}
