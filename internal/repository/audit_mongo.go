package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"project-tracker/internal/domain"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const mongoTimeout = 5 * time.Second

type auditDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	ActionType string             `bson:"actionType"`
	EntityType string             `bson:"entityType"`
	EntityID   string             `bson:"entityId"`
	ActorName  string             `bson:"actorName"`
	Timestamp  time.Time          `bson:"timestamp"`
	Payload    bson.M             `bson:"payload"`
}

type MongoAuditRepository struct {
	collection *mongo.Collection
}

func NewMongoAuditRepository(db *mongo.Database, collection string) *MongoAuditRepository {
	return &MongoAuditRepository{collection: db.Collection(collection)}
}

// EnsureIndexes creates the indexes backing every audit query shape.
func (r *MongoAuditRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "entityType", Value: 1}, {Key: "entityId", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "actorName", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "actionType", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
	}

	if _, err := r.collection.Indexes().CreateMany(ctx, models); err != nil {
		log.WithError(err).Error("Failed to create audit indexes")
		return fmt.Errorf("failed to create audit indexes: %w", err)
	}
	return nil
}

func (r *MongoAuditRepository) Insert(ctx context.Context, record *domain.AuditRecord) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	payload := bson.M(record.Payload)
	if payload == nil {
		payload = bson.M{}
	}

	doc := auditDocument{
		ActionType: string(record.ActionType),
		EntityType: record.EntityType,
		EntityID:   record.EntityID,
		ActorName:  record.ActorName,
		Timestamp:  record.Timestamp,
		Payload:    payload,
	}

	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to insert audit record: %w", err)
	}

	id, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return errors.New("audit store returned a non ObjectID identifier")
	}
	record.ID = id.Hex()
	return nil
}

func (r *MongoAuditRepository) FindByEntity(ctx context.Context, entityType, entityID string, page domain.PageRequest) (domain.Page[domain.AuditRecord], error) {
	return r.findPage(ctx, bson.M{"entityType": entityType, "entityId": entityID}, page)
}

func (r *MongoAuditRepository) FindByActor(ctx context.Context, actorName string, page domain.PageRequest) (domain.Page[domain.AuditRecord], error) {
	return r.findPage(ctx, bson.M{"actorName": actorName}, page)
}

func (r *MongoAuditRepository) FindByActionType(ctx context.Context, actionType domain.ActionType, page domain.PageRequest) (domain.Page[domain.AuditRecord], error) {
	return r.findPage(ctx, bson.M{"actionType": string(actionType)}, page)
}

func (r *MongoAuditRepository) FindByTimestampBetween(ctx context.Context, start, end time.Time, page domain.PageRequest) (domain.Page[domain.AuditRecord], error) {
	return r.findPage(ctx, bson.M{"timestamp": bson.M{"$gte": start, "$lte": end}}, page)
}

func (r *MongoAuditRepository) FindAll(ctx context.Context, page domain.PageRequest) (domain.Page[domain.AuditRecord], error) {
	return r.findPage(ctx, bson.M{}, page)
}

func (r *MongoAuditRepository) CountByEntityType(ctx context.Context, entityType string) (int64, error) {
	return r.count(ctx, bson.M{"entityType": entityType})
}

func (r *MongoAuditRepository) CountByActionType(ctx context.Context, actionType domain.ActionType) (int64, error) {
	return r.count(ctx, bson.M{"actionType": string(actionType)})
}

func (r *MongoAuditRepository) CountByActor(ctx context.Context, actorName string) (int64, error) {
	return r.count(ctx, bson.M{"actorName": actorName})
}

func (r *MongoAuditRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	result, err := r.collection.DeleteMany(ctx, bson.M{"timestamp": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete audit records: %w", err)
	}
	return result.DeletedCount, nil
}

func (r *MongoAuditRepository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	return r.collection.Database().Client().Ping(ctx, readpref.Primary())
}

func (r *MongoAuditRepository) findPage(ctx context.Context, filter bson.M, page domain.PageRequest) (domain.Page[domain.AuditRecord], error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return domain.Page[domain.AuditRecord]{}, fmt.Errorf("failed to count audit records: %w", err)
	}

	dir := -1
	if page.SortDir == domain.SortAsc {
		dir = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: domain.AuditSortField(page.SortBy), Value: dir}, {Key: "_id", Value: dir}}).
		SetSkip(int64(page.Offset())).
		SetLimit(int64(page.Size))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return domain.Page[domain.AuditRecord]{}, fmt.Errorf("failed to query audit records: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []auditDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return domain.Page[domain.AuditRecord]{}, fmt.Errorf("failed to decode audit records: %w", err)
	}

	records := make([]domain.AuditRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, doc.toRecord())
	}
	return domain.NewPage(records, page, total), nil
}

func (r *MongoAuditRepository) count(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count audit records: %w", err)
	}
	return count, nil
}

func (d auditDocument) toRecord() domain.AuditRecord {
	payload := domain.Payload{}
	for k, v := range d.Payload {
		payload[k] = fromBSON(v)
	}
	return domain.AuditRecord{
		ID:         d.ID.Hex(),
		ActionType: domain.ActionType(d.ActionType),
		EntityType: d.EntityType,
		EntityID:   d.EntityID,
		ActorName:  d.ActorName,
		Timestamp:  d.Timestamp.UTC(),
		Payload:    payload,
	}
}

// fromBSON turns driver-specific decoded values back into plain Go values.
func fromBSON(v interface{}) interface{} {
	switch val := v.(type) {
	case primitive.DateTime:
		return val.Time().UTC()
	case primitive.ObjectID:
		return val.Hex()
	case primitive.A:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = fromBSON(item)
		}
		return out
	case bson.M:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = fromBSON(item)
		}
		return out
	case bson.D:
		out := make(map[string]interface{}, len(val))
		for _, e := range val {
			out[e.Key] = fromBSON(e.Value)
		}
		return out
	default:
		return v
	}
}
