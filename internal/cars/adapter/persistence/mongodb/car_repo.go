package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"car-listing/internal/cars/domain/model"
	"car-listing/internal/cars/domain/repository"
	apperrors "car-listing/internal/shared/errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const carsCollection = "cars"

// Fields matched by a search term.
var searchFields = []string{"title", "description", "tags.car_type", "tags.company", "tags.dealer"}

// newestFirst is stable across documents created in the same instant.
var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

// MongoCarRepository implements CarRepository on a MongoDB collection.
type MongoCarRepository struct {
	cars *mongo.Collection
}

// NewMongoCarRepository creates the repository and ensures the owner index.
func NewMongoCarRepository(ctx context.Context, db *mongo.Database) (*MongoCarRepository, error) {
	repo := &MongoCarRepository{cars: db.Collection(carsCollection)}

	ownerIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "user", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("user_created_at"),
	}
	if _, err := repo.cars.Indexes().CreateOne(ctx, ownerIndex); err != nil {
		return nil, fmt.Errorf("create owner index: %w", err)
	}
	return repo, nil
}

// Create inserts car and assigns its id.
func (r *MongoCarRepository) Create(ctx context.Context, car *model.Car) error {
	if car == nil {
		return errors.New("car cannot be nil")
	}
	now := time.Now().UTC()
	if car.CreatedAt.IsZero() {
		car.CreatedAt = now
	}
	if car.UpdatedAt.IsZero() {
		car.UpdatedAt = car.CreatedAt
	}
	car.ObjectID = primitive.NewObjectID()

	if _, err := r.cars.InsertOne(ctx, car); err != nil {
		car.ObjectID = primitive.NilObjectID
		return fmt.Errorf("insert car: %w", err)
	}
	car.ID = car.ObjectID.Hex()
	return nil
}

// GetByID finds a car by hex id.
func (r *MongoCarRepository) GetByID(ctx context.Context, id string) (*model.Car, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperrors.ErrNotFound
	}

	var car model.Car
	if err := r.cars.FindOne(ctx, bson.M{"_id": oid}).Decode(&car); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("find car: %w", err)
	}
	car.SyncID()
	return &car, nil
}

// List returns every matching car of q.Owner.
func (r *MongoCarRepository) List(ctx context.Context, q model.ListQuery) ([]*model.Car, error) {
	return r.find(ctx, ownerFilter(q), options.Find().SetSort(newestFirst))
}

// Page returns one page of matching cars and the total match count.
func (r *MongoCarRepository) Page(ctx context.Context, q model.ListQuery) ([]*model.Car, int64, error) {
	q = q.Normalize()
	filter := ownerFilter(q)

	total, err := r.cars.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count cars: %w", err)
	}
	if total == 0 {
		return []*model.Car{}, 0, nil
	}

	opts := options.Find().
		SetSort(newestFirst).
		SetSkip(q.Skip()).
		SetLimit(int64(q.Limit))
	cars, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return cars, total, nil
}

// Replace writes the mutable fields of car. Owner and creation time never change.
func (r *MongoCarRepository) Replace(ctx context.Context, car *model.Car) error {
	oid, err := primitive.ObjectIDFromHex(car.ID)
	if err != nil {
		return apperrors.ErrNotFound
	}
	if car.UpdatedAt.IsZero() {
		car.UpdatedAt = time.Now().UTC()
	}

	update := bson.M{"$set": bson.M{
		"title":       car.Title,
		"description": car.Description,
		"images":      car.Images,
		"tags":        car.Tags,
		"updated_at":  car.UpdatedAt,
	}}
	res, err := r.cars.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("update car: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Delete removes one car.
func (r *MongoCarRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperrors.ErrNotFound
	}
	res, err := r.cars.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete car: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Ping reports whether the backing database answers.
func (r *MongoCarRepository) Ping(ctx context.Context) error {
	return r.cars.Database().Client().Ping(ctx, nil)
}

func (r *MongoCarRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Car, error) {
	cursor, err := r.cars.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find cars: %w", err)
	}
	defer cursor.Close(ctx)

	cars := make([]*model.Car, 0)
	for cursor.Next(ctx) {
		var car model.Car
		if err := cursor.Decode(&car); err != nil {
			return nil, fmt.Errorf("decode car: %w", err)
		}
		car.SyncID()
		cars = append(cars, &car)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate cars: %w", err)
	}
	return cars, nil
}

// ownerFilter scopes to q.Owner and, when q.Search is set, matches it as a
// literal case-insensitive substring of any search field.
func ownerFilter(q model.ListQuery) bson.M {
	filter := bson.M{"user": q.Owner}
	if q.Search == "" {
		return filter
	}

	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q.Search), Options: "i"}
	or := make(bson.A, 0, len(searchFields))
	for _, field := range searchFields {
		or = append(or, bson.M{field: pattern})
	}
	filter["$or"] = or
	return filter
}

var _ repository.CarRepository = (*MongoCarRepository)(nil)
