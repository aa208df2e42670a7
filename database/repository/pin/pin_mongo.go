package pinRepo

import (
	"context"
	"fmt"
	"time"

	"academix/database"
	"academix/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	dbName   = "academix"
	collName = "security_pins"
)

// MongoPinRepo implements PinRepository using MongoDB. Reads go through the
// ordinary client; writes go through the elevated handle supplied by the
// admin connection factory.
type MongoPinRepo struct {
	reads  *mongo.Collection
	writes *mongo.Collection
}

// NewMongoPinRepo creates a PinRepository. The admin factory may be nil when
// the elevated credential is not configured; in that case every write fails
// with database.ErrAdminCredentialMissing while reads keep working, so the
// gate and status endpoints stay available.
func NewMongoPinRepo(admin *database.AdminConnFactory) PinRepository {
	repo := &MongoPinRepo{
		reads: database.MongoClient.Database(dbName).Collection(collName),
	}
	if admin != nil {
		repo.writes = admin.Collection(dbName, collName)
		if err := repo.ensureIndexes(); err != nil {
			fmt.Printf("failed to create pin indexes: %v\n", err)
		}
	}
	return repo
}

// newContext creates a context with the given timeout.
func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

// ensureIndexes enforces at most one record per owner. The unique index is
// what turns a concurrent double-create into ErrDuplicatePin on the loser
// instead of a duplicate row.
func (r *MongoPinRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	_, err := r.writes.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// FindByOwner retrieves the PIN record for an owner, or (nil, nil) when none
// exists.
func (r *MongoPinRepo) FindByOwner(ownerID string) (*models.PinRecord, error) {
	ctx, cancel := newContext(3 * time.Second)
	defer cancel()

	var rec models.PinRecord
	if err := r.reads.FindOne(ctx, bson.M{"owner_id": ownerID}).Decode(&rec); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch pin record for owner %s: %w", ownerID, err)
	}
	return &rec, nil
}

// Create inserts a new active PIN record.
func (r *MongoPinRepo) Create(ownerID, encodedSecret string) (*models.PinRecord, error) {
	if r.writes == nil {
		return nil, database.ErrAdminCredentialMissing
	}
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	now := time.Now()
	rec := models.PinRecord{
		OwnerID:       ownerID,
		EncodedSecret: encodedSecret,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := r.writes.InsertOne(ctx, rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicatePin
		}
		return nil, fmt.Errorf("failed to create pin record for owner %s: %w", ownerID, err)
	}
	return &rec, nil
}

// Update rotates the encoded secret and re-enables the record.
func (r *MongoPinRepo) Update(ownerID, encodedSecret string) (*models.PinRecord, error) {
	if r.writes == nil {
		return nil, database.ErrAdminCredentialMissing
	}
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	now := time.Now()
	update := bson.M{"$set": bson.M{
		"encoded_secret": encodedSecret,
		"is_active":      true,
		"updated_at":     now,
	}}
	result, err := r.writes.UpdateOne(ctx, bson.M{"owner_id": ownerID}, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update pin record for owner %s: %w", ownerID, err)
	}
	if result.MatchedCount == 0 {
		return nil, ErrPinNotFound
	}
	return r.findThroughWrites(ctx, ownerID)
}

// Disable flips is_active off, keeping the record for audit and later
// re-enable.
func (r *MongoPinRepo) Disable(ownerID string) error {
	if r.writes == nil {
		return database.ErrAdminCredentialMissing
	}
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{"is_active": false, "updated_at": time.Now()}}
	result, err := r.writes.UpdateOne(ctx, bson.M{"owner_id": ownerID}, update)
	if err != nil {
		return fmt.Errorf("failed to disable pin record for owner %s: %w", ownerID, err)
	}
	if result.MatchedCount == 0 {
		return ErrPinNotFound
	}
	return nil
}

// DeleteDisabledBefore removes records that were disabled before the cutoff.
func (r *MongoPinRepo) DeleteDisabledBefore(cutoff time.Time) (int64, error) {
	if r.writes == nil {
		return 0, database.ErrAdminCredentialMissing
	}
	ctx, cancel := newContext(30 * time.Second)
	defer cancel()

	filter := bson.M{"is_active": false, "updated_at": bson.M{"$lt": cutoff}}
	result, err := r.writes.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to purge disabled pin records: %w", err)
	}
	return result.DeletedCount, nil
}

// findThroughWrites re-reads the record on the write handle so a rotation
// observes its own update.
func (r *MongoPinRepo) findThroughWrites(ctx context.Context, ownerID string) (*models.PinRecord, error) {
	var rec models.PinRecord
	if err := r.writes.FindOne(ctx, bson.M{"owner_id": ownerID}).Decode(&rec); err != nil {
		return nil, fmt.Errorf("failed to re-read pin record for owner %s: %w", ownerID, err)
	}
	return &rec, nil
}
