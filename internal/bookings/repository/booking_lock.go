package repository

import (
	"context"
	"fmt"
	"time"

	bookingserrors "villagestay/internal/bookings/errors"
	"villagestay/pkg/config"
	mongotx "villagestay/pkg/db/mongo"
	"villagestay/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const LockCollectionName = "booking_locks"

// BookingLockRepository provides operations for advisory locks
type BookingLockRepository interface {
	Acquire(ctx context.Context, lockID string, ttl time.Duration) error
	Release(ctx context.Context, lockID string) error
}

type mongoBookingLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewBookingLockRepository(cfg *config.Config) BookingLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingLockRepository{
		cfg:        cfg,
		collection: db.Collection(LockCollectionName),
	}
}

// Acquire inserts the lock document. A held lock is reported as ErrLocked.
// Locks whose expiresAt has passed are removed first so a crashed request
// does not block the booking until the TTL monitor runs.
func (r *mongoBookingLockRepository) Acquire(ctx context.Context, lockID string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC()
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID, "expiresAt": bson.M{"$lte": now}}); err != nil {
		return fmt.Errorf("failed to clear expired lock: %w", err)
	}

	lock := &model.BookingLock{
		ID:        lockID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if _, err := r.collection.InsertOne(ctx, lock); err != nil {
		if mongotx.IsDuplicateKey(err) {
			return bookingserrors.ErrLocked
		}
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	return nil
}

// Release removes an advisory lock. It runs on a fresh context so a cancelled
// request still frees the lock it holds.
func (r *mongoBookingLockRepository) Release(ctx context.Context, lockID string) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID})
	return err
}
