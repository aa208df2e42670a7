package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"academix/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrAdminCredentialMissing is returned when the elevated connection string
// is not configured. Callers must abort the write rather than degrade to the
// ordinary client, which is not authorized for PIN credential writes.
var ErrAdminCredentialMissing = errors.New("admin database credential not configured")

// AdminConnFactory supplies the elevated MongoDB handle. It is injected into
// the PIN write path only; gate and read-path code never sees it, so the
// privilege boundary stays visible at every call site.
type AdminConnFactory struct {
	client *mongo.Client
}

// NewAdminConnFactory connects with the elevated credential. It fails closed:
// a missing ADMIN_DATABASE_URL yields ErrAdminCredentialMissing instead of a
// factory backed by ordinary credentials.
func NewAdminConnFactory() (*AdminConnFactory, error) {
	uri := config.AppConfig.AdminDatabaseURL
	if uri == "" {
		return nil, ErrAdminCredentialMissing
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect with admin credential: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping with admin credential: %w", err)
	}
	return &AdminConnFactory{client: client}, nil
}

// Collection returns a handle on the named collection through the elevated
// connection.
func (f *AdminConnFactory) Collection(db, name string) *mongo.Collection {
	return f.client.Database(db).Collection(name)
}
