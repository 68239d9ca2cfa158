package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"

	sharedDomain "github.com/davicafu/scavhunt/internal/shared/domain"
)

const storeName = "mongodb"

// Connect abre el cliente y hace ping al primario.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("could not connect to mongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("could not ping mongoDB: %w", Classify(err))
	}
	return client, nil
}

// Classify convierte fallos de red, timeouts y selección de servidor en
// StorageUnavailableError. El resto de errores pasan sin tocar.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var unavailable *sharedDomain.StorageUnavailableError
	if errors.As(err, &unavailable) {
		return err
	}
	var selection topology.ServerSelectionError
	switch {
	case mongo.IsNetworkError(err),
		mongo.IsTimeout(err),
		errors.Is(err, mongo.ErrClientDisconnected),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &selection):
		return &sharedDomain.StorageUnavailableError{Store: storeName, Err: err}
	}
	return err
}
