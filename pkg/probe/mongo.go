package probe

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

func probeMongo(ctx context.Context, spec Spec) Result {
	uri := fmt.Sprintf("mongodb://%s:%d", spec.Host, spec.Port)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return Result{Status: StatusDead, Err: fmt.Errorf("mongo connect failed: %w", err)}
	}
	defer client.Disconnect(ctx)

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return Result{Status: StatusDead, Err: fmt.Errorf("mongo ping failed: %w", err)}
	}
	return Result{Status: StatusAlive}
}
