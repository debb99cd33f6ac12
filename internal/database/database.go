package database

import (
	"context"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AnshRaj112/karmnik-backend/internal/logger"
)

const defaultMongoDatabase = "karmnik"

// Client and DB are initialised once by Connect and live for the whole process.
var Client *mongo.Client
var DB *mongo.Database

func Connect(mongoURI string) error {
	// Atlas clusters can take a while to answer the first handshake
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(mongoURI)
	clientOptions.SetServerSelectionTimeout(10 * time.Second)

	logger.Info("connecting to mongodb", "module", "database", "uri", MaskURI(mongoURI))
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return err
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer pingCancel()

	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return err
	}

	Client = client
	DB = client.Database(MongoDatabaseName(mongoURI))

	logger.Info("connected to mongodb", "module", "database", "database", DB.Name())
	return nil
}

func Disconnect() error {
	if Client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return Client.Disconnect(ctx)
}

// MongoDatabaseName extracts the database from mongodb://host/<db>?opts,
// falling back to "karmnik".
func MongoDatabaseName(mongoURI string) string {
	parts := strings.Split(mongoURI, "/")
	if len(parts) > 3 {
		dbPart := strings.Split(parts[len(parts)-1], "?")[0]
		if dbPart != "" {
			return dbPart
		}
	}
	return defaultMongoDatabase
}

// MaskURI hides the password of a connection string for logging.
func MaskURI(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
