// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/bluewavedigital/donorpulse/internal/app/system/backendrpc"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database and backend dependencies for this WAFFLE app.
//
// This struct is created in ConnectDB and passed to subsequent lifecycle
// hooks: EnsureSchema, Startup, BuildHandler, and Shutdown. It serves as
// the central place to store all database clients and backend connections
// that your application needs.
//
// Design guidelines:
//   - Add a field for each database or backend service you connect to
//   - Use pointer types for clients that may be nil (optional backends)
//   - Group related dependencies together with comments
//
// The Shutdown hook is responsible for closing these connections gracefully
// when the application terminates.
type DBDeps struct {
	// MongoDB client and database
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Backend is the donor analytics service client. All donation data
	// shown in the portal is fetched through it at request time.
	Backend *backendrpc.Client
}
