// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// SessionCleanupJob creates a job that removes expired sessions from the database.
// The TTL index handles most of this; the job catches anything the TTL monitor
// misses (it only runs about once a minute and can fall behind).
func SessionCleanupJob(db *mongo.Database, logger *zap.Logger) Job {
	return Job{
		Name:     "session-cleanup",
		Interval: 1 * time.Hour,
		Run: func(ctx context.Context) error {
			coll := db.Collection("sessions")
			result, err := coll.DeleteMany(ctx, bson.M{
				"expires_at": bson.M{"$lt": time.Now()},
			})
			if err != nil {
				return err
			}
			if result.DeletedCount > 0 {
				logger.Info("cleaned up expired sessions",
					zap.Int64("deleted", result.DeletedCount))
			}
			return nil
		},
	}
}

// InactiveSessionCleanupJob creates a job that closes sessions inactive for longer than
// the specified threshold. This marks sessions as ended (with end_reason="inactive")
// rather than deleting them, so the device breakdown keeps its user_agent history.
func InactiveSessionCleanupJob(db *mongo.Database, logger *zap.Logger, threshold time.Duration) Job {
	return Job{
		Name:     "inactive-session-cleanup",
		Interval: 5 * time.Minute,
		Run: func(ctx context.Context) error {
			coll := db.Collection("sessions")
			cutoff := time.Now().Add(-threshold)
			now := time.Now()

			result, err := coll.UpdateMany(ctx,
				bson.M{
					"logout_at":     nil,
					"last_activity": bson.M{"$lt": cutoff},
				},
				bson.M{
					"$set": bson.M{
						"logout_at":  now,
						"end_reason": "inactive",
						"updated_at": now,
					},
				},
			)
			if err != nil {
				return err
			}
			if result.ModifiedCount > 0 {
				logger.Info("closed inactive sessions",
					zap.Int64("count", result.ModifiedCount),
					zap.Duration("threshold", threshold))
			}
			return nil
		},
	}
}

// BackendHealthJob creates a job that pings the analytics backend so outages
// show up in the logs before a client notices a broken dashboard.
func BackendHealthJob(ping func(ctx context.Context) error, logger *zap.Logger) Job {
	return Job{
		Name:     "backend-health",
		Interval: 5 * time.Minute,
		Run: func(ctx context.Context) error {
			if err := ping(ctx); err != nil {
				logger.Warn("analytics backend unreachable", zap.Error(err))
			}
			return nil
		},
	}
}
