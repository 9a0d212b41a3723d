// internal/app/store/orgs/orgstore.go
package orgstore

import (
	"context"
	"errors"
	"time"

	"github.com/bluewavedigital/donorpulse/internal/app/system/normalize"
	"github.com/bluewavedigital/donorpulse/internal/app/system/status"
	"github.com/bluewavedigital/donorpulse/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store manages client organization records in MongoDB.
type Store struct {
	c *mongo.Collection
}

// New creates a new org Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("orgs")}
}

var (
	// ErrDuplicateBackendOrgID is returned when creating an org whose
	// backend_org_id is already registered.
	ErrDuplicateBackendOrgID = errors.New("an organization with this backend org ID already exists")
	errMissingName           = errors.New("organization name is required")
	errMissingBackendOrgID   = errors.New("backend org ID is required")
	errBadStatus             = errors.New(`status must be "active"|"disabled"`)
)

// Create inserts a new org after normalizing & validating fields.
func (s *Store) Create(ctx context.Context, org models.Org) (models.Org, error) {
	org.ID = primitive.NewObjectID()
	org.Name = normalize.Name(org.Name)
	org.BackendOrgID = normalize.QueryParam(org.BackendOrgID)

	if org.Name == "" {
		return models.Org{}, errMissingName
	}
	if org.BackendOrgID == "" {
		return models.Org{}, errMissingBackendOrgID
	}
	if org.Timezone == "" {
		org.Timezone = models.DefaultTimezone
	}
	if org.Status == "" {
		org.Status = status.Active
	}
	if !status.IsValid(org.Status) {
		return models.Org{}, errBadStatus
	}

	now := time.Now()
	org.CreatedAt = now
	org.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, org); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Org{}, ErrDuplicateBackendOrgID
		}
		return models.Org{}, err
	}
	return org, nil
}

// GetByID loads an org by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Org, error) {
	var org models.Org
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&org); err != nil {
		return nil, err
	}
	return &org, nil
}

// GetByBackendOrgID loads an org by its backend identifier.
func (s *Store) GetByBackendOrgID(ctx context.Context, backendOrgID string) (*models.Org, error) {
	var org models.Org
	if err := s.c.FindOne(ctx, bson.M{"backend_org_id": backendOrgID}).Decode(&org); err != nil {
		return nil, err
	}
	return &org, nil
}

// ListAll returns all orgs sorted by name.
func (s *Store) ListAll(ctx context.Context) ([]models.Org, error) {
	opts := options.Find().SetSort(bson.M{"name": 1})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var orgs []models.Org
	if err := cur.All(ctx, &orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}

// UpdateInput holds the optional fields for updating an org.
// All fields are pointers - nil means "don't update this field".
type UpdateInput struct {
	Name         *string
	BackendOrgID *string
	Timezone     *string
	Status       *string
}

// UpdateFromInput updates an org using optional fields.
// Only non-nil fields in input are updated.
func (s *Store) UpdateFromInput(ctx context.Context, id primitive.ObjectID, input UpdateInput) error {
	set := bson.M{
		"updated_at": time.Now(),
	}

	if input.Name != nil {
		set["name"] = normalize.Name(*input.Name)
	}
	if input.BackendOrgID != nil {
		set["backend_org_id"] = normalize.QueryParam(*input.BackendOrgID)
	}
	if input.Timezone != nil {
		set["timezone"] = *input.Timezone
	}
	if input.Status != nil {
		if !status.IsValid(*input.Status) {
			return errBadStatus
		}
		set["status"] = *input.Status
	}

	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateBackendOrgID
		}
		return err
	}
	return nil
}

// Delete deletes an org by ID.
// Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Count returns the number of orgs matching the given filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}
