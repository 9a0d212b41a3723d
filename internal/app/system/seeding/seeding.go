// internal/app/system/seeding/seeding.go
package seeding

import (
	"context"

	settingsstore "github.com/bluewavedigital/donorpulse/internal/app/store/settings"
	userstore "github.com/bluewavedigital/donorpulse/internal/app/store/users"
	"github.com/bluewavedigital/donorpulse/internal/app/system/authutil"
	"github.com/bluewavedigital/donorpulse/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// AdminSeed holds the bootstrap admin credentials from config.
// Seeding is skipped when LoginID or Password is empty.
type AdminSeed struct {
	LoginID  string
	Password string
	FullName string
}

// SeedAll seeds default data if not already present. siteName overrides
// the default site name in the seeded settings document; pass "" to keep
// the default.
func SeedAll(ctx context.Context, db *mongo.Database, logger *zap.Logger, admin AdminSeed, siteName string) error {
	if err := seedAdminUser(ctx, db, logger, admin); err != nil {
		return err
	}
	if err := seedSiteSettings(ctx, db, logger, siteName); err != nil {
		return err
	}
	return nil
}

// seedAdminUser creates the bootstrap admin account when no active admin
// exists. Without it a fresh deployment has no way to log in.
func seedAdminUser(ctx context.Context, db *mongo.Database, logger *zap.Logger, admin AdminSeed) error {
	if admin.LoginID == "" || admin.Password == "" {
		logger.Debug("admin seed credentials not configured, skipping")
		return nil
	}

	store := userstore.New(db)

	count, err := store.CountActiveAdmins(ctx)
	if err != nil {
		logger.Error("failed to count active admins", zap.Error(err))
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := authutil.HashPassword(admin.Password)
	if err != nil {
		logger.Error("failed to hash seed admin password", zap.Error(err))
		return err
	}

	fullName := admin.FullName
	if fullName == "" {
		fullName = "Administrator"
	}

	temp := true
	_, err = store.CreateFromInput(ctx, userstore.CreateInput{
		FullName:     fullName,
		LoginID:      admin.LoginID,
		Role:         models.RoleAdmin,
		PasswordHash: &hash,
		PasswordTemp: &temp,
	})
	if err != nil {
		logger.Error("failed to seed admin user", zap.Error(err))
		return err
	}

	logger.Info("seeded bootstrap admin user", zap.String("login_id", admin.LoginID))
	return nil
}

// seedSiteSettings writes the default settings document so the landing page
// renders real content before anyone edits it.
func seedSiteSettings(ctx context.Context, db *mongo.Database, logger *zap.Logger, siteName string) error {
	store := settingsstore.New(db)

	exists, err := store.Exists(ctx)
	if err != nil {
		logger.Error("failed to check site settings", zap.Error(err))
		return err
	}
	if exists {
		return nil
	}

	if siteName == "" {
		siteName = models.DefaultSiteName
	}

	err = store.Save(ctx, models.SiteSettings{
		SiteName:       siteName,
		LandingTitle:   models.DefaultLandingTitle,
		LandingContent: models.DefaultLandingContent,
		FooterHTML:     models.DefaultFooterHTML,
	})
	if err != nil {
		logger.Error("failed to seed site settings", zap.Error(err))
		return err
	}

	logger.Info("seeded default site settings")
	return nil
}
