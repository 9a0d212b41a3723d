package seeding

import (
	"testing"

	settingsstore "github.com/bluewavedigital/donorpulse/internal/app/store/settings"
	userstore "github.com/bluewavedigital/donorpulse/internal/app/store/users"
	"github.com/bluewavedigital/donorpulse/internal/app/system/authutil"
	"github.com/bluewavedigital/donorpulse/internal/domain/models"
	"github.com/bluewavedigital/donorpulse/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func TestSeedAll_CreatesAdminAndSettings(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	logger := zap.NewNop()

	admin := AdminSeed{
		LoginID:  "admin@example.com",
		Password: "Bootstrap!Pass1",
		FullName: "Site Admin",
	}

	if err := SeedAll(ctx, db, logger, admin, "Acme Giving"); err != nil {
		t.Fatalf("SeedAll() error = %v", err)
	}

	users := userstore.New(db)
	u, err := users.GetByLoginID(ctx, "admin@example.com")
	if err != nil {
		t.Fatalf("GetByLoginID() error = %v", err)
	}
	if u == nil {
		t.Fatal("seeded admin user not found")
	}
	if u.Role != models.RoleAdmin {
		t.Errorf("seeded user role = %q, want %q", u.Role, models.RoleAdmin)
	}
	if u.FullName != "Site Admin" {
		t.Errorf("seeded user full name = %q, want %q", u.FullName, "Site Admin")
	}
	if u.PasswordHash == nil {
		t.Fatal("seeded user should have a password hash")
	}
	if !authutil.CheckPassword("Bootstrap!Pass1", *u.PasswordHash) {
		t.Error("seeded password hash should match the configured password")
	}

	settings := settingsstore.New(db)
	s, err := settings.Get(ctx)
	if err != nil {
		t.Fatalf("settings Get() error = %v", err)
	}
	if s.SiteName != "Acme Giving" {
		t.Errorf("seeded site name = %q, want %q", s.SiteName, "Acme Giving")
	}
}

func TestSeedAll_SkipsAdminWithoutCredentials(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	logger := zap.NewNop()

	if err := SeedAll(ctx, db, logger, AdminSeed{}, ""); err != nil {
		t.Fatalf("SeedAll() error = %v", err)
	}

	users := userstore.New(db)
	count, err := users.CountActiveAdmins(ctx)
	if err != nil {
		t.Fatalf("CountActiveAdmins() error = %v", err)
	}
	if count != 0 {
		t.Errorf("admin count = %d, want 0 when no seed credentials configured", count)
	}

	// Site settings are still seeded with the default name.
	settings := settingsstore.New(db)
	s, err := settings.Get(ctx)
	if err != nil {
		t.Fatalf("settings Get() error = %v", err)
	}
	if s.SiteName != models.DefaultSiteName {
		t.Errorf("seeded site name = %q, want %q", s.SiteName, models.DefaultSiteName)
	}
}

func TestSeedAll_SkipsExistingAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	logger := zap.NewNop()

	admin := AdminSeed{LoginID: "admin@example.com", Password: "Bootstrap!Pass1"}

	if err := SeedAll(ctx, db, logger, admin, ""); err != nil {
		t.Fatalf("First SeedAll() error = %v", err)
	}

	// A second run with different credentials must not add another admin.
	second := AdminSeed{LoginID: "other@example.com", Password: "Another!Pass1"}
	if err := SeedAll(ctx, db, logger, second, ""); err != nil {
		t.Fatalf("Second SeedAll() error = %v", err)
	}

	users := userstore.New(db)
	count, err := users.CountActiveAdmins(ctx)
	if err != nil {
		t.Fatalf("CountActiveAdmins() error = %v", err)
	}
	if count != 1 {
		t.Errorf("admin count = %d, want 1 after repeated seeding", count)
	}

	if _, err := users.GetByLoginID(ctx, "other@example.com"); err != mongo.ErrNoDocuments {
		t.Errorf("GetByLoginID() error = %v, want mongo.ErrNoDocuments for the second seed login", err)
	}
}

func TestSeedAll_DefaultAdminName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	logger := zap.NewNop()

	admin := AdminSeed{LoginID: "admin@example.com", Password: "Bootstrap!Pass1"}
	if err := SeedAll(ctx, db, logger, admin, ""); err != nil {
		t.Fatalf("SeedAll() error = %v", err)
	}

	users := userstore.New(db)
	u, err := users.GetByLoginID(ctx, "admin@example.com")
	if err != nil {
		t.Fatalf("GetByLoginID() error = %v", err)
	}
	if u == nil {
		t.Fatal("seeded admin user not found")
	}
	if u.FullName != "Administrator" {
		t.Errorf("seeded user full name = %q, want %q", u.FullName, "Administrator")
	}
}
