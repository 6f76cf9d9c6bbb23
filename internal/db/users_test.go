package db

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestUpsertUser_CreatesProfile(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user := createUser(t, db, "profile-sub")

	if user.ID == uuid.Nil {
		t.Fatal("UpsertUser() did not set ID")
	}

	profile, err := db.GetProfile(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if profile.FirstName != "Test" {
		t.Errorf("FirstName = %q, want %q", profile.FirstName, "Test")
	}
	if profile.Handle != nil {
		t.Errorf("Handle = %v, want nil", *profile.Handle)
	}
}

func TestUpsertUser_Update(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user := createUser(t, db, "update-sub")
	originalID := user.ID

	user.Email = "updated@example.com"
	if err := db.UpsertUser(ctx, user); err != nil {
		t.Fatalf("UpsertUser() update error = %v", err)
	}
	if user.ID != originalID {
		t.Errorf("UpsertUser() changed ID from %v to %v", originalID, user.ID)
	}

	fetched, err := db.GetUserBySub(ctx, "update-sub")
	if err != nil {
		t.Fatalf("GetUserBySub() error = %v", err)
	}
	if fetched.Email != "updated@example.com" {
		t.Errorf("email = %q, want %q", fetched.Email, "updated@example.com")
	}
}

func TestGetUserBySub_NotFound(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := db.GetUserBySub(context.Background(), "missing")
	if err != ErrUserNotFound {
		t.Errorf("GetUserBySub() error = %v, want %v", err, ErrUserNotFound)
	}
}

func TestUpdateProfile_HandleTaken(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	handle := "shop_one"
	p, _ := db.GetProfile(ctx, alice.ID)
	p.Handle = &handle
	if err := db.UpdateProfile(ctx, p); err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}

	upper := "SHOP_ONE"
	p2, _ := db.GetProfile(ctx, bob.ID)
	p2.Handle = &upper
	if err := db.UpdateProfile(ctx, p2); err != ErrHandleTaken {
		t.Errorf("UpdateProfile() error = %v, want %v", err, ErrHandleTaken)
	}

	available, err := db.IsHandleAvailable(ctx, "Shop_One", bob.ID)
	if err != nil {
		t.Fatalf("IsHandleAvailable() error = %v", err)
	}
	if available {
		t.Error("handle should not be available to another user")
	}

	got, err := db.GetProfileByHandle(ctx, "SHOP_one")
	if err != nil {
		t.Fatalf("GetProfileByHandle() error = %v", err)
	}
	if got.UserID != alice.ID {
		t.Errorf("GetProfileByHandle() user = %v, want %v", got.UserID, alice.ID)
	}
}
