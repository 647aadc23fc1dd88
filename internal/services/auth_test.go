package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ivaaanrm/PaceUp/internal/apierr"
	"github.com/ivaaanrm/PaceUp/internal/repos"
	"github.com/ivaaanrm/PaceUp/internal/requestdata"
	"github.com/ivaaanrm/PaceUp/internal/types"
)

func newTestAuthService(t *testing.T, db *gorm.DB) AuthService {
	t.Helper()
	log := testLogger(t)
	return NewAuthService(db, log, repos.NewUserRepo(db, log), "test-secret", time.Hour)
}

func registerTestUser(t *testing.T, svc AuthService, email string) *types.User {
	t.Helper()
	user, err := svc.RegisterUser(context.Background(), &types.User{
		Email:     email,
		Password:  "correct horse battery",
		FirstName: "Test",
		LastName:  "User",
	})
	if err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	return user
}

func TestRegisterUser(t *testing.T) {
	db := openTestDB(t)
	svc := newTestAuthService(t, db)

	user := registerTestUser(t, svc, "  Runner@Example.COM ")
	if user.ID == uuid.Nil {
		t.Fatal("user id not assigned")
	}
	if user.Email != "runner@example.com" {
		t.Fatalf("email = %q, want normalized", user.Email)
	}
	if user.Password == "correct horse battery" {
		t.Fatal("password stored in plain text")
	}

	// Same address with different casing is still taken.
	_, err := svc.RegisterUser(context.Background(), &types.User{
		Email:    "RUNNER@example.com",
		Password: "another password",
	})
	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusConflict {
		t.Fatalf("err = %v, want 409", err)
	}
}

func TestRegisterUserMissingInput(t *testing.T) {
	db := openTestDB(t)
	svc := newTestAuthService(t, db)

	_, err := svc.RegisterUser(context.Background(), &types.User{Email: "a@b.com"})
	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
		t.Fatalf("err = %v, want 400", err)
	}
}

func TestLoginUser(t *testing.T) {
	db := openTestDB(t)
	svc := newTestAuthService(t, db)
	registered := registerTestUser(t, svc, "runner@example.com")

	token, user, err := svc.LoginUser(context.Background(), "Runner@Example.com", "correct horse battery")
	if err != nil {
		t.Fatalf("LoginUser: %v", err)
	}
	if token == "" || user.ID != registered.ID {
		t.Fatalf("token = %q, user = %+v", token, user)
	}

	// Wrong password and unknown email fail identically.
	_, _, err = svc.LoginUser(context.Background(), "runner@example.com", "wrong")
	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("wrong password err = %v, want 401", err)
	}
	_, _, err = svc.LoginUser(context.Background(), "nobody@example.com", "correct horse battery")
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("unknown email err = %v, want 401", err)
	}
}

func TestSetContextFromToken(t *testing.T) {
	db := openTestDB(t)
	svc := newTestAuthService(t, db)
	registered := registerTestUser(t, svc, "runner@example.com")

	athleteID := int64(7)
	if err := db.Model(&types.User{}).Where("id = ?", registered.ID).
		Update("athlete_id", athleteID).Error; err != nil {
		t.Fatalf("link athlete: %v", err)
	}

	token, _, err := svc.LoginUser(context.Background(), "runner@example.com", "correct horse battery")
	if err != nil {
		t.Fatalf("LoginUser: %v", err)
	}

	ctx, err := svc.SetContextFromToken(context.Background(), token)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		t.Fatal("request data missing from context")
	}
	if rd.UserID != registered.ID || rd.AthleteID != athleteID || rd.TokenString != token {
		t.Fatalf("rd = %+v", rd)
	}
}

func TestSetContextFromTokenRejectsBadTokens(t *testing.T) {
	db := openTestDB(t)
	svc := newTestAuthService(t, db)
	registerTestUser(t, svc, "runner@example.com")

	if _, err := svc.SetContextFromToken(context.Background(), "not-a-jwt"); err == nil {
		t.Fatal("garbage token accepted")
	}

	// A token signed with a different secret is rejected outright.
	other := NewAuthService(db, testLogger(t), repos.NewUserRepo(db, testLogger(t)), "other-secret", time.Hour)
	token, _, err := other.LoginUser(context.Background(), "runner@example.com", "correct horse battery")
	if err != nil {
		t.Fatalf("LoginUser: %v", err)
	}
	if _, err := svc.SetContextFromToken(context.Background(), token); err == nil {
		t.Fatal("token with wrong signature accepted")
	}
}
