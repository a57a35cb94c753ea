package auth

import (
	"errors"
	"testing"

	"scorely-session-svc/src/internal/config"
	"scorely-session-svc/src/internal/models"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	service, err := NewService(&config.SecuritySettings{
		JwtKey:        "test-signing-key",
		TokenTTLHours: 1,
		ControllerPin: "1234",
		AdminPin:      "9999",
	})
	if err != nil {
		t.Fatalf("failed to build auth service: %v", err)
	}
	return service
}

func TestLoginAndVerify(t *testing.T) {
	service := newTestService(t)

	token, err := service.Login(RoleController, "1234")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	claims, err := service.Verify(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.Role != RoleController {
		t.Fatalf("expected role %q, got %q", RoleController, claims.Role)
	}
	if claims.Issuer != "scorely-auth" {
		t.Fatalf("unexpected issuer %q", claims.Issuer)
	}
}

func TestLoginDisplayNeedsNoPin(t *testing.T) {
	service := newTestService(t)

	token, err := service.Login(RoleDisplay, "")
	if err != nil {
		t.Fatalf("display login failed: %v", err)
	}

	claims, err := service.Verify(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.Role != RoleDisplay {
		t.Fatalf("expected role %q, got %q", RoleDisplay, claims.Role)
	}
}

func TestLoginRejectsWrongPin(t *testing.T) {
	service := newTestService(t)

	if _, err := service.Login(RoleAdmin, "0000"); !errors.Is(err, models.ErrInvalidPin) {
		t.Fatalf("expected ErrInvalidPin, got %v", err)
	}
}

func TestLoginRejectsUnknownRole(t *testing.T) {
	service := newTestService(t)

	if _, err := service.Login("superuser", "1234"); !errors.Is(err, models.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	service := newTestService(t)

	token, err := service.Login(RoleAdmin, "9999")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if _, err := service.Verify(token + "x"); err == nil {
		t.Fatal("expected tampered token to be rejected")
	}
	if _, err := service.Verify("not-a-token"); err == nil {
		t.Fatal("expected garbage token to be rejected")
	}
}

func TestVerifyRejectsForeignKey(t *testing.T) {
	service := newTestService(t)
	other, err := NewService(&config.SecuritySettings{
		JwtKey:        "different-key",
		TokenTTLHours: 1,
		ControllerPin: "1234",
		AdminPin:      "9999",
	})
	if err != nil {
		t.Fatalf("failed to build auth service: %v", err)
	}

	token, err := other.Login(RoleController, "1234")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if _, err := service.Verify(token); err == nil {
		t.Fatal("expected token signed with another key to be rejected")
	}
}

func TestHasLevel(t *testing.T) {
	cases := []struct {
		role     string
		required string
		want     bool
	}{
		{RoleAdmin, RoleController, true},
		{RoleAdmin, RoleAdmin, true},
		{RoleController, RoleDisplay, true},
		{RoleController, RoleAdmin, false},
		{RoleDisplay, RoleController, false},
		{"", RoleDisplay, false},
		{"unknown", RoleDisplay, false},
	}

	for _, tc := range cases {
		if got := HasLevel(tc.role, tc.required); got != tc.want {
			t.Fatalf("HasLevel(%q, %q) = %v, want %v", tc.role, tc.required, got, tc.want)
		}
	}
}

func TestPermissions(t *testing.T) {
	service := newTestService(t)

	if got := service.Permissions(RoleDisplay); len(got) != 1 || got[0] != "view" {
		t.Fatalf("unexpected display permissions %v", got)
	}
	if got := service.Permissions(RoleAdmin); len(got) != 4 {
		t.Fatalf("unexpected admin permissions %v", got)
	}
	if got := service.Permissions("unknown"); got != nil {
		t.Fatalf("expected nil permissions for unknown role, got %v", got)
	}
}
