package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/asistanapp/panel-service/internal/domain"
)

func testAgent() *domain.Agent {
	tenantID := "9f0b8a4e-9f2f-4a0c-8f33-0a4f6f1c2ab1"
	return &domain.Agent{
		ID:       "5c7de907-3c6b-4f0e-bb25-7a5f1c9d4e88",
		TenantID: &tenantID,
		Name:     "Ada",
		Email:    "ada@example.com",
		Role:     domain.RoleAgent,
		Active:   true,
	}
}

func TestGenerateAndParseToken(t *testing.T) {
	tm := NewTokenManager("test-secret", 15)
	agent := testAgent()

	token, expiresAt, err := tm.GenerateToken(agent)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if token == "" {
		t.Fatal("GenerateToken() returned empty token")
	}
	if remaining := time.Until(expiresAt); remaining < 14*time.Minute || remaining > 15*time.Minute {
		t.Errorf("expiresAt %v outside expected window", remaining)
	}

	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Subject != agent.ID {
		t.Errorf("Subject = %q, want %q", claims.Subject, agent.ID)
	}
	if claims.TenantID == nil || *claims.TenantID != *agent.TenantID {
		t.Errorf("TenantID = %v, want %v", claims.TenantID, *agent.TenantID)
	}
	if claims.Role != domain.RoleAgent {
		t.Errorf("Role = %q, want %q", claims.Role, domain.RoleAgent)
	}
}

func TestGenerateTokenPlatformOperator(t *testing.T) {
	tm := NewTokenManager("test-secret", 15)
	agent := testAgent()
	agent.TenantID = nil
	agent.Role = domain.RoleSuperAdmin

	token, _, err := tm.GenerateToken(agent)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.TenantID != nil {
		t.Errorf("TenantID = %v, want nil", *claims.TenantID)
	}
	if claims.Role != domain.RoleSuperAdmin {
		t.Errorf("Role = %q, want %q", claims.Role, domain.RoleSuperAdmin)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	tm := NewTokenManager("test-secret", 15)
	other := NewTokenManager("other-secret", 15)

	token, _, err := tm.GenerateToken(testAgent())
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if _, err := other.ParseToken(token); err == nil {
		t.Fatal("ParseToken() accepted token signed with different secret")
	}
}

func TestParseTokenExpired(t *testing.T) {
	tm := NewTokenManager("test-secret", 15)

	claims := &Claims{
		Role: domain.RoleAgent,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "agent-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := tm.ParseToken(token); err == nil {
		t.Fatal("ParseToken() accepted expired token")
	}
}

func TestHashAndComparePassword(t *testing.T) {
	hashed, err := HashPassword("s3cret-pass", 4)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hashed == "s3cret-pass" {
		t.Fatal("HashPassword() returned plaintext")
	}
	if err := ComparePassword(hashed, "s3cret-pass"); err != nil {
		t.Errorf("ComparePassword() rejected correct password: %v", err)
	}
	if err := ComparePassword(hashed, "wrong"); err == nil {
		t.Error("ComparePassword() accepted wrong password")
	}
}
