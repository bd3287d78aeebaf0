// Package grant issues and verifies spectator grants.
//
// A spectator grant is an EdDSA-signed JWT that lets a passive viewer watch a
// single encounter's timeline. The game master side holds the private key and
// issues grants; the spectator HTTP surface only needs the public key.
package grant

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/louisbranch/initiative/internal/platform/errors"
	"github.com/louisbranch/initiative/internal/platform/id"
)

const (
	// EnvIssuer names the grant issuer claim.
	EnvIssuer = "INITIATIVE_SPECTATOR_GRANT_ISSUER"
	// EnvAudience names the grant audience claim.
	EnvAudience = "INITIATIVE_SPECTATOR_GRANT_AUDIENCE"
	// EnvPrivateKey holds the base64 ed25519 private key used to sign grants.
	EnvPrivateKey = "INITIATIVE_SPECTATOR_GRANT_PRIVATE_KEY"
	// EnvPublicKey holds the base64 ed25519 public key used to verify grants.
	EnvPublicKey = "INITIATIVE_SPECTATOR_GRANT_PUBLIC_KEY"
	// EnvTTL sets how long issued grants stay valid.
	EnvTTL = "INITIATIVE_SPECTATOR_GRANT_TTL"
)

// ErrNotConfigured is returned when keys are missing for the requested side.
var ErrNotConfigured = errors.New("spectator grants are not configured")

// grantEnv holds raw env values before post-parse validation.
type grantEnv struct {
	Issuer     string        `env:"INITIATIVE_SPECTATOR_GRANT_ISSUER"      envDefault:"initiative"`
	Audience   string        `env:"INITIATIVE_SPECTATOR_GRANT_AUDIENCE"    envDefault:"initiative-spectator"`
	PrivateKey string        `env:"INITIATIVE_SPECTATOR_GRANT_PRIVATE_KEY"`
	PublicKey  string        `env:"INITIATIVE_SPECTATOR_GRANT_PUBLIC_KEY"`
	TTL        time.Duration `env:"INITIATIVE_SPECTATOR_GRANT_TTL"         envDefault:"12h"`
}

// Config defines how spectator grants are issued and verified.
type Config struct {
	Issuer     string
	Audience   string
	PrivateKey ed25519.PrivateKey
	PublicKey  ed25519.PublicKey
	TTL        time.Duration
	Now        func() time.Time
}

// CanIssue reports whether a signing key is configured.
func (c Config) CanIssue() bool {
	return c.Issuer != "" && c.Audience != "" && len(c.PrivateKey) == ed25519.PrivateKeySize
}

// CanVerify reports whether a verification key is configured.
func (c Config) CanVerify() bool {
	return c.Issuer != "" && c.Audience != "" && len(c.PublicKey) == ed25519.PublicKeySize
}

func (c Config) now() time.Time {
	if c.Now == nil {
		return time.Now().UTC()
	}
	return c.Now().UTC()
}

// Claims captures validated spectator grant claims.
type Claims struct {
	ID          string    `json:"id"`
	Issuer      string    `json:"issuer"`
	Audience    []string  `json:"audience"`
	Subject     string    `json:"subject,omitempty"`
	EncounterID string    `json:"encounterId"`
	IssuedAt    time.Time `json:"issuedAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Grant is an issued token with its claims.
type Grant struct {
	Token  string `json:"token"`
	Claims Claims `json:"claims"`
}

// spectatorClaims is the JWT claims shape.
type spectatorClaims struct {
	jwt.RegisteredClaims
	EncounterID string `json:"encounter_id"`
}

// LoadConfigFromEnv reads grant configuration.
//
// Both keys are optional: a server without a private key cannot issue, and a
// server without any key cannot verify. A private key alone implies its
// public half.
func LoadConfigFromEnv(now func() time.Time) (Config, error) {
	var raw grantEnv
	if err := env.Parse(&raw); err != nil {
		return Config{}, fmt.Errorf("parse spectator grant env: %w", err)
	}
	cfg := Config{
		Issuer:   strings.TrimSpace(raw.Issuer),
		Audience: strings.TrimSpace(raw.Audience),
		TTL:      raw.TTL,
		Now:      now,
	}
	if cfg.TTL <= 0 {
		return Config{}, fmt.Errorf("%s must be positive", EnvTTL)
	}

	if value := strings.TrimSpace(raw.PrivateKey); value != "" {
		keyBytes, err := decodeBase64(value)
		if err != nil {
			return Config{}, fmt.Errorf("decode spectator grant private key: %w", err)
		}
		if len(keyBytes) != ed25519.PrivateKeySize {
			return Config{}, fmt.Errorf("spectator grant private key must be %d bytes", ed25519.PrivateKeySize)
		}
		cfg.PrivateKey = ed25519.PrivateKey(keyBytes)
		cfg.PublicKey = cfg.PrivateKey.Public().(ed25519.PublicKey)
	}
	if value := strings.TrimSpace(raw.PublicKey); value != "" {
		keyBytes, err := decodeBase64(value)
		if err != nil {
			return Config{}, fmt.Errorf("decode spectator grant public key: %w", err)
		}
		if len(keyBytes) != ed25519.PublicKeySize {
			return Config{}, fmt.Errorf("spectator grant public key must be %d bytes", ed25519.PublicKeySize)
		}
		cfg.PublicKey = ed25519.PublicKey(keyBytes)
	}
	return cfg, nil
}

// Issue signs a grant for one encounter. Subject optionally names the viewer.
func Issue(cfg Config, encounterID, subject string) (Grant, error) {
	if !cfg.CanIssue() {
		return Grant{}, fmt.Errorf("issue grant: %w", ErrNotConfigured)
	}
	encounterID = strings.TrimSpace(encounterID)
	if encounterID == "" {
		return Grant{}, apperrors.New(apperrors.CodeEncounterIDRequired, "encounter id is required")
	}
	jti, err := id.NewID()
	if err != nil {
		return Grant{}, fmt.Errorf("issue grant: %w", err)
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}

	now := cfg.now().Truncate(time.Second)
	expiresAt := now.Add(ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, spectatorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   strings.TrimSpace(subject),
			Audience:  jwt.ClaimStrings{cfg.Audience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        jti,
		},
		EncounterID: encounterID,
	})
	signed, err := token.SignedString(cfg.PrivateKey)
	if err != nil {
		return Grant{}, fmt.Errorf("sign grant: %w", err)
	}
	return Grant{
		Token: signed,
		Claims: Claims{
			ID:          jti,
			Issuer:      cfg.Issuer,
			Audience:    []string{cfg.Audience},
			Subject:     strings.TrimSpace(subject),
			EncounterID: encounterID,
			IssuedAt:    now,
			ExpiresAt:   expiresAt,
		},
	}, nil
}

// Validate verifies a grant token and checks it covers encounterID.
func Validate(cfg Config, token, encounterID string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, apperrors.New(apperrors.CodeGrantRequired, "spectator grant is required")
	}
	if !cfg.CanVerify() {
		return Claims{}, apperrors.Wrap(apperrors.CodeGrantNotConfigured, "spectator grant verifier is not configured", ErrNotConfigured)
	}

	var parsed spectatorClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return cfg.PublicKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return Claims{}, mapJWTError(err)
	}

	if parsed.Issuer != cfg.Issuer {
		return Claims{}, apperrors.WithMetadata(apperrors.CodeGrantMismatch, "spectator grant issuer mismatch", map[string]string{apperrors.MetadataField: "issuer"})
	}
	if !audienceContains(parsed.Audience, cfg.Audience) {
		return Claims{}, apperrors.WithMetadata(apperrors.CodeGrantMismatch, "spectator grant audience mismatch", map[string]string{apperrors.MetadataField: "audience"})
	}
	if parsed.ID == "" {
		return Claims{}, apperrors.New(apperrors.CodeGrantInvalid, "spectator grant jti is required")
	}
	if parsed.ExpiresAt == nil {
		return Claims{}, apperrors.New(apperrors.CodeGrantInvalid, "spectator grant exp is required")
	}
	now := cfg.now()
	if !parsed.ExpiresAt.Time.After(now) {
		return Claims{}, apperrors.New(apperrors.CodeGrantExpired, "spectator grant is expired")
	}
	if parsed.NotBefore != nil && now.Before(parsed.NotBefore.Time) {
		return Claims{}, apperrors.New(apperrors.CodeGrantInvalid, "spectator grant not active yet")
	}
	if parsed.EncounterID == "" || parsed.EncounterID != encounterID {
		return Claims{}, apperrors.WithMetadata(apperrors.CodeGrantMismatch, "spectator grant encounter mismatch", map[string]string{apperrors.MetadataField: "encounter_id"})
	}

	claims := Claims{
		ID:          parsed.ID,
		Issuer:      parsed.Issuer,
		Audience:    []string(parsed.Audience),
		Subject:     parsed.Subject,
		EncounterID: parsed.EncounterID,
		ExpiresAt:   parsed.ExpiresAt.Time.UTC(),
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time.UTC()
	}
	return claims, nil
}

// mapJWTError translates jwt library errors to application errors.
func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrEd25519Verification) {
		return apperrors.Wrap(apperrors.CodeGrantInvalid, "spectator grant signature is invalid", err)
	}
	if errors.Is(err, jwt.ErrTokenUnverifiable) {
		return apperrors.Wrap(apperrors.CodeGrantInvalid, "spectator grant alg is invalid", err)
	}
	return apperrors.Wrap(apperrors.CodeGrantInvalid, "spectator grant is invalid", err)
}

func audienceContains(aud jwt.ClaimStrings, value string) bool {
	for _, item := range aud {
		if item == value {
			return true
		}
	}
	return false
}

// decodeBase64 accepts raw or padded standard base64.
func decodeBase64(value string) ([]byte, error) {
	decoded, err := base64.RawStdEncoding.DecodeString(value)
	if err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(value)
}

// EncodeKey renders a key the way LoadConfigFromEnv expects it.
func EncodeKey(key []byte) string {
	return base64.RawStdEncoding.EncodeToString(key)
}
