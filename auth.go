package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const slotTokenExpiry = 2 * time.Hour

// Auth issues and validates slot tokens: short-lived JWTs binding a
// session ID and actor slot. A player who drops mid-match presents the
// token from their welcome message to resume the same slot; phone
// controllers use the same token to attach.
type Auth struct {
	jwtSecret []byte
}

// NewAuth creates the token service, persisting the signing secret so
// tokens survive a server restart
func NewAuth(db *DB) *Auth {
	return &Auth{jwtSecret: loadOrCreateSecret(db)}
}

// loadOrCreateSecret loads the JWT secret from the database, or generates
// and persists a new one if none exists.
func loadOrCreateSecret(db *DB) []byte {
	if db != nil {
		if h := db.GetSetting("jwt_secret"); h != "" {
			if b, err := hex.DecodeString(h); err == nil && len(b) == 32 {
				return b
			}
		}
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic("failed to generate JWT secret: " + err.Error())
	}
	if db != nil {
		if err := db.SetSetting("jwt_secret", hex.EncodeToString(secret)); err != nil {
			log.Printf("warning: could not persist JWT secret: %v", err)
		}
	}
	return secret
}

// IssueSlotToken signs a token for (session, slot)
func (a *Auth) IssueSlotToken(sessionID string, slot int) (string, error) {
	claims := jwt.MapClaims{
		"sid":  sessionID,
		"slot": slot,
		"exp":  time.Now().Add(slotTokenExpiry).Unix(),
		"iat":  time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.jwtSecret)
}

// ValidateSlotToken verifies a token and returns (sessionID, slot)
func (a *Auth) ValidateSlotToken(tokenStr string) (string, int, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return "", -1, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", -1, fmt.Errorf("invalid token")
	}

	sid, ok := claims["sid"].(string)
	if !ok {
		return "", -1, fmt.Errorf("invalid token claims")
	}
	slotFloat, ok := claims["slot"].(float64)
	if !ok {
		return "", -1, fmt.Errorf("invalid token claims")
	}
	slot := int(slotFloat)
	if slot < 0 || slot > 1 {
		return "", -1, fmt.Errorf("invalid slot")
	}
	return sid, slot, nil
}

// GenerateGuestName creates a unique guest name like "Guest_a3f2c1"
func GenerateGuestName() string {
	return "Guest_" + GenerateID(3)
}
