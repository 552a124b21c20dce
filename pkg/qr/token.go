package qr

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrPayloadInvalid = errors.New("qr payload is not a valid signed token")
	ErrPayloadExpired = errors.New("qr payload has expired")
)

// PayloadSigner produces and validates the signed, short-lived payload a
// ticket QR carries. A bare ticket id is never embedded: anyone who learns
// an id must not be able to forge a scan.
type PayloadSigner struct {
	secret []byte
	ttl    time.Duration
}

func NewPayloadSigner(secret string, ttl time.Duration) *PayloadSigner {
	return &PayloadSigner{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Sign wraps a ticket id into an HMAC-signed token with an expiry.
func (s *PayloadSigner) Sign(ticketID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"ticket_id": ticketID,
		"iat":       now.Unix(),
		"exp":       now.Add(s.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Parse validates a scanned payload and extracts the ticket id.
func (s *PayloadSigner) Parse(payload string) (string, error) {
	token, err := jwt.Parse(payload, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrPayloadExpired
		}
		return "", ErrPayloadInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrPayloadInvalid
	}

	ticketID, ok := claims["ticket_id"].(string)
	if !ok || ticketID == "" {
		return "", ErrPayloadInvalid
	}
	return ticketID, nil
}
