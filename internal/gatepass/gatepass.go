// Package gatepass issues and redeems the single-use capability token that
// Channel A hands to Channel B. The pass is a short-lived signed token
// carrying the event and the check-in code that was matched; spending it
// after one successful dynamic submission retires its id for the remainder
// of its lifetime.
package gatepass

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu    sync.Mutex
	spent map[string]time.Time // jti -> expiry, purged lazily
}

func New(secret string, ttl time.Duration) *Service {
	return &Service{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
		spent:  make(map[string]time.Time),
	}
}

type claims struct {
	Event string `json:"evt"`
	Code  string `json:"code"`
	jwt.RegisteredClaims
}

// Pass is a redeemed, not-yet-spent gate pass.
type Pass struct {
	Event string
	Code  string
	Id    string
}

// Issue mints a pass for the given event after its code was matched.
func (s *Service) Issue(eventUid, code string) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Event: eventUid,
		Code:  code,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign gate pass: %w", err)
	}
	return signed, nil
}

// Redeem validates a pass for the given event. Expired, foreign-event and
// already-spent passes are all rejected.
func (s *Service) Redeem(tokenString, eventUid string) (*Pass, error) {
	var c claims
	_, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil {
		return nil, fmt.Errorf("parse gate pass: %w", err)
	}
	if c.Event != eventUid {
		return nil, fmt.Errorf("gate pass is for another event")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeLocked()
	if _, used := s.spent[c.ID]; used {
		return nil, fmt.Errorf("gate pass already used")
	}
	return &Pass{Event: c.Event, Code: c.Code, Id: c.ID}, nil
}

// Spend retires a redeemed pass after a successful submission.
func (s *Service) Spend(pass *Pass) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spent[pass.Id] = s.now().Add(s.ttl)
}

// purgeLocked drops spent entries whose tokens have expired anyway.
func (s *Service) purgeLocked() {
	now := s.now()
	for id, exp := range s.spent {
		if now.After(exp) {
			delete(s.spent, id)
		}
	}
}
