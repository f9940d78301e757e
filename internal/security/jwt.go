package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"jobsite/internal/common"
)

var (
	ErrTokenFormat    = errors.New("invalid token format")
	ErrTokenSignature = errors.New("invalid token signature")
	ErrTokenExpired   = errors.New("token expired")
)

type JWTProvider struct {
	secret []byte
	clock  func() time.Time
}

func NewJWTProvider(secret string) *JWTProvider {
	return &JWTProvider{secret: []byte(secret), clock: time.Now}
}

type Claims struct {
	Sub   string `json:"sub"`
	Role  string `json:"role,omitempty"`
	Staff bool   `json:"staff,omitempty"`
	Exp   int64  `json:"exp"`
	Iat   int64  `json:"iat"`
}

func (p *JWTProvider) Generate(userID common.UUID, role string, staff bool, ttl time.Duration) (string, time.Time, error) {
	now := p.clock().UTC()
	expiresAt := now.Add(ttl)
	header := map[string]string{"alg": "HS256", "typ": "JWT"}
	claims := Claims{
		Sub:   string(userID),
		Role:  strings.TrimSpace(role),
		Staff: staff,
		Exp:   expiresAt.Unix(),
		Iat:   now.Unix(),
	}
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return "", time.Time{}, err
	}
	payloadJSON, err := json.Marshal(claims)
	if err != nil {
		return "", time.Time{}, err
	}
	headerEnc := base64.RawURLEncoding.EncodeToString(headerJSON)
	payloadEnc := base64.RawURLEncoding.EncodeToString(payloadJSON)
	signingInput := headerEnc + "." + payloadEnc
	sig := signHS256(signingInput, p.secret)
	return signingInput + "." + sig, expiresAt, nil
}

func (p *JWTProvider) Parse(tokenString string) (*Claims, error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return nil, ErrTokenFormat
	}
	signingInput := parts[0] + "." + parts[1]
	if !verifyHS256(signingInput, parts[2], p.secret) {
		return nil, ErrTokenSignature
	}
	payloadJSON, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, err
	}
	var claims Claims
	if err := json.Unmarshal(payloadJSON, &claims); err != nil {
		return nil, err
	}
	if claims.Sub == "" {
		return nil, ErrTokenFormat
	}
	if claims.Exp > 0 && p.clock().UTC().Unix() > claims.Exp {
		return nil, ErrTokenExpired
	}
	return &claims, nil
}

func signHS256(input string, secret []byte) string {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(input))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

func verifyHS256(input, signature string, secret []byte) bool {
	expected := signHS256(input, secret)
	return hmac.Equal([]byte(signature), []byte(expected))
}
