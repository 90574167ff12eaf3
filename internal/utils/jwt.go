package utils

import (
	"errors"
	"time"

	"github.com/dgrijalva/jwt-go"
)

const resetTokenType = "reset"

var ErrTokenExpired = errors.New("token has expired")

type JWTUtil struct {
	secretKey       string
	expiration      time.Duration
	resetExpiration time.Duration
}

func NewJWTUtil(secretKey string, expiration, resetExpiration time.Duration) *JWTUtil {
	return &JWTUtil{
		secretKey:       secretKey,
		expiration:      expiration,
		resetExpiration: resetExpiration,
	}
}

// Claims identify the user by email in the subject. Type is "reset" for
// password reset tokens and empty for access tokens.
type Claims struct {
	Type string `json:"type,omitempty"`
	jwt.StandardClaims
}

func (j *JWTUtil) GenerateToken(email string) (string, error) {
	return j.sign(email, "", j.expiration)
}

func (j *JWTUtil) GenerateResetToken(email string) (string, error) {
	return j.sign(email, resetTokenType, j.resetExpiration)
}

func (j *JWTUtil) sign(email, typ string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Type: typ,
		StandardClaims: jwt.StandardClaims{
			Subject:   email,
			ExpiresAt: now.Add(ttl).Unix(),
			IssuedAt:  now.Unix(),
			Issuer:    "student-connect",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secretKey))
}

// ValidateToken accepts access tokens only.
func (j *JWTUtil) ValidateToken(tokenString string) (*Claims, error) {
	claims, err := j.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != "" {
		return nil, jwt.ErrSignatureInvalid
	}
	return claims, nil
}

// ValidateResetToken accepts password reset tokens only.
func (j *JWTUtil) ValidateResetToken(tokenString string) (*Claims, error) {
	claims, err := j.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != resetTokenType {
		return nil, jwt.ErrSignatureInvalid
	}
	return claims, nil
}

func (j *JWTUtil) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(j.secretKey), nil
	})

	if err != nil {
		if ve, ok := err.(*jwt.ValidationError); ok {
			if ve.Errors&jwt.ValidationErrorExpired != 0 {
				return nil, ErrTokenExpired
			}
			return nil, jwt.ErrSignatureInvalid
		}
		return nil, err
	}

	if !token.Valid || claims.Subject == "" {
		return nil, jwt.ErrSignatureInvalid
	}

	return claims, nil
}

// PeekExpiry reads the exp claim of a JWT without checking its signature.
// The client cannot verify tokens; this is for display only.
func PeekExpiry(tokenString string) (time.Time, bool) {
	claims := &jwt.StandardClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(tokenString, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == 0 {
		return time.Time{}, false
	}
	return time.Unix(claims.ExpiresAt, 0), true
}
