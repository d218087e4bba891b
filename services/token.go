package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var errInvalidToken = errors.New("invalid teacher token")

// IssueTeacherToken mints the capability returned by poll creation. The
// signed token is the bearer credential for teacher-only actions; the
// embedded teacher id ties it to the poll it created.
func IssueTeacherToken(secret string) (token string, teacherID string, err error) {
	teacherID = uuid.NewString()
	claims := jwt.MapClaims{
		"role": "teacher",
		"tid":  teacherID,
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", "", err
	}
	return token, teacherID, nil
}

// VerifyTeacherToken validates a capability token and returns the teacher id
// it was issued for.
func VerifyTeacherToken(secret, token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return "", errInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", errInvalidToken
	}
	if role, _ := claims["role"].(string); role != "teacher" {
		return "", errInvalidToken
	}
	teacherID, _ := claims["tid"].(string)
	if teacherID == "" {
		return "", errInvalidToken
	}
	return teacherID, nil
}
