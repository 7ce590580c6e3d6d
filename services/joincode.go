package services

import (
	"crypto/rand"
	"strings"

	"namingthings/models"

	"gorm.io/gorm"
)

const (
	joinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789" // no I/1/O/0
	joinCodeLength   = 6
	joinCodeAttempts = 10
)

func newJoinCode() (string, error) {
	buf := make([]byte, joinCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	// 256 is a multiple of 32, so the modulo is unbiased.
	for i := range buf {
		buf[i] = joinCodeAlphabet[int(buf[i])%len(joinCodeAlphabet)]
	}
	return string(buf), nil
}

// NormalizeCode upper-cases a user-typed join code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// uniqueJoinCode draws codes until one is unused. After joinCodeAttempts
// collisions the last draw is kept; codes resolve to the newest game anyway.
func uniqueJoinCode(tx *gorm.DB) (string, error) {
	var code string
	for attempt := 0; attempt < joinCodeAttempts; attempt++ {
		var err error
		code, err = newJoinCode()
		if err != nil {
			return "", Internal("failed to generate join code", err)
		}
		var count int64
		if err := tx.Model(&models.Game{}).Where("code = ?", code).Count(&count).Error; err != nil {
			return "", Internal("failed to check join code", err)
		}
		if count == 0 {
			return code, nil
		}
	}
	return code, nil
}
