package utils

import (
	"testing"
	"time"

	"dambabgo/config"
	"dambabgo/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupAuthTest(t *testing.T) *models.User {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.RefreshToken{}))

	config.DB = db
	config.AppConfig.EncryptionKey = "test-encryption-key"

	user := &models.User{UID: "uid-1234", DisplayName: "김민수", IsActive: true}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestGenerateAndParseJWTToken(t *testing.T) {
	user := setupAuthTest(t)

	access, refresh, err := GenerateJWTToken(user, "test-agent", "127.0.0.1")
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)

	claims, err := ParseJWTToken(access)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	// Refresh token was persisted for revocation.
	var record models.RefreshToken
	require.NoError(t, config.DB.Where("token = ?", refresh).First(&record).Error)
	assert.Equal(t, user.ID, record.UserID)
	assert.Equal(t, "test-agent", record.UserAgent)
}

func TestParseJWTTokenRejectsExpired(t *testing.T) {
	setupAuthTest(t)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	tokenString, err := expired.SignedString([]byte(config.AppConfig.EncryptionKey))
	require.NoError(t, err)

	_, err = ParseJWTToken(tokenString)
	assert.Error(t, err)
}

func TestParseJWTTokenRejectsWrongKey(t *testing.T) {
	setupAuthTest(t)

	other := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	})
	tokenString, err := other.SignedString([]byte("some-other-key"))
	require.NoError(t, err)

	_, err = ParseJWTToken(tokenString)
	assert.Error(t, err)
}

func TestRefreshTokensRotates(t *testing.T) {
	user := setupAuthTest(t)

	_, refresh, err := GenerateJWTToken(user, "test-agent", "127.0.0.1")
	require.NoError(t, err)

	newAccess, newRefresh, err := RefreshTokens(refresh, "test-agent", "127.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, newAccess)
	assert.NotEmpty(t, newRefresh)

	// The old row was replaced, not accumulated.
	var count int64
	require.NoError(t, config.DB.Model(&models.RefreshToken{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	var record models.RefreshToken
	require.NoError(t, config.DB.Where("token = ?", newRefresh).First(&record).Error)
	assert.Equal(t, user.ID, record.UserID)
}

func TestRefreshTokensRejectsUnknownToken(t *testing.T) {
	user := setupAuthTest(t)

	// A structurally valid token that was never persisted.
	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	tokenString, err := forged.SignedString([]byte(config.AppConfig.EncryptionKey))
	require.NoError(t, err)

	_, _, err = RefreshTokens(tokenString, "test-agent", "127.0.0.1")
	assert.Error(t, err)
}
