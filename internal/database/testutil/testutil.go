package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"brainboost/internal/database"
)

var testDBSeq atomic.Int64

// NewDB opens an isolated in-memory SQLite database with every table migrated.
// Each call gets its own named shared-cache database so tests do not see each other's rows.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:brainboost_test_%d?mode=memory&cache=shared&_foreign_keys=on", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sqlite: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// CreateUser inserts a user with the given email and returns it.
func CreateUser(t testing.TB, db *gorm.DB, name, email string, subjects ...string) database.User {
	t.Helper()
	user := database.User{
		Name:          name,
		Email:         email,
		PasswordHash:  "not-a-real-hash",
		Subjects:      datatypes.NewJSONSlice(subjects),
		LearningStyle: "visual",
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return user
}
