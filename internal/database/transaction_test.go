package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type txRow struct {
	ID    uint `gorm:"primarykey"`
	Value string
}

func txDB(t *testing.T) Database {
	t.Helper()
	db, err := NewDatabase(context.Background(), "sqlite:///"+filepath.Join(t.TempDir(), "tx.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Session(context.Background()).AutoMigrate(&txRow{}))
	return db
}

func countRows(t *testing.T, db Database) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Session(context.Background()).Model(&txRow{}).Count(&n).Error)
	return n
}

func TestWithTransaction_CommitsOnSuccess(t *testing.T) {
	db := txDB(t)

	err := WithTransaction(context.Background(), db, func(tx *gorm.DB) error {
		for _, v := range []string{"a", "b", "c"} {
			if err := tx.Create(&txRow{Value: v}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	assert.EqualValues(t, 3, countRows(t, db))
}

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	db := txDB(t)
	boom := errors.New("boom")

	err := WithTransaction(context.Background(), db, func(tx *gorm.DB) error {
		if err := tx.Create(&txRow{Value: "doomed"}).Error; err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	assert.Zero(t, countRows(t, db), "partial writes must not survive")
}
