package repository

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqlRecorder keeps every statement gorm builds.
type sqlRecorder struct {
	mu   sync.Mutex
	stmt []string
}

func (r *sqlRecorder) LogMode(logger.LogLevel) logger.Interface      { return r }
func (r *sqlRecorder) Info(context.Context, string, ...interface{})  {}
func (r *sqlRecorder) Warn(context.Context, string, ...interface{})  {}
func (r *sqlRecorder) Error(context.Context, string, ...interface{}) {}

func (r *sqlRecorder) Trace(_ context.Context, _ time.Time, fc func() (string, int64), _ error) {
	sql, _ := fc()
	r.mu.Lock()
	r.stmt = append(r.stmt, sql)
	r.mu.Unlock()
}

func (r *sqlRecorder) last(t *testing.T) string {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.stmt)
	return r.stmt[len(r.stmt)-1]
}

// mysqlDryRun builds MySQL statements without a server.
func mysqlDryRun(t *testing.T) (*gorm.DB, *sqlRecorder) {
	t.Helper()
	rec := &sqlRecorder{}
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "trxearn:trxearn@tcp(127.0.0.1:3306)/trxearn?parseTime=True",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true, Logger: rec})
	require.NoError(t, err)
	return db, rec
}

func TestGetByIDForUpdate_LocksAccountRow(t *testing.T) {
	db, rec := mysqlDryRun(t)
	ctx := context.Background()

	_, err := NewAccountRepository(db).GetByIDForUpdate(ctx, "1001")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(rec.last(t), "FOR UPDATE"), rec.last(t))

	_, err = NewAccountRepository(db).GetByID(ctx, "1001")
	require.NoError(t, err)
	assert.NotContains(t, rec.last(t), "FOR UPDATE")
}

func TestGetByIDForUpdate_LocksWithdrawalRow(t *testing.T) {
	db, rec := mysqlDryRun(t)

	_, err := NewWithdrawalRepository(db).GetByIDForUpdate(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(rec.last(t), "FOR UPDATE"), rec.last(t))
}
