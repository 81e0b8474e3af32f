package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *gorm.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn: mockDB,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	require.NoError(t, err)

	return mockDB, mock, gormDB
}

func TestNewPoolManager(t *testing.T) {
	mockDB, _, gormDB := setupTestDB(t)
	defer mockDB.Close()

	logger := zap.NewNop()
	config := PoolConfig{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 1 * time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}

	manager, err := NewPoolManager(gormDB, config, logger)
	require.NoError(t, err)

	assert.NotNil(t, manager)
	assert.NotNil(t, manager.db)
	assert.NotNil(t, manager.logger)
	assert.Equal(t, config, manager.config)
}

func TestPoolManager_GetDB(t *testing.T) {
	mockDB, _, gormDB := setupTestDB(t)
	defer mockDB.Close()

	logger := zap.NewNop()
	config := PoolConfig{
		MaxOpenConns: 10,
		MaxIdleConns: 5,
	}

	manager, err := NewPoolManager(gormDB, config, logger)
	require.NoError(t, err)

	db := manager.DB()

	assert.NotNil(t, db)
	assert.Equal(t, gormDB, db)
}

func TestPoolManager_HealthCheck(t *testing.T) {
	mockDB, mock, gormDB := setupTestDB(t)
	defer mockDB.Close()

	logger := zap.NewNop()
	config := PoolConfig{
		MaxOpenConns: 10,
		MaxIdleConns: 5,
	}

	manager, err := NewPoolManager(gormDB, config, logger)
	require.NoError(t, err)

	ctx := context.Background()

	// mock a successful ping
	mock.ExpectPing()

	err = manager.Ping(ctx)
	assert.NoError(t, err)

	// verify all expectations were met
	err = mock.ExpectationsWereMet()
	assert.NoError(t, err)
}

func TestPoolManager_HealthCheckFailed(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer mockDB.Close()

	// gorm.Open issues its own ping while initializing the connection.
	mock.ExpectPing()

	dialector := postgres.New(postgres.Config{
		Conn: mockDB,
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	require.NoError(t, err)

	logger := zap.NewNop()
	config := PoolConfig{
		MaxOpenConns: 10,
		MaxIdleConns: 5,
	}

	manager, err := NewPoolManager(gormDB, config, logger)
	require.NoError(t, err)

	ctx := context.Background()

	// mock a failed ping
	mock.ExpectPing().WillReturnError(sql.ErrConnDone)

	err = manager.Ping(ctx)
	assert.Error(t, err)
}

func TestPoolManager_GetStats(t *testing.T) {
	mockDB, _, gormDB := setupTestDB(t)
	defer mockDB.Close()

	logger := zap.NewNop()
	config := PoolConfig{
		MaxOpenConns: 10,
		MaxIdleConns: 5,
	}

	manager, err := NewPoolManager(gormDB, config, logger)
	require.NoError(t, err)

	stats := manager.GetStats()
	assert.NotNil(t, stats)
	assert.GreaterOrEqual(t, stats.MaxOpenConnections, 0)
	assert.GreaterOrEqual(t, stats.OpenConnections, 0)
	assert.GreaterOrEqual(t, stats.InUse, 0)
	assert.GreaterOrEqual(t, stats.Idle, 0)
}

func TestPoolManager_WithTransaction(t *testing.T) {
	mockDB, mock, gormDB := setupTestDB(t)
	defer mockDB.Close()

	logger := zap.NewNop()
	config := PoolConfig{
		MaxOpenConns: 10,
		MaxIdleConns: 5,
	}

	manager, err := NewPoolManager(gormDB, config, logger)
	require.NoError(t, err)

	ctx := context.Background()

	// mock a transaction
	mock.ExpectBegin()
	mock.ExpectCommit()

	err = manager.WithTransaction(ctx, func(tx *gorm.DB) error {
		// work done inside the transaction
		return nil
	})

	assert.NoError(t, err)

	// verify all expectations were met
	err = mock.ExpectationsWereMet()
	assert.NoError(t, err)
}

func TestPoolManager_WithTransactionRollback(t *testing.T) {
	mockDB, mock, gormDB := setupTestDB(t)
	defer mockDB.Close()

	logger := zap.NewNop()
	config := PoolConfig{
		MaxOpenConns: 10,
		MaxIdleConns: 5,
	}

	manager, err := NewPoolManager(gormDB, config, logger)
	require.NoError(t, err)

	ctx := context.Background()

	// mock a rolled-back transaction
	mock.ExpectBegin()
	mock.ExpectRollback()

	err = manager.WithTransaction(ctx, func(tx *gorm.DB) error {
		// returning an error triggers rollback
		return assert.AnError
	})

	assert.Error(t, err)

	// verify all expectations were met
	err = mock.ExpectationsWereMet()
	assert.NoError(t, err)
}

func TestPoolManager_Close(t *testing.T) {
	mockDB, mock, gormDB := setupTestDB(t)
	defer mockDB.Close()

	logger := zap.NewNop()
	config := PoolConfig{
		MaxOpenConns: 10,
		MaxIdleConns: 5,
	}

	manager, err := NewPoolManager(gormDB, config, logger)
	require.NoError(t, err)

	// Mock close
	mock.ExpectClose()

	err = manager.Close()
	assert.NoError(t, err)

	// verify all expectations were met
	err = mock.ExpectationsWereMet()
	assert.NoError(t, err)
}

func TestPoolManager_StartHealthCheck(t *testing.T) {
	mockDB, mock, gormDB := setupTestDB(t)
	defer mockDB.Close()

	logger := zap.NewNop()
	config := PoolConfig{
		MaxOpenConns:        10,
		MaxIdleConns:        5,
		HealthCheckInterval: 100 * time.Millisecond,
	}

	manager, err := NewPoolManager(gormDB, config, logger)
	require.NoError(t, err)
	_ = manager

	_, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	// mock repeated pings
	mock.ExpectPing()
	mock.ExpectPing()
	mock.ExpectPing()

	// NewPoolManager has already started the health check loop, since
	// HealthCheckInterval is positive.

	// give the health check loop time to run
	time.Sleep(350 * time.Millisecond)

	// timing is not deterministic here, so we don't assert on mock expectations
	// absence of a panic is the pass condition
}

func TestPoolConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  PoolConfig
		wantErr bool
	}{
		{
			name: "valid config",
			config: PoolConfig{
				MaxOpenConns:    10,
				MaxIdleConns:    5,
				ConnMaxLifetime: 1 * time.Hour,
				ConnMaxIdleTime: 30 * time.Minute,
			},
			wantErr: false,
		},
		{
			name: "invalid max open conns",
			config: PoolConfig{
				MaxOpenConns: 0,
				MaxIdleConns: 5,
			},
			wantErr: true,
		},
		{
			name: "invalid max idle conns",
			config: PoolConfig{
				MaxOpenConns: 10,
				MaxIdleConns: 0,
			},
			wantErr: true,
		},
		{
			name: "idle > open",
			config: PoolConfig{
				MaxOpenConns: 5,
				MaxIdleConns: 10,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
