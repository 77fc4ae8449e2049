package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jpkabala96/geeSSEBI/internal/log"
	"go.uber.org/zap"
)

// Client holds the connection to the TimescaleDB forcing store
type Client struct {
	connectionString string
	DB               *gorm.DB // Exported so it can be accessed from other packages
	logger           *zap.SugaredLogger
}

// NewClient creates a new database client
func NewClient(connectionString string, logger *zap.SugaredLogger) *Client {
	return &Client{
		connectionString: connectionString,
		logger:           logger,
	}
}

// Connect connects to the TimescaleDB database
func (c *Client) Connect() error {
	db, err := CreateConnection(c.connectionString)
	if err != nil {
		return err
	}
	c.DB = db
	c.logger.Info("TimescaleDB connection successful")
	return nil
}

// Close releases the pooled connections
func (c *Client) Close() error {
	if c.DB == nil {
		return nil
	}
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate creates the forcing table and turns it into a hypertable.
func (c *Client) Migrate(ctx context.Context) error {
	if err := c.DB.WithContext(ctx).AutoMigrate(&ForcingRecord{}); err != nil {
		return fmt.Errorf("error migrating %s: %w", ForcingTable, err)
	}
	err := c.DB.WithContext(ctx).Exec(
		"SELECT create_hypertable(?, 'ts', if_not_exists => TRUE, migrate_data => TRUE)", ForcingTable).Error
	if err != nil {
		// Plain PostgreSQL works too, only without chunking.
		c.logger.Warnf("unable to create hypertable on %s: %v", ForcingTable, err)
	}
	return nil
}

// CopyForcing bulk-loads records with COPY, bypassing gorm.
func (c *Client) CopyForcing(ctx context.Context, records []ForcingRecord) (int64, error) {
	conn, err := pgx.Connect(ctx, c.connectionString)
	if err != nil {
		return 0, fmt.Errorf("error connecting for COPY: %w", err)
	}
	defer conn.Close(ctx)

	n, err := conn.CopyFrom(ctx,
		pgx.Identifier{ForcingTable},
		[]string{"kind", "ts", "latitude", "longitude", "shortwave", "longwave"},
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			r := records[i]
			return []any{r.Kind, r.Time, r.Latitude, r.Longitude, r.Shortwave, r.Longwave}, nil
		}),
	)
	if err != nil {
		return n, fmt.Errorf("error copying into %s: %w", ForcingTable, err)
	}
	return n, nil
}

// CreateConnection is a helper function to create a database connection with standard GORM configuration
func CreateConnection(connectionString string) (*gorm.DB, error) {
	// Create a logger for gorm
	dbLogger := logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  logger.Warn, // Log level
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	log.Info("connecting to TimescaleDB...")
	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{Logger: dbLogger})
	if err != nil {
		log.Warnf("warning: unable to create a TimescaleDB connection: %v", err)
		return nil, err
	}

	return db, nil
}
