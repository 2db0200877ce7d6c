// Package repository persists daily issue snapshots in a relational table.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/naka-gawa/issue-snapshot/internal/config"
	"github.com/naka-gawa/issue-snapshot/internal/domain"
)

var (
	// ErrConnect is returned when the store cannot be reached within the configured timeout.
	ErrConnect = errors.New("failed to connect to database")
	// ErrSnapshotExists is returned when a snapshot for the same date is already stored.
	ErrSnapshotExists = errors.New("snapshot already exists for date")
	// ErrSnapshotNotFound is returned by Get when no row matches the date.
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

const createTableSQL = "CREATE TABLE IF NOT EXISTS `github` (`date` DATE PRIMARY KEY, `open` INT, `closed` INT)"

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// Recorder stores one snapshot and returns the full history as seen inside the same transaction.
type Recorder interface {
	Record(ctx context.Context, snap domain.Snapshot) ([]domain.Snapshot, error)
}

// SnapshotStore is the gorm backed Recorder.
type SnapshotStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

var _ Recorder = (*SnapshotStore)(nil)

// Open connects to the configured database. The caller owns the returned
// store and must Close it on every path.
func Open(ctx context.Context, cfg config.Database, logger *zap.Logger) (*SnapshotStore, error) {
	dialector, err := newDialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError:       true,
		DisableAutomaticPing: true,
		Logger:               gormlogger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnect, err)
	}

	s := &SnapshotStore{db: db, logger: logger}
	sqlDB, err := db.DB()
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnect, err)
	}
	sqlDB.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		s.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnect, err)
	}

	logger.Debug("Connected to database.", zap.String("driver", cfg.Driver))
	return s, nil
}

func newDialector(cfg config.Database) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverMySQL:
		return gormmysql.New(gormmysql.Config{
			DSN:                       MySQLDSN(cfg),
			SkipInitializeWithVersion: true,
		}), nil
	case config.DriverSQLite:
		return sqlite.Open(fmt.Sprintf("%s?_busy_timeout=%d", cfg.Path, cfg.Timeout.Milliseconds())), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// MySQLDSN renders the go-sql-driver DSN, applying cfg.Timeout to connect, read and write.
func MySQLDSN(cfg config.Database) string {
	dsn := mysql.NewConfig()
	dsn.User = cfg.User
	dsn.Passwd = cfg.Password
	dsn.Net = "tcp"
	dsn.Addr = cfg.Host + ":" + strconv.Itoa(cfg.Port)
	dsn.DBName = cfg.Name
	dsn.Timeout = cfg.Timeout
	dsn.ReadTimeout = cfg.Timeout
	dsn.WriteTimeout = cfg.Timeout
	dsn.ParseTime = true
	dsn.Loc = time.UTC
	if cfg.Charset != "" {
		dsn.Params = map[string]string{"charset": cfg.Charset}
	}
	return dsn.FormatDSN()
}

// EnsureSchema creates the snapshot table when it does not exist yet.
func (s *SnapshotStore) EnsureSchema(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Exec(createTableSQL).Error; err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// Record creates the table if needed, then inserts snap and reads every row
// back in one transaction. A date that is already stored fails with
// ErrSnapshotExists and leaves the existing row untouched.
func (s *SnapshotStore) Record(ctx context.Context, snap domain.Snapshot) ([]domain.Snapshot, error) {
	// MySQL commits DDL implicitly, so it must not share the insert's transaction.
	if err := s.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	var history []domain.Snapshot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&snap).Error; err != nil {
			if isDuplicateKey(err) {
				return fmt.Errorf("%w %s: %w", ErrSnapshotExists, snap.Day(), err)
			}
			return fmt.Errorf("failed to insert snapshot: %w", err)
		}
		if err := tx.Order("`date`").Find(&history).Error; err != nil {
			return fmt.Errorf("failed to read snapshots: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, h := range history {
		s.logger.Debug("stored snapshot", zap.String("date", h.Day()), zap.Int("open", h.Open), zap.Int("closed", h.Closed))
	}
	s.logger.Info("Snapshot recorded.", zap.String("date", snap.Day()), zap.Int("rows", len(history)))
	return history, nil
}

// Get returns the snapshot stored for the calendar day of day.
func (s *SnapshotStore) Get(ctx context.Context, day time.Time) (domain.Snapshot, error) {
	var snap domain.Snapshot
	err := s.db.WithContext(ctx).Where("`date` = ?", domain.CalendarDate(day)).Take(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Snapshot{}, fmt.Errorf("%w: %s", ErrSnapshotNotFound, day.Format(domain.DateLayout))
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return snap, nil
}

// List returns every stored snapshot, oldest first. A missing table reads as an empty history.
func (s *SnapshotStore) List(ctx context.Context) ([]domain.Snapshot, error) {
	history := []domain.Snapshot{}
	if !s.db.WithContext(ctx).Migrator().HasTable(&domain.Snapshot{}) {
		return history, nil
	}
	if err := s.db.WithContext(ctx).Order("`date`").Find(&history).Error; err != nil {
		return nil, fmt.Errorf("failed to read snapshots: %w", err)
	}
	return history, nil
}

// Close releases the underlying connection. It is safe to call more than once.
func (s *SnapshotStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	s.db = nil
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return true
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
