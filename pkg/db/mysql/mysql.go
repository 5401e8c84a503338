package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"GameStore/pkg/config"
	"GameStore/pkg/monitor"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/qustavo/sqlhooks/v2"
)

const driverName = "monitor_hook_mysql"

var (
	DB           *sqlx.DB
	registerOnce sync.Once
)

type ctxKey struct{}

type monitorHook struct{}

func (h *monitorHook) Before(ctx context.Context, query string, args ...interface{}) (context.Context, error) {
	return context.WithValue(ctx, ctxKey{}, time.Now()), nil
}

func (h *monitorHook) After(ctx context.Context, query string, args ...interface{}) (context.Context, error) {
	if start, ok := ctx.Value(ctxKey{}).(time.Time); ok {
		monitor.ObserveQuery(time.Since(start), true)
	}
	return ctx, nil
}

func (h *monitorHook) OnError(ctx context.Context, err error, query string, args ...interface{}) error {
	if start, ok := ctx.Value(ctxKey{}).(time.Time); ok {
		monitor.ObserveQuery(time.Since(start), false)
	}
	return err
}

// Open connects to MySQL through the instrumented driver.
func Open(cfg *config.MySQLConfig) (*sqlx.DB, error) {
	registerOnce.Do(func() {
		sql.Register(driverName, sqlhooks.Wrap(&mysqldriver.MySQLDriver{}, &monitorHook{}))
		sqlx.BindDriver(driverName, sqlx.QUESTION)
	})
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName)

	db, err := sqlx.Connect(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect mysql %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Hour)
	return db, nil
}

func Init(cfg *config.MySQLConfig) (err error) {
	DB, err = Open(cfg)
	return err
}

func Close() {
	if DB != nil {
		_ = DB.Close()
	}
}

// IsDuplicateKey reports whether err is a unique constraint violation. The sqlite
// message form is matched too so repositories behave the same on the test database.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	var me *mysqldriver.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Migrate applies the given DDL statements in order.
func Migrate(ctx context.Context, db *sqlx.DB, statements ...string) error {
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
