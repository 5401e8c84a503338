// Package bootstrap runs the startup and shutdown sequence shared by every binary.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"GameStore/pkg/cache"
	"GameStore/pkg/config"
	"GameStore/pkg/db/mysql"
	rdb "GameStore/pkg/db/redis"
	"GameStore/pkg/idgen"
	"GameStore/pkg/logger"
	"GameStore/pkg/registry"
	"GameStore/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// Options selects the resources a binary needs.
type Options struct {
	// Name is used when the config file does not set one.
	Name string
	// UseDB opens MySQL; Schema is applied when mysql.auto_migrate is set.
	UseDB  bool
	Schema []string
	// UseCache connects Redis, falling back to the in-memory cache.
	UseCache bool
}

type App struct {
	Conf     *config.AppConfig
	DB       *sqlx.DB
	Cache    cache.Cache
	JWT      *utils.JWT
	IDs      *idgen.Generator
	Registry *registry.Client

	instanceID string
	cleanups   []func()
}

// InitAll initializes config/logger/mysql/cache/jwt/registry. The returned App must be
// closed by the caller. configPath empty means ./config.yaml.
func InitAll(configPath string, opts Options) (_ *App, err error) {
	if err = config.InitFromFile(configPath); err != nil {
		return nil, err
	}
	// the app keeps its own copy; later reloads publish new snapshots and leave it alone
	snapshot := *config.Current()
	conf := &snapshot
	if conf.Name == "" {
		conf.Name = opts.Name
	}

	if err = logger.Init(conf.LogConfig, conf.Mode); err != nil {
		return nil, fmt.Errorf("init logger failed: %w", err)
	}
	if conf.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	}

	a := &App{Conf: conf}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if conf.JWTConfig == nil || conf.JWTConfig.Secret == "" {
		return nil, errors.New("jwt.secret must be set")
	}
	a.JWT = utils.NewJWT(conf.JWTConfig)

	if a.IDs, err = idgen.New(conf.MachineID); err != nil {
		return nil, err
	}

	if opts.UseDB {
		if err = mysql.Init(conf.MySQLConfig); err != nil {
			return nil, fmt.Errorf("init mysql failed: %w", err)
		}
		a.DB = mysql.DB
		a.cleanups = append(a.cleanups, mysql.Close)

		if conf.MySQLConfig.AutoMigrate && len(opts.Schema) > 0 {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			err = mysql.Migrate(ctx, a.DB, opts.Schema...)
			cancel()
			if err != nil {
				return nil, fmt.Errorf("migrate mysql failed: %w", err)
			}
			zap.L().Info("schema applied", zap.Int("statements", len(opts.Schema)))
		}
	}

	if opts.UseCache {
		// cache.New pings and picks the backend; an unreachable Redis is not fatal.
		rdb.Rdb = rdb.NewClient(conf.RedisConfig)
		a.Cache = cache.New(context.Background(), rdb.Rdb, conf.CacheConfig)
		a.cleanups = append(a.cleanups, func() { _ = a.Cache.Close() }, rdb.Close)
	}

	if conf.RegistryConfig != nil {
		if a.Registry, err = registry.New(conf.RegistryConfig); err != nil {
			return nil, fmt.Errorf("init registry failed: %w", err)
		}
	}
	return a, nil
}

// Discovery is the registry as a lookup source; a nil registry yields an empty table.
func (a *App) Discovery() registry.Discovery {
	if a.Registry == nil {
		return registry.Static{}
	}
	return a.Registry
}

// Health answers the registry's HTTP check.
func (a *App) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   a.Conf.Name + " is healthy",
		"service":   a.Conf.Name,
		"version":   a.Conf.Version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *App) advertisedAddress() string {
	if a.Conf.Address != "" {
		return a.Conf.Address
	}
	if host, err := os.Hostname(); err == nil {
		return host
	}
	return "127.0.0.1"
}

func (a *App) register() {
	if a.Registry == nil {
		return
	}
	addr := a.advertisedAddress()
	id := fmt.Sprintf("%s-%s-%d", a.Conf.Name, addr, a.Conf.Port)
	err := a.Registry.Register(registry.Descriptor{
		ID:      id,
		Name:    a.Conf.Name,
		Address: addr,
		Port:    a.Conf.Port,
		Version: a.Conf.Version,
	})
	if err != nil {
		zap.L().Error("Failed to register with registry, serving anyway", zap.Error(err))
		return
	}
	a.instanceID = id
}

func (a *App) deregister() {
	if a.Registry == nil || a.instanceID == "" {
		return
	}
	done := make(chan error, 1)
	go func() { done <- a.Registry.Deregister(a.instanceID) }()
	select {
	case err := <-done:
		if err != nil {
			zap.L().Error("Failed to deregister from registry", zap.Error(err))
		}
	case <-time.After(shutdownTimeout):
		zap.L().Warn("Deregistration timed out", zap.String("id", a.instanceID))
	}
}

// Run serves handler on the configured port until SIGINT/SIGTERM, registering the
// instance once listening starts and deregistering it before shutdown.
func (a *App) Run(handler http.Handler) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf(":%d", a.Conf.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zap.L().Info("server run", zap.String("service", a.Conf.Name), zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen %s: %w", addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zap.L().Info("shutting down server...", zap.String("service", a.Conf.Name))
		a.deregister()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	a.register()
	err := g.Wait()
	zap.L().Info("server exited", zap.String("service", a.Conf.Name))
	return err
}

// Close releases resources in reverse order of acquisition and flushes the logger.
func (a *App) Close() {
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		a.cleanups[i]()
	}
	a.cleanups = nil
	_ = logger.L().Sync()
}
