package taskflow

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Config holds the configuration for the task service
type Config struct {
	DB                 *gorm.DB
	RedisClient        *redis.Client
	CacheTTL           time.Duration
	CachePrefix        string
	AutoMigrate        bool
	EnableAuditLogging bool
	DirectorAliases    []string
	ForwardConcurrency int
	Now                func() time.Time
}

// Service persists tasks and runs the visibility, forwarding and approval
// rules against fresh snapshots.
type Service struct {
	db           *gorm.DB
	redis        *redis.Client
	cacheTTL     time.Duration
	cachePrefix  string
	auditEnabled bool
	resolver     Resolver
	forwardLimit int
	now          func() time.Time
}

// NewService initializes a new task service. Redis is optional.
func NewService(cfg Config) (*Service, error) {
	if cfg.DB == nil {
		return nil, fmt.Errorf("database is required")
	}
	if cfg.CachePrefix == "" {
		cfg.CachePrefix = "taskflow"
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 30 * time.Minute
	}
	if cfg.ForwardConcurrency <= 0 {
		cfg.ForwardConcurrency = 4
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	if cfg.AutoMigrate {
		err := cfg.DB.AutoMigrate(&Department{}, &Role{}, &User{}, &Task{}, &TaskComment{}, &AuditLog{})
		if err != nil {
			return nil, fmt.Errorf("failed to auto-migrate: %w", err)
		}
	}

	return &Service{
		db:           cfg.DB,
		redis:        cfg.RedisClient,
		cacheTTL:     cfg.CacheTTL,
		cachePrefix:  cfg.CachePrefix,
		auditEnabled: cfg.EnableAuditLogging,
		resolver:     Resolver{DirectorAliases: cfg.DirectorAliases},
		forwardLimit: cfg.ForwardConcurrency,
		now:          cfg.Now,
	}, nil
}

// Resolver returns the assignment resolver configured for the service.
func (s *Service) Resolver() Resolver {
	return s.resolver
}
