package portal

import (
	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/core/auth"
	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/core/csrf"
	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/core/idle"
	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/core/pipeline"
	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/integration/database/redis"
)

// Storage drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

type Config struct {
	API     pipeline.Config
	CSRF    csrf.Config
	Session idle.Config
	Auth    auth.Endpoints
	Redis   redis.Config

	AppName          string `env:"APP_NAME" envDefault:"mlc-portal"`
	Env              string `env:"APP_ENV" envDefault:"development"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
	StorageDriver    string `env:"STORAGE_DRIVER" envDefault:"file"`
	StorageFilePath  string `env:"STORAGE_FILE_PATH" envDefault:".portal/session.json"`
	StorageSQLiteDSN string `env:"STORAGE_SQLITE_DSN" envDefault:"file:portal.db"`
	MetricsNamespace string `env:"METRICS_NAMESPACE" envDefault:"portal"`
}
