package config

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Configuration struct {
	Logs      LogsSettings     `mapstructure:"logs"`
	App       Application      `mapstructure:"app"`
	Broker    BrokerConfig     `mapstructure:"broker"`
	Database  Database         `mapstructure:"database"`
	Queue     QueueConfig      `mapstructure:"queue"`
	Redis     Redis            `mapstructure:"redis"`
	Security  SecuritySettings `mapstructure:"security"`
	Server    ServerSettings   `mapstructure:"server"`
	Pairing   PairingConfig    `mapstructure:"pairing"`
	Admission AdmissionConfig  `mapstructure:"admission"`
	Cache     CacheConfig      `mapstructure:"cache"`
}

type LogsSettings struct {
	Level            string `mapstructure:"level"`
	Path             string `mapstructure:"log-path"`
	EnableJSONOutput bool   `mapstructure:"enable-json-output"`
}

type Application struct {
	Name    string `mapstructure:"name"`
	Timeout int    `mapstructure:"timeout"`
	Version string `mapstructure:"version"`
}

type BrokerConfig struct {
	Url              string `mapstructure:"url"`
	ClientID         string `mapstructure:"client-id"`
	Username         string `mapstructure:"username"`
	Password         string `mapstructure:"password"`
	QoS              byte   `mapstructure:"qos"`
	ConnectTimeout   int    `mapstructure:"connect-timeout"`
	MaxReconnectWait int    `mapstructure:"max-reconnect-wait"`
	QueueSize        int    `mapstructure:"queue-size"`
}

type Database struct {
	Url                string `mapstructure:"url"`
	DbName             string `mapstructure:"dbname"`
	MatchCollection    string `mapstructure:"match-collection"`
	LocationCollection string `mapstructure:"location-collection"`
	Timeout            int    `mapstructure:"timeout"`
}

type QueueConfig struct {
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
}

type RabbitMQConfig struct {
	Url          string `mapstructure:"url"`
	Exchange     string `mapstructure:"exchange"`
	ExchangeType string `mapstructure:"exchange-type"`
	RoutingKey   string `mapstructure:"routing-key"`
	Durable      bool   `mapstructure:"durable"`
	AutoDelete   bool   `mapstructure:"auto-delete"`
	Internal     bool   `mapstructure:"internal"`
	NoWait       bool   `mapstructure:"no-wait"`
}

type Redis struct {
	Url      string `mapstructure:"url"`
	Password string `mapstructure:"password"`
	Db       int    `mapstructure:"db"`
}

type SecuritySettings struct {
	JwtKey        string `mapstructure:"jwt-key"`
	TokenTTLHours int    `mapstructure:"token-ttl-hours"`
	ControllerPin string `mapstructure:"controller-pin"`
	AdminPin      string `mapstructure:"admin-pin"`
}

type ServerSettings struct {
	Port         string `mapstructure:"port"`
	Mode         string `mapstructure:"mode"`
	ReadTimeout  int    `mapstructure:"read-timeout"`
	WriteTimeout int    `mapstructure:"write-timeout"`
	IdleTimeout  int    `mapstructure:"idle-timeout"`
}

type PairingConfig struct {
	DefaultWindowMs int `mapstructure:"default-window-ms"`
}

type AdmissionConfig struct {
	DedupTTLMs   int `mapstructure:"dedup-ttl-ms"`
	RateWindowMs int `mapstructure:"rate-window-ms"`
	MaxPerWindow int `mapstructure:"max-per-window"`
}

type CacheConfig struct {
	StatsKeyPrefix         string `mapstructure:"stats-key-prefix"`
	StatsExpirationMinutes int    `mapstructure:"stats-expiration-minutes"`
}

func Load() *Configuration {
	cfg := read()
	logrus.Info("Configuration loaded")

	// Override with environment variables
	mongoUri := os.Getenv("MONGODB_URL")
	if mongoUri != "" {
		cfg.Database.Url = mongoUri
	}

	dbName := os.Getenv("DB_NAME")
	if dbName != "" {
		cfg.Database.DbName = dbName
	}

	redisUrl := os.Getenv("REDIS_URL")
	if redisUrl != "" {
		cfg.Redis.Url = redisUrl
	}

	rabbitmqUrl := os.Getenv("RABBITMQ_URL")
	if rabbitmqUrl != "" {
		cfg.Queue.RabbitMQ.Url = rabbitmqUrl
	}

	brokerUrl := os.Getenv("MQTT_URL")
	if brokerUrl != "" {
		cfg.Broker.Url = brokerUrl
	}

	brokerUser := os.Getenv("MQTT_USERNAME")
	if brokerUser != "" {
		cfg.Broker.Username = brokerUser
	}

	brokerPass := os.Getenv("MQTT_PASSWORD")
	if brokerPass != "" {
		cfg.Broker.Password = brokerPass
	}

	jwtKey := os.Getenv("JWT_KEY")
	if jwtKey != "" {
		cfg.Security.JwtKey = jwtKey
	}

	return cfg
}

func read() *Configuration {
	viper.SetConfigFile("src/internal/config/cfg.yml")
	viper.AutomaticEnv()
	viper.SetConfigType("yml")

	var config Configuration

	err := viper.ReadInConfig()
	if err != nil {
		logrus.Panic("Error reading config file, %s", err)
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		logrus.Panic("Error unmarshalling config file, %s", err)
	}

	return &config
}
