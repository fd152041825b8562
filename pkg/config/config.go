package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Transport struct {
		Type           string        `yaml:"type"` // serial | tcp | websocket | kafka
		PollInterval   time.Duration `yaml:"poll_interval"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		Serial         struct {
			Port     string `yaml:"port"`
			BaudRate int    `yaml:"baud_rate"`
		} `yaml:"serial"`
		TCP struct {
			Addr        string        `yaml:"addr"`
			DialTimeout time.Duration `yaml:"dial_timeout"`
		} `yaml:"tcp"`
		WebSocket struct {
			URL          string        `yaml:"url"`
			PingInterval time.Duration `yaml:"ping_interval"`
		} `yaml:"websocket"`
	} `yaml:"transport"`
	Plot struct {
		WindowSize     float64       `yaml:"window_size"`
		RedrawInterval time.Duration `yaml:"redraw_interval"`
	} `yaml:"plot"`
	CSV struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"csv"`
	Archive struct {
		Enabled      bool          `yaml:"enabled"`
		BatchSize    int           `yaml:"batch_size"`
		BatchTimeout time.Duration `yaml:"batch_timeout"`
	} `yaml:"archive"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		Table            string        `yaml:"table"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Export struct {
		Workers    int           `yaml:"workers"`
		RetryLimit int           `yaml:"retry_limit"`
		RetryDelay time.Duration `yaml:"retry_delay"`
	} `yaml:"export"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("TRANSPORT"); v != "" {
		c.Transport.Type = v
	}
	if v := os.Getenv("SERIAL_PORT"); v != "" {
		c.Transport.Serial.Port = v
	}
	if v := os.Getenv("SERIAL_BAUD"); v != "" {
		if baud, err := strconv.Atoi(v); err == nil {
			c.Transport.Serial.BaudRate = baud
		}
	}
	if v := os.Getenv("TCP_ADDR"); v != "" {
		c.Transport.TCP.Addr = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("CSV_PATH"); v != "" {
		c.CSV.Path = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Transport.PollInterval <= 0 {
		c.Transport.PollInterval = 10 * time.Millisecond
	}
	if c.Transport.ReconnectDelay <= 0 {
		c.Transport.ReconnectDelay = time.Second
	}
	if c.Transport.Serial.BaudRate <= 0 {
		c.Transport.Serial.BaudRate = 115200
	}
	if c.Plot.WindowSize <= 0 {
		c.Plot.WindowSize = 30
	}
	if c.Plot.RedrawInterval <= 0 {
		c.Plot.RedrawInterval = 100 * time.Millisecond
	}
	if c.ClickHouse.Table == "" {
		c.ClickHouse.Table = "samples"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Transport.Type {
	case "serial":
		if c.Transport.Serial.Port == "" {
			return fmt.Errorf("transport.serial.port is required")
		}
	case "tcp":
		if c.Transport.TCP.Addr == "" {
			return fmt.Errorf("transport.tcp.addr is required")
		}
	case "websocket":
		if c.Transport.WebSocket.URL == "" {
			return fmt.Errorf("transport.websocket.url is required")
		}
	case "kafka":
		if len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "" {
			return fmt.Errorf("kafka transport requires kafka.brokers and kafka.topic")
		}
	default:
		return fmt.Errorf("transport.type must be one of serial, tcp, websocket, kafka; got %q", c.Transport.Type)
	}
	if c.Plot.WindowSize <= 0 {
		return fmt.Errorf("plot.window_size must be > 0")
	}
	if c.CSV.Enabled && c.CSV.Path == "" {
		return fmt.Errorf("csv.path is required when csv.enabled")
	}
	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		return fmt.Errorf("kafka.brokers and kafka.topic are required when kafka.enabled")
	}
	if c.Kafka.Enabled && c.Transport.Type == "kafka" {
		return fmt.Errorf("kafka sink and kafka transport cannot share kafka.topic; disable one")
	}
	if c.Archive.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when archive.enabled")
	}
	return nil
}
