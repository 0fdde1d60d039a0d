package repo

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/btcsuite/btcutil"
	"github.com/cryptonaira/nairadesk/version"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/natefinch/lumberjack"
	"github.com/op/go-logging"
	"github.com/pkg/errors"
)

const (
	defaultConfigFilename = "nairadesk.conf"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "nairadesk.log"
	defaultEnvFilename    = ".env"
)

var (
	defaultHomeDir    = btcutil.AppDataDir("nairadesk", false)

	// DefaultHomeDir is the default data directory.
	DefaultHomeDir = defaultHomeDir

	defaultConfigFile = filepath.Join(defaultHomeDir, defaultConfigFilename)
	defaultLogDir     = filepath.Join(defaultHomeDir, defaultLogDirname)

	fileLogFormat   = logging.MustStringFormatter(`%{time:2006-01-02T15:04:05} [%{level}] [%{module}] %{message}`)
	stdoutLogFormat = logging.MustStringFormatter(`%{color:reset}%{color}%{time:15:04:05.000} [%{level}] [%{module}] %{message}`)
)

var (
	// ErrMissingBotToken is returned when no bot token is configured.
	ErrMissingBotToken = errors.New("bot token is required (BOT_TOKEN)")

	// ErrMissingAdmin is returned when no admin chat is configured.
	ErrMissingAdmin = errors.New("admin chat id is required (ADMIN_CHAT_ID)")
)

// Config defines the configuration options for the desk.
//
// See LoadConfig for details on the configuration load process.
type Config struct {
	ShowVersion bool   `short:"v" long:"version" description:"Display version information and exit"`
	ConfigFile  string `short:"C" long:"configfile" description:"Path to configuration file"`
	EnvFile     string `long:"envfile" description:"Path to a .env file loaded before parsing"`
	DataDir     string `short:"b" long:"datadir" description:"Directory to store data"`
	LogDir      string `long:"logdir" description:"Directory to log output."`
	LogLevel    string `short:"l" long:"loglevel" description:"set the logging level [debug, info, notice, warning, error, critical]" default:"info"`

	BotToken            string `long:"bottoken" env:"BOT_TOKEN" description:"Telegram bot token"`
	AdminChatID         int64  `long:"adminchatid" env:"ADMIN_CHAT_ID" description:"Chat id of the desk admin"`
	DatabaseURL         string `long:"databaseurl" env:"DATABASE_URL" description:"Postgres URL or realtime database URL. Defaults to sqlite in the data directory"`
	FirebaseCredentials string `long:"firebasecredentials" env:"FIREBASE_CREDENTIALS_JSON" description:"Service account JSON for the realtime database"`
	DeskFile            string `long:"deskfile" env:"DESK_FILE" description:"YAML file with bank account, wallets, support contacts and markups"`
	RateAPI             string `long:"rateapi" env:"RATE_API" description:"Price oracle URL"`

	Port        int           `long:"port" env:"PORT" description:"Port for the HTTP gateway" default:"8080"`
	Timeout     time.Duration `long:"timeout" description:"How long a transaction may stay open" default:"15m"`
	KeepAlive   time.Duration `long:"keepalive" description:"Interval between keep-alive notices to the admin" default:"20m"`
	APIUsername string        `long:"apiuser" description:"Username for the websocket feed"`
	APIPassword string        `long:"apipassword" description:"SHA256 hash of the websocket feed password"`
	APINoCors   bool          `long:"nocors" description:"Disable CORS on the HTTP gateway"`
}

// LoadConfig initializes and parses the config using a .env file, a
// config file and command line options.
//
// The configuration proceeds as follows:
// 	1) Start with a default config with sane settings
// 	2) Load the .env file into the environment, keeping variables that are already set
// 	3) Pre-parse the command line to check for an alternative config file
// 	4) Load configuration file overwriting defaults with any specified options
// 	5) Parse CLI options and overwrite/add any specified options
//
// Environment variables are bound to their options and apply wherever an
// option is not given explicitly.
func LoadConfig() (*Config, error) {
	return loadConfig(os.Args[1:])
}

func loadConfig(args []string) (*Config, error) {
	// Default config.
	cfg := Config{
		DataDir:    defaultHomeDir,
		ConfigFile: defaultConfigFile,
		LogDir:     defaultLogDir,
		EnvFile:    defaultEnvFilename,
	}

	// Pre-parse the command line options to see if an alternative config
	// file, env file or the version flag was specified. Any errors aside
	// from the help message error can be ignored here since they will be
	// caught by the final parse below.
	preCfg := cfg
	preParser := flags.NewParser(&preCfg, flags.HelpFlag|flags.IgnoreUnknown)
	if _, err := preParser.ParseArgs(args); err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			return nil, err
		}
	}

	if preCfg.ShowVersion {
		appName := filepath.Base(os.Args[0])
		appName = strings.TrimSuffix(appName, filepath.Ext(appName))
		fmt.Println(appName, "version", version.String())
		os.Exit(0)
	}

	if err := godotenv.Load(preCfg.EnvFile); err != nil && !os.IsNotExist(errors.Cause(err)) {
		return nil, errors.Wrapf(err, "loading %s", preCfg.EnvFile)
	}

	parser := flags.NewParser(&cfg, flags.Default|flags.IgnoreUnknown)
	err := flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile)
	if err != nil {
		if _, ok := err.(*os.PathError); !ok {
			return nil, errors.Wrap(err, "parsing config file")
		}
	}

	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}

	cfg.DataDir = cleanAndExpandPath(cfg.DataDir)
	if cfg.LogDir != "" {
		cfg.LogDir = cleanAndExpandPath(cfg.LogDir)
	}
	return &cfg, nil
}

// Validate checks the settings the desk cannot start without.
func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.BotToken) == "" {
		return ErrMissingBotToken
	}
	if cfg.AdminChatID == 0 {
		return ErrMissingAdmin
	}
	if cfg.FirebaseCredentials != "" {
		if !json.Valid([]byte(cfg.FirebaseCredentials)) {
			return errors.New("firebase credentials are not valid JSON")
		}
		u, err := url.Parse(cfg.DatabaseURL)
		if err != nil || u.Scheme != "https" {
			return errors.New("firebase credentials need an https realtime database URL")
		}
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return errors.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if cfg.KeepAlive <= 0 {
		return errors.New("keepalive interval must be positive")
	}
	return nil
}

// UseRealtimeDB returns whether documents go to the realtime database
// rather than the SQL store.
func (cfg *Config) UseRealtimeDB() bool {
	return cfg.FirebaseCredentials != ""
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(defaultHomeDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but they variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

// SetupLogging sets the stdout backend and, when logDir is set, a
// rotating file backend.
func SetupLogging(logDir, logLevel string) {
	backendStdout := logging.NewLogBackend(os.Stdout, "", 0)
	backendStdoutFormatter := logging.NewBackendFormatter(backendStdout, stdoutLogFormat)

	if logDir != "" {
		rotator := &lumberjack.Logger{
			Filename:   path.Join(logDir, defaultLogFilename),
			MaxSize:    10, // Megabytes
			MaxBackups: 3,
			MaxAge:     30, // Days
		}

		backendFile := logging.NewLogBackend(rotator, "", 0)
		backendFileFormatter := logging.NewBackendFormatter(backendFile, fileLogFormat)
		logging.SetBackend(backendStdoutFormatter, backendFileFormatter)
	} else {
		logging.SetBackend(backendStdoutFormatter)
	}

	logging.SetLevel(ParseLogLevel(logLevel), "")
}

// ParseLogLevel maps a level name to a logging level, defaulting to info.
func ParseLogLevel(logLevel string) logging.Level {
	switch strings.ToLower(logLevel) {
	case "debug":
		return logging.DEBUG
	case "info":
		return logging.INFO
	case "notice":
		return logging.NOTICE
	case "warning":
		return logging.WARNING
	case "error":
		return logging.ERROR
	case "critical":
		return logging.CRITICAL
	}
	return logging.INFO
}
