// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/infrastructure/logger"
	"github.com/zmgnet/zmgd/version"
)

const (
	defaultConfigFilename         = "zmgd.conf"
	defaultDataDirname            = "data"
	defaultLogLevel               = "info"
	defaultLogDirname             = "logs"
	defaultLogFilename            = "zmgd.log"
	defaultErrLogFilename         = "zmgd_err.log"
	defaultDbType                 = "leveldb"
	defaultDbCacheSizeMiB         = 64
	defaultUTXOCacheSize          = 100_000
	defaultSigCacheMaxSize        = 100_000
	defaultMaxMempoolTransactions = 100_000
	defaultMempoolExpiry          = 24 * time.Hour
	minMempoolExpiry              = time.Second
)

var (
	// DefaultAppDir is the default home directory for zmgd.
	DefaultAppDir = AppDataDir("zmgd", false)

	defaultConfigFile = filepath.Join(DefaultAppDir, defaultConfigFilename)
	knownDbTypes      = []string{"leveldb", "bolt"}
)

// Flags defines the configuration options for zmgd.
//
// See loadConfig for details on the configuration load process.
type Flags struct {
	ShowVersion            bool          `short:"V" long:"version" description:"Display version information and exit"`
	ConfigFile             string        `short:"C" long:"configfile" description:"Path to configuration file"`
	AppDir                 string        `short:"b" long:"appdir" description:"Directory to store data"`
	LogDir                 string        `long:"logdir" description:"Directory to log output."`
	DebugLevel             string        `short:"d" long:"loglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	DbType                 string        `long:"dbtype" description:"Database backend to use for the chain state {leveldb, bolt}"`
	DbCacheSizeMiB         int           `long:"dbcache" description:"Size of the leveldb block cache, in MiB"`
	UTXOCacheSize          int           `long:"utxocachesize" description:"The maximum number of UTXO entries kept in memory"`
	SigCacheMaxSize        int           `long:"sigcachemaxsize" description:"The maximum number of entries in the signature verification cache"`
	RollbackHorizon        uint64        `long:"rollbackhorizon" description:"Override the maximum number of blocks a reorganization may disconnect (0 keeps the network default)"`
	MaxMempoolTransactions uint64        `long:"maxmempooltxs" description:"Max number of transactions to keep in the mempool"`
	MempoolExpiry          time.Duration `long:"mempoolexpiry" description:"How long a transaction may wait in the mempool. Valid time units are {s, m, h}. Minimum 1 second"`
	MetricsListen          string        `long:"metricslisten" description:"Serve prometheus metrics on this interface/port (eg. 127.0.0.1:9090). Empty disables metrics"`
	VerifyUTXOCommitment   bool          `long:"verifyutxocommitment" description:"Recompute the UTXO set commitment on startup and refuse to start if it does not match"`
	Profile                string        `long:"profile" description:"Enable HTTP profiling on given port -- NOTE port must be between 1024 and 65536"`
	ServiceOptions         *ServiceOptions `no-flag:"true"`
	NetworkFlags
}

// Config defines the configuration options for zmgd.
//
// See loadConfig for details on the configuration load process.
type Config struct {
	*Flags

	// DataDir is AppDir namespaced by the active network
	DataDir string

	configFileError error
}

// ServiceOptions defines the configuration options for the daemon as a service on
// Windows.
type ServiceOptions struct {
	ServiceCommand string `short:"s" long:"service" description:"Service command {install, remove, start, stop}"`
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(DefaultAppDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but the variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

// validDbType returns whether or not dbType is a supported database type.
func validDbType(dbType string) bool {
	for _, knownType := range knownDbTypes {
		if dbType == knownType {
			return true
		}
	}
	return false
}

// newConfigParser returns a new command line flags parser.
func newConfigParser(cfgFlags *Flags, options flags.Options) *flags.Parser {
	parser := flags.NewParser(cfgFlags, options)
	if runtime.GOOS == "windows" {
		parser.AddGroup("Service Options", "Service Options", cfgFlags.ServiceOptions)
	}
	return parser
}

func defaultFlags() *Flags {
	return &Flags{
		ConfigFile:             defaultConfigFile,
		DebugLevel:             defaultLogLevel,
		AppDir:                 DefaultAppDir,
		DbType:                 defaultDbType,
		DbCacheSizeMiB:         defaultDbCacheSizeMiB,
		UTXOCacheSize:          defaultUTXOCacheSize,
		SigCacheMaxSize:        defaultSigCacheMaxSize,
		MaxMempoolTransactions: defaultMaxMempoolTransactions,
		MempoolExpiry:          defaultMempoolExpiry,
		ServiceOptions:         &ServiceOptions{},
	}
}

// DefaultConfig returns the default zmgd configuration on mainnet
func DefaultConfig() *Config {
	config := &Config{Flags: defaultFlags()}
	err := config.ResolveNetwork(nil)
	if err != nil {
		panic(err)
	}
	config.DataDir = filepath.Join(config.AppDir, defaultDataDirname, config.NetParams().Name)
	config.LogDir = filepath.Join(config.AppDir, defaultLogDirname, config.NetParams().Name)
	return config
}

// LoadConfig initializes and parses the config using a config file and
// command line options, then initializes logging according to it.
func LoadConfig() (*Config, error) {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		return nil, err
	}

	// Initialize log rotation. After log rotation has been initialized, the
	// logger variables may be used.
	logger.InitLog(cfg.LogFile(), cfg.ErrLogFile())

	// Parse, validate, and set debug log level(s).
	err = logger.ParseAndSetLogLevels(cfg.DebugLevel)
	if err != nil {
		err = errors.Errorf("LoadConfig: %s", err)
		fmt.Fprintln(os.Stderr, err)
		return nil, err
	}

	if cfg.configFileError != nil {
		log.Warnf("%s", cfg.configFileError)
	}
	return cfg, nil
}

// LogFile returns the path of the main log file
func (cfg *Config) LogFile() string {
	return filepath.Join(cfg.LogDir, defaultLogFilename)
}

// ErrLogFile returns the path of the log file holding warnings and errors
func (cfg *Config) ErrLogFile() string {
	return filepath.Join(cfg.LogDir, defaultErrLogFilename)
}

// loadConfig initializes and parses the config using a config file and command
// line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
//
// The above results in zmgd functioning properly without any config settings
// while still allowing the user to override settings with config files and
// command line options. Command line options always take precedence.
func loadConfig(args []string) (*Config, error) {
	cfgFlags := defaultFlags()

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified. Any errors aside from the
	// help message error can be ignored here since they will be caught by
	// the final parse below.
	preCfg := *cfgFlags
	preCfg.ServiceOptions = &ServiceOptions{}
	preParser := newConfigParser(&preCfg, flags.HelpFlag)
	_, err := preParser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stderr, err)
			return nil, err
		}
	}

	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	usageMessage := fmt.Sprintf("Use %s -h to show usage", appName)
	if preCfg.ShowVersion {
		fmt.Println(appName, "version", version.Version())
		os.Exit(0)
	}

	// Load additional config from file.
	var configFileError error
	parser := newConfigParser(cfgFlags, flags.Default)
	cfg := &Config{Flags: cfgFlags}
	err = flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile)
	if err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			fmt.Fprintf(os.Stderr, "Error parsing config file: %s\n", err)
			fmt.Fprintln(os.Stderr, usageMessage)
			return nil, err
		}
		configFileError = err
	}

	// Parse command line options again to ensure they take precedence.
	_, err = parser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if !errors.As(err, &flagsErr) || flagsErr.Type != flags.ErrHelp {
			fmt.Fprintln(os.Stderr, usageMessage)
		}
		return nil, err
	}

	funcName := "loadConfig"
	reportError := func(format string, args ...interface{}) (*Config, error) {
		err := errors.Errorf("%s: "+format, append([]interface{}{funcName}, args...)...)
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usageMessage)
		return nil, err
	}

	err = cfg.ResolveNetwork(parser)
	if err != nil {
		return nil, err
	}

	// Namespace the data and log directories per network, so that nothing
	// stored on disk has to worry about the network it belongs to.
	cfg.AppDir = cleanAndExpandPath(cfg.AppDir)
	cfg.DataDir = filepath.Join(cfg.AppDir, defaultDataDirname, cfg.NetParams().Name)
	if cfg.LogDir == "" {
		cfg.LogDir = filepath.Join(cfg.AppDir, defaultLogDirname)
	}
	cfg.LogDir = filepath.Join(cleanAndExpandPath(cfg.LogDir), cfg.NetParams().Name)

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", logger.SupportedSubsystems())
		os.Exit(0)
	}

	if !validDbType(cfg.DbType) {
		return reportError("The specified database type [%s] is invalid -- supported types %s",
			cfg.DbType, knownDbTypes)
	}

	if cfg.DbCacheSizeMiB < 0 {
		return reportError("The dbcache option may not be less than 0 -- parsed [%d]", cfg.DbCacheSizeMiB)
	}

	if cfg.UTXOCacheSize < 0 {
		return reportError("The utxocachesize option may not be less than 0 -- parsed [%d]", cfg.UTXOCacheSize)
	}

	if cfg.SigCacheMaxSize < 0 {
		return reportError("The sigcachemaxsize option may not be less than 0 -- parsed [%d]", cfg.SigCacheMaxSize)
	}

	if cfg.MaxMempoolTransactions == 0 {
		return reportError("The maxmempooltxs option must be greater than 0")
	}

	if cfg.MempoolExpiry < minMempoolExpiry {
		return reportError("The mempoolexpiry option may not be less than %s -- parsed [%s]",
			minMempoolExpiry, cfg.MempoolExpiry)
	}

	if cfg.RollbackHorizon != 0 {
		cfg.NetParams().RollbackHorizon = cfg.RollbackHorizon
	}

	if cfg.MetricsListen != "" {
		_, _, err := net.SplitHostPort(cfg.MetricsListen)
		if err != nil {
			return reportError("The metricslisten value of '%s' is invalid: %s", cfg.MetricsListen, err)
		}
	}

	// Validate profile port number
	if cfg.Profile != "" {
		profilePort, err := strconv.Atoi(cfg.Profile)
		if err != nil || profilePort < 1024 || profilePort > 65535 {
			return reportError("The profile port must be between 1024 and 65535")
		}
	}

	// The missing config file warning is logged by LoadConfig once
	// logging is initialized.
	cfg.configFileError = configFileError

	return cfg, nil
}
