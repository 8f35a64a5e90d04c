package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Load builds the effective configuration. Precedence, lowest to highest:
// defaults, config file (-config flag or MCSCAN_CONFIG), environment,
// command-line flags.
func Load(args []string) (Config, error) {
	cfg := Default()
	if err := cfg.ApplyFile(configPath(args)); err != nil {
		return cfg, err
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	if err := cfg.parseFlags(args); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("THREADS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return envErr("THREADS", err)
		}
		c.Threads = n
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("MCSCAN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return envErr("MCSCAN_TIMEOUT", err)
		}
		c.Timeout = d
	}
	if v := os.Getenv("MCSCAN_REVISIT_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return envErr("MCSCAN_REVISIT_INTERVAL", err)
		}
		c.RevisitInterval = d
	}
	if v := os.Getenv("MCSCAN_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("MCSCAN_REPORT_DIR"); v != "" {
		c.ReportDir = v
	}
	return nil
}

// configPath finds the config file before flag parsing: the file has to
// load first so env vars and flags can still override it.
func configPath(args []string) string {
	for i := 0; i < len(args); i++ {
		arg := strings.TrimPrefix(args[i], "-")
		arg = strings.TrimPrefix(arg, "-")
		if arg == "config" && i+1 < len(args) {
			return args[i+1]
		}
		if v, ok := strings.CutPrefix(arg, "config="); ok {
			return v
		}
	}
	return os.Getenv("MCSCAN_CONFIG")
}

func (c *Config) parseFlags(args []string) error {
	fs := flag.NewFlagSet("scanner", flag.ContinueOnError)

	fs.String("config", "", "Path to a yaml config file")
	threads := fs.Int("threads", c.Threads, "Maximum concurrent probes")
	dbURL := fs.String("db", c.DatabaseURL, "Database path")
	timeout := fs.Duration("timeout", c.Timeout, "Probe timeout")
	port := fs.Int("port", c.ScanPort, "Port to probe")
	cidrs := fs.String("cidr", strings.Join(c.CIDRs, ","), "Comma-separated CIDR blocks to sweep (default: random public addresses)")
	batchSize := fs.Int("batch-size", c.BatchSize, "Results per database write")
	flushInterval := fs.Duration("flush-interval", c.FlushInterval, "Maximum time results wait before a write")
	revisit := fs.Duration("revisit-interval", c.RevisitInterval, "How often known servers are re-probed (0 disables)")
	recordFailures := fs.Bool("record-failures", c.RecordFailures, "Record failed probes against known servers")
	deepProbe := fs.Bool("deep-probe", c.DeepProbe, "Attempt a login handshake on reachable servers")
	reportDir := fs.String("report-dir", c.ReportDir, "Directory for periodic discovery reports (empty disables)")
	logLevel := fs.String("log-level", c.LogLevel, "Log level (trace, debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	c.Threads = *threads
	c.DatabaseURL = *dbURL
	c.Timeout = *timeout
	c.ScanPort = *port
	if *cidrs == "" {
		c.CIDRs = nil
	} else {
		c.CIDRs = strings.Split(*cidrs, ",")
	}
	c.BatchSize = *batchSize
	c.FlushInterval = *flushInterval
	c.RevisitInterval = *revisit
	c.RecordFailures = *recordFailures
	c.DeepProbe = *deepProbe
	c.ReportDir = *reportDir
	c.LogLevel = *logLevel
	return nil
}

func envErr(name string, err error) error {
	return fmt.Errorf("invalid %s: %w", name, err)
}
