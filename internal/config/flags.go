package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

type flagValues struct {
	fs         *pflag.FlagSet
	configFile string
	addr       string
	dbDriver   string
	dbPath     string
	dbURL      string
	logLevel   string
	logFormat  string
}

func parseFlags(args []string) (*flagValues, error) {
	fl := &flagValues{fs: pflag.NewFlagSet("taskdesk", pflag.ContinueOnError)}

	fl.fs.StringVarP(&fl.configFile, "config", "c", "", "path to a YAML config file")
	fl.fs.StringVar(&fl.addr, "addr", "", "HTTP listen address, e.g. :5000")
	fl.fs.StringVar(&fl.dbDriver, "db-driver", "", "database driver: sqlite or postgres")
	fl.fs.StringVar(&fl.dbPath, "db-path", "", "SQLite database file")
	fl.fs.StringVar(&fl.dbURL, "db-url", "", "PostgreSQL connection URL")
	fl.fs.StringVar(&fl.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fl.fs.StringVar(&fl.logFormat, "log-format", "", "log format: text or json")

	if err := fl.fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}
	return fl, nil
}

// apply overlays only the flags that were given on the command line.
func (fl *flagValues) apply(cfg *Config) {
	set := func(name string, dst *string, v string) {
		if fl.fs.Changed(name) {
			*dst = v
		}
	}
	set("addr", &cfg.Server.Addr, fl.addr)
	set("db-driver", &cfg.Database.Driver, fl.dbDriver)
	set("db-path", &cfg.Database.Path, fl.dbPath)
	set("db-url", &cfg.Database.URL, fl.dbURL)
	set("log-level", &cfg.Log.Level, fl.logLevel)
	set("log-format", &cfg.Log.Format, fl.logFormat)
}
