// Package config loads this module's env-driven settings (mode, log
// rotation), adapted from the teacher's app-wide config loader down to
// the handful of knobs internal/rlog actually needs.
package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Conf is the process-wide loaded configuration.
var Conf Config

// LogOutput is the open rotating log file, nil until a log path is set.
var LogOutput io.WriteCloser

func init() {
	Init()
}

// Init loads configuration from a .env file in the working directory
// if one exists, then from the environment.
func Init() {
	if _, err := os.Stat(".env"); err == nil {
		Conf = LoadFrom(".env")
		return
	}
	Conf = Load()
}

// LoadFrom loads config after overlaying envfile onto the process
// environment.
func LoadFrom(envfile string) Config {
	if abs, err := filepath.Abs(envfile); err == nil {
		godotenv.Overload(abs)
	}
	cfg := Load()
	ReloadLog()
	return cfg
}

// Load parses Config from the current environment, applying the
// envDefault tags for anything unset.
func Load() Config {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		panic("autoparser: can't read config: " + err.Error())
	}
	return cfg
}

// IsDevelopment reports whether Conf.Mode requests development-mode
// logging (colorful stderr banners instead of a rotating file).
func IsDevelopment() bool {
	return Conf.Mode == "development"
}

// ReloadLog closes and reopens the rotating log file.
func ReloadLog() {
	CloseLog()
	OpenLog()
}

// OpenLog opens Conf.Log through lumberjack if a path is configured.
// With no path set, LogOutput stays nil and callers fall back to
// stderr.
func OpenLog() {
	if Conf.Log == "" {
		return
	}

	logfile := Conf.Log
	if !filepath.IsAbs(logfile) {
		if abs, err := filepath.Abs(logfile); err == nil {
			logfile = abs
		}
	}

	logdir := filepath.Dir(logfile)
	if _, err := os.Stat(logdir); errors.Is(err, os.ErrNotExist) {
		return
	}

	LogOutput = &lumberjack.Logger{
		Filename:   logfile,
		MaxSize:    Conf.LogMaxSize,
		MaxBackups: Conf.LogMaxBackups,
		MaxAge:     Conf.LogMaxAge,
		LocalTime:  Conf.LogLocalTime,
	}
}

// CloseLog closes the rotating log file, if one is open.
func CloseLog() {
	if LogOutput != nil {
		LogOutput.Close()
		LogOutput = nil
	}
}
