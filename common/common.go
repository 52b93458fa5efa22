// /home/krylon/go/src/github.com/blicero/mnemosyne/common/common.go
// -*- mode: go; coding: utf-8; -*-
// Created on 09. 02. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-18 21:06:32 krylon>

// Package common provides constants, variables and functions used
// throughout the application.
package common

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/blicero/krylib"
	"github.com/blicero/mnemosyne/logdomain"
	"github.com/hashicorp/logutils"
	uuid "github.com/odeke-em/go-uuid"
)

// Debug indicates whether to emit additional log messages and perform
// additional sanity checks.
// Version is the version number to display.
// AppName is the name of the application.
// TimestampFormat is the format string used to render datetime values.
// HeartBeat is the interval for worker goroutines to wake up and check
// their status.
const (
	Debug                  = true
	Version                = "0.2.1"
	AppName                = "Mnemosyne"
	TimestampFormat        = "2006-01-02 15:04:05"
	TimestampFormatMinute  = "2006-01-02 15:04"
	TimestampFormatSubSec  = "2006-01-02 15:04:05.0000 MST"
	TimestampFormatDate    = "2006-01-02"
	TimestampFormatTime    = "15:04:05"
	HeartBeat              = time.Millisecond * 500
	RCTimeout              = time.Millisecond * 10
	DefaultPort            = 7202
	MaxReminderCntSystem   = 2000
	MaxReminderCntPerApp   = 30
	AllPackages            = "allPackages"
	MainUserID             = 100
	UserIDBase             = 200000
	SameTimeWindowMillis   = 1000
	DefaultRingDurationSec = 1
)

// LogLevels are the names of the log levels supported by the logger.
var LogLevels = []logutils.LogLevel{
	"TRACE",
	"DEBUG",
	"INFO",
	"WARN",
	"ERROR",
	"CRITICAL",
	"CANTHAPPEN",
	"SILENT",
}

// PackageLevels defines minimum log levels per package.
var PackageLevels = make(map[logdomain.ID]logutils.LogLevel, len(logdomain.AllDomains()))

func init() {
	for _, dom := range logdomain.AllDomains() {
		PackageLevels[dom] = "TRACE"
	}
} // func init()

// BaseDir is the folder where all application-specific files (database,
// log files, etc) are stored.
// LogPath is the file to the log path.
// DbPath is the path of the database.
var (
	BaseDir = filepath.Join(os.Getenv("HOME"), fmt.Sprintf(".%s.d", strings.ToLower(AppName)))
	LogPath = filepath.Join(BaseDir, fmt.Sprintf("%s.log", strings.ToLower(AppName)))
	DbPath  = filepath.Join(BaseDir, fmt.Sprintf("%s.db", strings.ToLower(AppName)))
)

// SetBaseDir sets the BaseDir and related variables.
func SetBaseDir(path string) error {
	fmt.Printf("Setting BaseDir to %s\n", path)

	BaseDir = path
	LogPath = filepath.Join(BaseDir, fmt.Sprintf("%s.log", strings.ToLower(AppName)))
	DbPath = filepath.Join(BaseDir, fmt.Sprintf("%s.db", strings.ToLower(AppName)))

	if err := InitApp(); err != nil {
		fmt.Printf("Error initializing application environment: %s\n", err.Error())
		return err
	}

	return nil
} // func SetBaseDir(path string) error

// GetLogger tries to create a logger for the given domain.
func GetLogger(dom logdomain.ID) (*log.Logger, error) {
	var (
		err error
		lw  io.Writer
	)

	if err = InitApp(); err != nil {
		return nil, fmt.Errorf("Error initializing application environment: %w", err)
	}

	var name = fmt.Sprintf("%s.%s",
		AppName,
		dom)

	if lw, err = openLogFile(LogPath); err != nil {
		return nil, err
	}

	var filter = &logutils.LevelFilter{
		Levels:   LogLevels,
		MinLevel: PackageLevels[dom],
		Writer:   lw,
	}

	var logger = log.New(filter, name+" ", log.Ldate|log.Ltime|log.Lshortfile)

	return logger, nil
} // func GetLogger(dom logdomain.ID) (*log.Logger, error)

func openLogFile(path string) (io.Writer, error) {
	var (
		err error
		fh  *os.File
	)

	if fh, err = os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644); err != nil {
		return nil, fmt.Errorf("Error opening log file %s: %w",
			path,
			err)
	}

	return io.MultiWriter(os.Stdout, fh), nil
} // func openLogFile(path string) (io.Writer, error)

// InitApp performs some basic preparations for the application to run.
// Currently, this means creating the BaseDir folder.
func InitApp() error {
	var (
		err   error
		exist bool
	)

	if exist, err = krylib.Fexists(BaseDir); err != nil {
		return fmt.Errorf("Error checking if BaseDir %s exists: %w",
			BaseDir,
			err)
	} else if !exist {
		if err = os.MkdirAll(BaseDir, 0755); err != nil {
			return fmt.Errorf("Error creating BaseDir %s: %w",
				BaseDir,
				err)
		}
	}

	return nil
} // func InitApp() error

// GetUUID returns a randomized UUID.
func GetUUID() string {
	return uuid.New()
} // func GetUUID() string

// TimeEqual returns true if the two timestamps are less than one second apart.
func TimeEqual(t1, t2 time.Time) bool {
	var delta = t1.Sub(t2)

	if delta < 0 {
		delta = -delta
	}

	return delta < time.Second
} // func TimeEqual(t1, t2 time.Time) bool
