// /home/krylon/go/src/github.com/blicero/mnemosyne/logdomain/logdomain.go
// -*- mode: go; coding: utf-8; -*-
// Created on 09. 02. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-02-10 18:22:40 krylon>

// Package logdomain provides symbolic constants to identify the
// various pieces of the application that want to do logging.
package logdomain

//go:generate stringer -type=ID

// ID represents a log source.
type ID uint8

// These constants identify the various log sources.
const (
	Common ID = iota
	Backend
	Database
	DBPool
	Web
	Client
)

// AllDomains returns a slice of all the known log sources.
func AllDomains() []ID {
	return []ID{
		Common,
		Backend,
		Database,
		DBPool,
		Web,
		Client,
	}
} // func AllDomains() []ID
