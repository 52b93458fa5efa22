// /home/krylon/go/src/github.com/blicero/mnemosyne/objects/kind/kind.go
// -*- mode: go; coding: utf-8; -*-
// Created on 11. 02. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-02-11 17:40:19 krylon>

//go:generate stringer -type=Kind

// Package kind contains symbolic constants to tell apart the
// flavors of Reminders the application supports.
package kind

// Kind describes what flavor of Reminder we are dealing with.
type Kind uint8

// Invalid is the zero value, it denotes a Reminder that has not been
// fully initialized.
// Timer is a Reminder that goes off a fixed amount of time after it
// was registered (think egg timer).
// Alarm is a Reminder that goes off at a fixed time of day, possibly
// restricted to certain days of the week (think alarm clock).
// Calendar is a Reminder tied to a calendar date, possibly recurring
// on a set of months and/or days of the month.
const (
	Invalid Kind = iota
	Timer
	Alarm
	Calendar
)
