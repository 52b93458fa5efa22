// /home/krylon/go/src/github.com/blicero/mnemosyne/backend/event.go
// -*- mode: go; coding: utf-8; -*-
// Created on 18. 02. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-05 18:40:12 krylon>

package backend

import "github.com/blicero/mnemosyne/objects"

//go:generate stringer -type=eventKind

// eventKind names the events the Manager's dispatch loop reacts to.
type eventKind uint8

const (
	evTriggerFired eventKind = iota
	evAlertTimeout
	evDateTimeChanged
	evTimeZoneChanged
	evProcessDied
	evUserSwitch
	evUserRemove
)

// event is a single item on the Manager's event queue. Which of the
// payload fields are meaningful depends on the kind.
type event struct {
	kind       eventKind
	reminderID int64
	userID     int32
	bundle     *objects.BundleOption
}
