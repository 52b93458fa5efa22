// /home/krylon/go/src/github.com/blicero/mnemosyne/objects/notification.go
// -*- mode: go; coding: utf-8; -*-
// Created on 11. 02. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-02-11 18:02:41 krylon>

// Package objects provides the data types used by the application.
package objects

import "time"

// Notification is the common interface for items the user should be
// notified about.
type Notification interface {
	Due() time.Time
	IsDue() bool
	Payload() (string, string)
	UniqueID() string
}
