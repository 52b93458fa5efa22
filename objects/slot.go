// /home/krylon/go/src/github.com/blicero/mnemosyne/objects/slot.go
// -*- mode: go; coding: utf-8; -*-
// Created on 12. 02. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-03-12 19:36:10 krylon>

package objects

import "time"

//go:generate ffjson slot.go

// SlotType names the category of notification a Reminder is rendered as.
type SlotType uint8

// The slot types, in descending order of urgency.
const (
	SlotSocial SlotType = iota
	SlotService
	SlotContent
	SlotOther
)

// Slot describes how notifications of one SlotType are presented for
// one application: what sound to play, and whether they are allowed
// to bypass the do-not-disturb window.
type Slot struct {
	Type      SlotType
	Sound     string
	BypassDND bool
}

// DNDKind tells what flavor of do-not-disturb window is configured.
type DNDKind uint8

// DNDNone means no do-not-disturb window is active at all.
// DNDOnce, DNDDaily and DNDClearly mirror the settings the notification
// service offers; for the reminder engine only "is one active right now"
// matters.
const (
	DNDNone DNDKind = iota
	DNDOnce
	DNDDaily
	DNDClearly
)

// DNDDate describes the currently configured do-not-disturb window.
// Begin and End are epoch milliseconds; they are only meaningful if
// Kind != DNDNone.
type DNDDate struct {
	Kind  DNDKind
	Begin int64
	End   int64
}

// Active returns true if the do-not-disturb window covers the given
// point in time.
func (d *DNDDate) Active(now time.Time) bool {
	if d.Kind == DNDNone {
		return false
	}

	var ms = now.UnixMilli()

	return d.Begin <= ms && ms < d.End
} // func (d *DNDDate) Active(now time.Time) bool
