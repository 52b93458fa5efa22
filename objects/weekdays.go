// /home/krylon/go/src/github.com/blicero/mnemosyne/objects/weekdays.go
// -*- mode: go; coding: utf-8; -*-
// Created on 11. 02. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-03-04 16:51:28 krylon>

package objects

import (
	"strings"
	"time"
)

// Weekdays is a list of weekdays an Alarm Reminder can be set
// to go off on. Index 0 is Monday.
type Weekdays [7]bool

// Bitfield returns an unsigned integer using the least significant bits
// as flags from right to left, i.e. the least significant bit is Monday,
// the second bit from the right is Tuesday, etc. The most significant
// bit is always zero.
func (w *Weekdays) Bitfield() uint8 {
	var days uint8 = b2i(w[0]) |
		b2i(w[1])<<1 |
		b2i(w[2])<<2 |
		b2i(w[3])<<3 |
		b2i(w[4])<<4 |
		b2i(w[5])<<5 |
		b2i(w[6])<<6

	return days
} // func (w *Weekdays) Bitfield() uint8

// WeekdaysFromBitfield is the inverse of Bitfield, it turns the
// bitmask loaded from the database back into a Weekdays value.
func WeekdaysFromBitfield(days uint8) Weekdays {
	var w Weekdays

	for i := 0; i < 7; i++ {
		w[i] = days&(1<<i) != 0
	}

	return w
} // func WeekdaysFromBitfield(days uint8) Weekdays

// Count returns the number of weekdays the Reminder is set to go off.
func (w *Weekdays) Count() int {
	var cnt int

	for _, b := range w {
		if b {
			cnt++
		}
	}

	return cnt
} // func (w *Weekdays) Count() int

// On returns the flag value for the given weekday.
func (w *Weekdays) On(d time.Weekday) bool {
	return w[(d+6)%7]
} // func (w *Weekdays) On(d time.Weekday) bool

// Go's time package insists on Sunday being the first day of the week,
// whereas in Europe it's considered the last day. So index 0 is Monday,
// and On() translates.

var wDayStr = []string{
	"Mo",
	"Di",
	"Mi",
	"Do",
	"Fr",
	"Sa",
	"So",
}

func (w *Weekdays) String() string {
	var days = make([]string, 0, 7)

	for idx, v := range w {
		if v {
			days = append(days, wDayStr[idx])
		}
	}

	return strings.Join(days, ",")
} // func (w *Weekdays) String() string

func b2i(b bool) uint8 {
	if b {
		return 1
	}
	return 0
} // func b2i(b bool) uint8
