// /home/krylon/go/src/github.com/blicero/mnemosyne/objects/01_weekdays_test.go
// -*- mode: go; coding: utf-8; -*-
// Created on 12. 02. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-02-12 14:21:06 krylon>

package objects

import (
	"testing"
	"time"
)

func TestWeekdaysBitfield(t *testing.T) {
	type testCase struct {
		days   Weekdays
		expect uint8
	}

	var cases = []testCase{
		testCase{
			days:   Weekdays{},
			expect: 0,
		},
		testCase{
			days:   Weekdays{true, false, false, false, false, false, false},
			expect: 1,
		},
		testCase{
			days:   Weekdays{false, true, false, true, false, true, false},
			expect: 0x2a,
		},
		testCase{
			days:   Weekdays{true, true, true, true, true, true, true},
			expect: 0x7f,
		},
	}

	for _, c := range cases {
		var bits = c.days.Bitfield()

		if bits != c.expect {
			t.Errorf("Unexpected bitfield for %s: %02x (expected %02x)",
				c.days.String(),
				bits,
				c.expect)
		}

		var back = WeekdaysFromBitfield(bits)

		if back != c.days {
			t.Errorf("Weekdays did not survive the round trip through the bitfield: %s -> %s",
				c.days.String(),
				back.String())
		}
	}
} // func TestWeekdaysBitfield(t *testing.T)

func TestWeekdaysOn(t *testing.T) {
	// Monday and Friday
	var days = Weekdays{true, false, false, false, true, false, false}

	type testCase struct {
		day    time.Weekday
		expect bool
	}

	var cases = []testCase{
		testCase{day: time.Monday, expect: true},
		testCase{day: time.Tuesday, expect: false},
		testCase{day: time.Friday, expect: true},
		testCase{day: time.Saturday, expect: false},
		testCase{day: time.Sunday, expect: false},
	}

	for _, c := range cases {
		if on := days.On(c.day); on != c.expect {
			t.Errorf("Unexpected result for %s: %t (expected %t)",
				c.day,
				on,
				c.expect)
		}
	}
} // func TestWeekdaysOn(t *testing.T)
