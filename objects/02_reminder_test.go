// /home/krylon/go/src/github.com/blicero/mnemosyne/objects/02_reminder_test.go
// -*- mode: go; coding: utf-8; -*-
// Created on 12. 02. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-16 19:07:33 krylon>

package objects

import (
	"testing"
	"time"

	"github.com/blicero/mnemosyne/common"
	"github.com/blicero/mnemosyne/objects/kind"
)

// 2023-02-13 was a Monday.
var refTime = time.Date(2023, 2, 13, 8, 0, 0, 0, time.UTC)

func TestNextTrigger(t *testing.T) {
	type testCase struct {
		title  string
		r      Reminder
		expect int64
	}

	var cases = []testCase{
		testCase{
			title: "TimerAhead",
			r: Reminder{
				Kind:      kind.Timer,
				CountDown: 90,
				InitTime:  refTime.UnixMilli(),
			},
			expect: refTime.Add(time.Second * 90).UnixMilli(),
		},
		testCase{
			title: "TimerElapsed",
			r: Reminder{
				Kind:      kind.Timer,
				CountDown: 30,
				InitTime:  refTime.Add(time.Minute * -5).UnixMilli(),
			},
			expect: InvalidTime,
		},
		testCase{
			title: "AlarmLaterToday",
			r: Reminder{
				Kind:   kind.Alarm,
				Hour:   9,
				Minute: 15,
			},
			expect: time.Date(2023, 2, 13, 9, 15, 0, 0, time.UTC).UnixMilli(),
		},
		testCase{
			title: "AlarmTomorrow",
			r: Reminder{
				Kind:   kind.Alarm,
				Hour:   7,
				Minute: 0,
			},
			expect: time.Date(2023, 2, 14, 7, 0, 0, 0, time.UTC).UnixMilli(),
		},
		testCase{
			title: "AlarmWeekdays",
			r: Reminder{
				Kind:   kind.Alarm,
				Hour:   7,
				Minute: 30,
				// Tuesday, Thursday, Saturday
				Days: Weekdays{false, true, false, true, false, true, false},
			},
			expect: time.Date(2023, 2, 14, 7, 30, 0, 0, time.UTC).UnixMilli(),
		},
		testCase{
			title: "CalendarFutureDate",
			r: Reminder{
				Kind: kind.Calendar,
				Date: time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC),
			},
			expect: time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC).UnixMilli(),
		},
		testCase{
			title: "CalendarPastOneShot",
			r: Reminder{
				Kind: kind.Calendar,
				Date: time.Date(2023, 1, 10, 10, 0, 0, 0, time.UTC),
			},
			expect: InvalidTime,
		},
		testCase{
			title: "CalendarRepeating",
			r: Reminder{
				Kind:         kind.Calendar,
				Date:         time.Date(2023, 1, 10, 10, 0, 0, 0, time.UTC),
				RepeatMonths: 1 << 2,  // March
				RepeatDays:   1 << 4,  // the 5th
			},
			expect: time.Date(2023, 3, 5, 10, 0, 0, 0, time.UTC).UnixMilli(),
		},
		testCase{
			title: "CalendarImpossibleDay",
			r: Reminder{
				Kind:         kind.Calendar,
				Date:         time.Date(2023, 1, 10, 10, 0, 0, 0, time.UTC),
				RepeatMonths: 1 << 1,  // February only
				RepeatDays:   1 << 29, // the 30th
			},
			expect: InvalidTime,
		},
	}

	for _, c := range cases {
		var due = c.r.ComputeNextTrigger(refTime)

		if due != c.expect {
			t.Errorf(`Unexpected trigger time from test case %s:
Expected:       %s
Got:            %s
`,
				c.title,
				time.UnixMilli(c.expect).Format(common.TimestampFormat),
				time.UnixMilli(due).Format(common.TimestampFormat))
		}
	}
} // func TestNextTrigger(t *testing.T)

func TestStateOneShot(t *testing.T) {
	var r = NewAlarm(9, 15, Weekdays{}, refTime)

	if r.State != 0 {
		t.Fatalf("Fresh Reminder has state %02x, expected 0", r.State)
	} else if !r.CanRemove() {
		t.Fatal("Fresh Reminder should be removable")
	}

	// The sink refusing us must leave the state alone.
	r.OnShow(refTime, true, false, false)

	if r.State != 0 {
		t.Fatalf("Disallowed OnShow changed state to %02x", r.State)
	} else if r.Expired {
		t.Fatal("Disallowed OnShow expired the Reminder")
	}

	r.OnShow(refTime, true, false, true)

	if !r.IsShowing() {
		t.Error("Reminder should be showing after OnShow")
	}
	if !r.IsAlerting() {
		t.Error("Reminder should be alerting after OnShow with sound")
	}
	if r.CanRemove() {
		t.Error("Showing Reminder must not be removable")
	}
	if !r.Expired {
		t.Error("One-shot Reminder should be expired after it went off")
	}

	if !r.OnTerminate() {
		t.Error("OnTerminate on an alerting Reminder should return true")
	} else if r.IsAlerting() {
		t.Error("Reminder still alerting after OnTerminate")
	}

	if r.OnTerminate() {
		t.Error("Second OnTerminate should return false")
	}

	r.OnClose(refTime, true)

	if r.IsShowing() {
		t.Error("Reminder still showing after OnClose")
	} else if !r.CanRemove() {
		t.Error("Closed Reminder should be removable")
	}
} // func TestStateOneShot(t *testing.T)

func TestSnoozeBudget(t *testing.T) {
	var r = NewAlarm(7, 30, Weekdays{true, true, true, true, true, true, true}, refTime)
	r.SnoozeTimes = 2
	r.SnoozeDynamic = 2
	r.TimeInterval = 60

	r.OnShow(refTime, true, false, true)

	if r.Expired {
		t.Fatal("Repeating Reminder must not expire on show")
	} else if r.TriggerTime != refTime.Add(time.Minute).UnixMilli() {
		t.Errorf("After the first show the Reminder should be due in one minute, not at %s",
			time.UnixMilli(r.TriggerTime).Format(common.TimestampFormat))
	} else if r.SnoozeDynamic != 1 {
		t.Errorf("Snooze budget should be 1, not %d", r.SnoozeDynamic)
	}

	var then = refTime.Add(time.Minute)

	if !r.OnSnooze(then) {
		t.Fatal("OnSnooze failed")
	} else if r.SnoozeDynamic != 0 {
		t.Errorf("Snooze budget should be exhausted, is %d", r.SnoozeDynamic)
	} else if r.TriggerTime != then.Add(time.Minute).UnixMilli() {
		t.Errorf("Snoozed Reminder should be due at %s, not %s",
			then.Add(time.Minute).Format(common.TimestampFormat),
			time.UnixMilli(r.TriggerTime).Format(common.TimestampFormat))
	}

	then = then.Add(time.Minute)

	// With the budget used up, the next snooze falls through to the
	// regular recurrence and refills the budget.
	if !r.OnSnooze(then) {
		t.Fatal("OnSnooze failed")
	} else if r.SnoozeDynamic != 2 {
		t.Errorf("Snooze budget should have been refilled to 2, is %d", r.SnoozeDynamic)
	} else if r.TriggerTime != time.Date(2023, 2, 14, 7, 30, 0, 0, time.UTC).UnixMilli() {
		t.Errorf("Reminder should be due tomorrow at 07:30, not at %s",
			time.UnixMilli(r.TriggerTime).Format(common.TimestampFormat))
	} else if r.Expired {
		t.Error("Repeating Reminder must not be expired after snoozing")
	}
} // func TestSnoozeBudget(t *testing.T)

func TestSysTimeChange(t *testing.T) {
	var tmr = NewTimer(300, refTime)

	if tmr.OnTimeZoneChange(refTime.Add(time.Minute)) {
		t.Error("A timezone change must not affect a count-down")
	} else if tmr.Expired {
		t.Error("A timezone change must not expire a count-down")
	}

	if tmr.OnDateTimeChange(refTime.Add(time.Minute)) {
		t.Error("A voided count-down must not ask to be shown")
	} else if !tmr.Expired {
		t.Error("Setting the clock should void a count-down")
	}

	var alm = NewAlarm(9, 15, Weekdays{}, refTime)

	// Clock jumps past the trigger time.
	if !alm.OnDateTimeChange(refTime.Add(time.Hour * 3)) {
		t.Error("An alarm whose trigger slipped into the past should ask to be shown")
	}

	alm = NewAlarm(9, 15, Weekdays{}, refTime)

	// Clock jumps backward, trigger still ahead.
	if alm.OnDateTimeChange(refTime.Add(time.Hour * -3)) {
		t.Error("An alarm still ahead of us should not ask to be shown")
	} else if alm.Expired {
		t.Error("An alarm still ahead of us must not expire")
	}

	var cal = NewCalendar(
		time.Date(2023, 2, 13, 9, 0, 0, 0, time.UTC),
		0,
		0,
		refTime)

	if !cal.OnTimeZoneChange(refTime.Add(time.Hour * 2)) {
		t.Error("A calendar Reminder whose trigger slipped into the past should ask to be shown")
	}
} // func TestSysTimeChange(t *testing.T)

func TestNotificationInterface(t *testing.T) {
	var r = NewTimer(300, refTime)
	r.Title = "Pasta"
	r.Content = "The pasta is done"
	r.ExpiredContent = "The pasta is overcooked"
	r.UUID = "cafebabe"

	var n Notification = r

	if !n.Due().Equal(refTime.Add(time.Second * 300)) {
		t.Errorf("Reminder should be due at %s, not %s",
			refTime.Add(time.Second*300).Format(common.TimestampFormat),
			n.Due().Format(common.TimestampFormat))
	} else if n.UniqueID() != "cafebabe" {
		t.Errorf("Unexpected UniqueID %q", n.UniqueID())
	}

	var head, body = n.Payload()

	if head != r.Title || body != r.Content {
		t.Errorf("Unexpected payload (%q, %q)", head, body)
	}

	r.Expired = true

	if _, body = n.Payload(); body != r.ExpiredContent {
		t.Errorf("An expired Reminder should render its expired body, got %q", body)
	}

	if n.IsDue() {
		t.Error("An expired Reminder is not due")
	}
} // func TestNotificationInterface(t *testing.T)
