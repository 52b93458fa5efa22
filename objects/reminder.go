// /home/krylon/go/src/github.com/blicero/mnemosyne/objects/reminder.go
// -*- mode: go; coding: utf-8; -*-
// Created on 11. 02. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-16 18:27:51 krylon>

package objects

import (
	"fmt"
	"time"

	"github.com/blicero/mnemosyne/common"
	"github.com/blicero/mnemosyne/objects/kind"
)

//go:generate ffjson reminder.go

// InvalidTime is the sentinel value for a trigger time that has not
// been computed (or could not be).
// InvalidID is the sentinel value for "no Reminder".
const (
	InvalidTime int64 = 0
	InvalidID   int64 = -1
	MilliPerSec int64 = 1000
)

// The state bits of a Reminder. A Reminder with none of these set is
// dormant, i.e. registered but not currently doing anything.
const (
	StatusActive   uint8 = 1 << iota // armed on the trigger timer
	StatusAlerting                   // sound/vibration going off right now
	StatusShowing                    // notification currently visible
	StatusSnoozed                    // rescheduled via the snooze interval
)

// Reminder is a single reminder registered by some application.
//
// It is a closed union over the kinds defined in the kind package;
// which of the payload fields (Hour/Minute/Days, CountDown/InitTime,
// Date/RepeatMonths/RepeatDays) are meaningful depends on Kind.
// All trigger arithmetic lives here, the backend only ever asks a
// Reminder for its next trigger time and tells it about lifecycle
// events (it fired, it was snoozed, the wall clock changed, ...).
type Reminder struct {
	ID             int64
	Kind           kind.Kind
	Title          string
	Content        string
	ExpiredContent string
	SnoozeContent  string
	NotificationID int64
	Slot           SlotType
	TriggerTime    int64 // epoch milliseconds
	RingDuration   int64 // seconds
	SnoozeTimes    int
	SnoozeDynamic  int
	TimeInterval   int64 // seconds
	State          uint8
	Expired        bool
	UserID         int32
	UID            int32
	UUID           string
	Changed        time.Time

	// Alarm payload
	Hour   uint8
	Minute uint8
	Days   Weekdays

	// Timer payload
	CountDown int64 // seconds
	InitTime  int64 // epoch milliseconds of registration

	// Calendar payload
	Date         time.Time
	RepeatMonths uint16 // bit 0 = January ... bit 11 = December
	RepeatDays   uint32 // bit 0 = 1st ... bit 30 = 31st
}

// NewTimer creates a count-down Reminder that goes off the given number
// of seconds after now.
func NewTimer(countDown int64, now time.Time) *Reminder {
	var r = &Reminder{
		Kind:         kind.Timer,
		CountDown:    countDown,
		InitTime:     now.UnixMilli(),
		RingDuration: common.DefaultRingDurationSec,
		UUID:         common.GetUUID(),
		Changed:      now,
	}

	r.TriggerTime = r.InitTime + countDown*MilliPerSec
	return r
} // func NewTimer(countDown int64, now time.Time) *Reminder

// NewAlarm creates an alarm clock Reminder for the given time of day.
// If days has no weekday set, the alarm goes off exactly once, at the
// next occurrence of hour:minute.
func NewAlarm(hour, minute uint8, days Weekdays, now time.Time) *Reminder {
	var r = &Reminder{
		Kind:         kind.Alarm,
		Hour:         hour,
		Minute:       minute,
		Days:         days,
		RingDuration: common.DefaultRingDurationSec,
		UUID:         common.GetUUID(),
		Changed:      now,
	}

	r.TriggerTime = r.ComputeNextTrigger(now)
	return r
} // func NewAlarm(hour, minute uint8, days Weekdays, now time.Time) *Reminder

// NewCalendar creates a calendar Reminder for the given date. If both
// repeat masks are non-zero, the Reminder recurs on every enabled
// (month, day) combination, at the time of day taken from date.
func NewCalendar(date time.Time, repeatMonths uint16, repeatDays uint32, now time.Time) *Reminder {
	var r = &Reminder{
		Kind:         kind.Calendar,
		Date:         date,
		RepeatMonths: repeatMonths,
		RepeatDays:   repeatDays,
		RingDuration: common.DefaultRingDurationSec,
		UUID:         common.GetUUID(),
		Changed:      now,
	}

	r.TriggerTime = r.ComputeNextTrigger(now)
	return r
} // func NewCalendar(date time.Time, repeatMonths uint16, repeatDays uint32, now time.Time) *Reminder

// IsRepeating returns true if the Reminder has more than one occurrence.
func (r *Reminder) IsRepeating() bool {
	switch r.Kind {
	case kind.Alarm:
		return r.Days.Count() > 0
	case kind.Calendar:
		return r.RepeatMonths != 0 && r.RepeatDays != 0
	default:
		return false
	}
} // func (r *Reminder) IsRepeating() bool

// ComputeNextTrigger returns the next strictly-future occurrence of the
// Reminder relative to now, or InvalidTime if there is none.
func (r *Reminder) ComputeNextTrigger(now time.Time) int64 {
	switch r.Kind {
	case kind.Timer:
		var due = r.InitTime + r.CountDown*MilliPerSec
		if due > now.UnixMilli() {
			return due
		}
		return InvalidTime
	case kind.Alarm:
		return r.nextAlarmTrigger(now)
	case kind.Calendar:
		return r.nextCalendarTrigger(now)
	default:
		return InvalidTime
	}
} // func (r *Reminder) ComputeNextTrigger(now time.Time) int64

func (r *Reminder) nextAlarmTrigger(now time.Time) int64 {
	var due = time.Date(
		now.Year(),
		now.Month(),
		now.Day(),
		int(r.Hour),
		int(r.Minute),
		0,
		0,
		now.Location())

	if !due.After(now) {
		due = due.AddDate(0, 0, 1)
	}

	if r.Days.Count() > 0 {
		for !r.Days.On(due.Weekday()) {
			due = due.AddDate(0, 0, 1)
		}
	}

	return due.UnixMilli()
} // func (r *Reminder) nextAlarmTrigger(now time.Time) int64

func (r *Reminder) nextCalendarTrigger(now time.Time) int64 {
	if r.Date.After(now) {
		return r.Date.UnixMilli()
	}

	if r.RepeatMonths == 0 || r.RepeatDays == 0 {
		return InvalidTime
	}

	// Walk two years' worth of months, starting with the current one,
	// and take the earliest enabled (month, day) combination that lies
	// in the future. Days that do not exist in a given month (e.g. the
	// 30th of February) are skipped.
	var (
		loc  = r.Date.Location()
		base = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	)

	for i := 0; i < 24; i++ {
		var month = base.AddDate(0, i, 0)

		if r.RepeatMonths&(1<<(uint(month.Month())-1)) == 0 {
			continue
		}

		for day := 1; day <= 31; day++ {
			if r.RepeatDays&(1<<(uint(day)-1)) == 0 {
				continue
			}

			var due = time.Date(
				month.Year(),
				month.Month(),
				day,
				r.Date.Hour(),
				r.Date.Minute(),
				0,
				0,
				loc)

			if due.Month() != month.Month() {
				// Day overflowed into the next month.
				continue
			} else if due.After(now) {
				return due.UnixMilli()
			}
		}
	}

	return InvalidTime
} // func (r *Reminder) nextCalendarTrigger(now time.Time) int64

// SetNextTriggerTime recomputes the trigger time. It returns false if
// the Reminder has no future occurrence left.
func (r *Reminder) SetNextTriggerTime(now time.Time) bool {
	var due = r.ComputeNextTrigger(now)

	if due == InvalidTime {
		return false
	}

	r.TriggerTime = due
	return true
} // func (r *Reminder) SetNextTriggerTime(now time.Time) bool

// OnShow is called when the Reminder's notification is (about to be)
// displayed. If allowed is false, the notification sink refused us and
// the Reminder's state is left untouched, so a later event may have
// another go at it.
func (r *Reminder) OnShow(now time.Time, playSound, sysTimeChanged, allowed bool) {
	if !allowed {
		return
	}

	r.State &^= StatusActive | StatusSnoozed
	r.State |= StatusShowing
	if playSound {
		r.State |= StatusAlerting
	} else {
		r.State &^= StatusAlerting
	}

	r.advance(now)
	r.Changed = now
} // func (r *Reminder) OnShow(now time.Time, playSound, sysTimeChanged, allowed bool)

// advance moves the trigger time to the next occurrence after a show or
// a snooze, consuming the snooze budget first. A Reminder with nothing
// left to do becomes expired.
func (r *Reminder) advance(now time.Time) {
	if r.SnoozeDynamic > 0 && r.TimeInterval > 0 {
		r.TriggerTime = now.UnixMilli() + r.TimeInterval*MilliPerSec
		r.SnoozeDynamic--
		r.State |= StatusSnoozed
		return
	}

	if r.IsRepeating() && r.SetNextTriggerTime(now) {
		r.SnoozeDynamic = r.SnoozeTimes
		return
	}

	r.Expired = true
} // func (r *Reminder) advance(now time.Time)

// OnShowFail rolls back the state change made by OnShow after the
// notification sink reported an error publishing the notification.
func (r *Reminder) OnShowFail() {
	r.State &^= StatusShowing | StatusAlerting
} // func (r *Reminder) OnShowFail()

// OnSnooze reschedules the Reminder manually. The notification stays
// visible (the backend republishes it without sound), only the alert is
// over.
func (r *Reminder) OnSnooze(now time.Time) bool {
	r.State &^= StatusAlerting
	r.advance(now)
	if r.TriggerTime > now.UnixMilli() {
		r.Expired = false
	}
	r.Changed = now
	return true
} // func (r *Reminder) OnSnooze(now time.Time) bool

// OnStart marks the Reminder as armed on the trigger timer.
func (r *Reminder) OnStart() {
	r.State |= StatusActive
} // func (r *Reminder) OnStart()

// OnStop is the inverse of OnStart.
func (r *Reminder) OnStop() {
	r.State &^= StatusActive
} // func (r *Reminder) OnStop()

// OnClose is called when the Reminder's notification is dismissed.
// If updateNext is true, repeating Reminders move on to their next
// occurrence; one-shot Reminders are done for good.
func (r *Reminder) OnClose(now time.Time, updateNext bool) {
	r.State &^= StatusShowing | StatusAlerting | StatusSnoozed

	if updateNext && r.IsRepeating() && r.SetNextTriggerTime(now) {
		r.SnoozeDynamic = r.SnoozeTimes
	} else if !r.IsRepeating() {
		r.Expired = true
	}

	r.Changed = now
} // func (r *Reminder) OnClose(now time.Time, updateNext bool)

// OnTerminate ends the alerting phase. It returns false if the Reminder
// was not alerting in the first place, in which case the caller must
// not republish the notification.
func (r *Reminder) OnTerminate() bool {
	if r.State&StatusAlerting == 0 {
		return false
	}

	r.State &^= StatusAlerting
	return true
} // func (r *Reminder) OnTerminate() bool

// OnSameNotificationIDCovered is called when another Reminder of the
// same application reuses our notification id, making our notification
// disappear without any user interaction.
func (r *Reminder) OnSameNotificationIDCovered() {
	r.State &^= StatusShowing | StatusAlerting | StatusSnoozed

	if !r.IsRepeating() {
		r.Expired = true
	}
} // func (r *Reminder) OnSameNotificationIDCovered()

// OnTimeZoneChange is called after the system's timezone was changed.
// The return value tells the caller the Reminder's occurrence slipped
// into the past and it should be shown right away.
func (r *Reminder) OnTimeZoneChange(now time.Time) bool {
	if r.Kind == kind.Timer {
		// A count-down measures real elapsed time, the timezone is
		// irrelevant to it.
		return false
	}

	return r.handleSysTimeChange(now)
} // func (r *Reminder) OnTimeZoneChange(now time.Time) bool

// OnDateTimeChange is called after the wall clock was set by the user.
func (r *Reminder) OnDateTimeChange(now time.Time) bool {
	if r.Kind == kind.Timer {
		// We cannot tell how much real time is left once the clock
		// has been set manually, so the count-down is void.
		if !r.Expired {
			r.Expired = true
			r.Changed = now
		}
		return false
	}

	return r.handleSysTimeChange(now)
} // func (r *Reminder) OnDateTimeChange(now time.Time) bool

func (r *Reminder) handleSysTimeChange(now time.Time) bool {
	if r.Expired {
		return false
	}

	var old = r.TriggerTime

	if old != InvalidTime && old <= now.UnixMilli() {
		// The occurrence we were waiting for is suddenly in the past.
		return true
	}

	var due = r.ComputeNextTrigger(now)

	if due == InvalidTime {
		if old != InvalidTime && old > now.UnixMilli() {
			// One-shot occurrence, still ahead of us. Leave it be.
			return false
		}
		r.Expired = true
		r.Changed = now
		return false
	}

	r.TriggerTime = due
	r.Changed = now
	return false
} // func (r *Reminder) handleSysTimeChange(now time.Time) bool

// CanShow returns false if showing the Reminder right now makes no
// sense, e.g. because the wall clock was rolled back between arming the
// trigger timer and it going off.
func (r *Reminder) CanShow(now time.Time) bool {
	return r.TriggerTime != InvalidTime &&
		now.UnixMilli()+MilliPerSec >= r.TriggerTime
} // func (r *Reminder) CanShow(now time.Time) bool

// CanRemove returns true if the Reminder holds no role that would make
// evicting it from memory lose information, i.e. it is neither showing
// nor alerting.
func (r *Reminder) CanRemove() bool {
	return r.State&(StatusShowing|StatusAlerting) == 0
} // func (r *Reminder) CanRemove() bool

// ShouldShowImmediately returns true if the Reminder was due while
// nobody was looking (service down, user switched, ...) and must be
// shown as soon as possible.
func (r *Reminder) ShouldShowImmediately(now time.Time) bool {
	return !r.Expired &&
		r.TriggerTime != InvalidTime &&
		r.TriggerTime <= now.UnixMilli()
} // func (r *Reminder) ShouldShowImmediately(now time.Time) bool

// IsExpired returns true if the Reminder has no future occurrence left.
func (r *Reminder) IsExpired() bool { return r.Expired }

// IsShowing returns true if the Reminder's notification is currently visible.
func (r *Reminder) IsShowing() bool { return r.State&StatusShowing != 0 }

// IsAlerting returns true if the Reminder is currently making noise.
func (r *Reminder) IsAlerting() bool { return r.State&StatusAlerting != 0 }

// IsActive returns true if the Reminder is armed on the trigger timer.
func (r *Reminder) IsActive() bool { return r.State&StatusActive != 0 }

// RingDurationMillis returns the maximum alerting duration in
// milliseconds.
func (r *Reminder) RingDurationMillis() int64 {
	if r.RingDuration <= 0 {
		return common.DefaultRingDurationSec * MilliPerSec
	}

	return r.RingDuration * MilliPerSec
} // func (r *Reminder) RingDurationMillis() int64

// Due returns the Reminder's trigger time as a time.Time.
func (r *Reminder) Due() time.Time {
	return time.UnixMilli(r.TriggerTime)
} // func (r *Reminder) Due() time.Time

// IsDue returns true if the Reminder's due time has passed.
func (r *Reminder) IsDue() bool {
	return !r.Expired &&
		r.TriggerTime != InvalidTime &&
		r.TriggerTime <= time.Now().UnixMilli()
} // func (r *Reminder) IsDue() bool

// UniqueID returns an identifier that is unique across instances.
// I.e. a UUID.
func (r *Reminder) UniqueID() string {
	return r.UUID
} // func (r *Reminder) UniqueID() string

// Payload returns the title and body to render the Reminder's
// notification with, depending on its state.
func (r *Reminder) Payload() (string, string) {
	switch {
	case r.Expired && r.ExpiredContent != "":
		return r.Title, r.ExpiredContent
	case r.State&StatusSnoozed != 0 && r.SnoozeContent != "":
		return r.Title, r.SnoozeContent
	default:
		return r.Title, r.Content
	}
} // func (r *Reminder) Payload() (string, string)

// Dump returns a terse string rendition of the Reminder for logging.
func (r *Reminder) Dump() string {
	var due = "(invalid)"

	if r.TriggerTime != InvalidTime {
		due = time.UnixMilli(r.TriggerTime).Format(common.TimestampFormat)
	}

	return fmt.Sprintf("Reminder{ ID: %d, Kind: %s, Title: %q, Due: %s, State: %02x, Expired: %t, Snooze: %d/%d }",
		r.ID,
		r.Kind,
		r.Title,
		due,
		r.State,
		r.Expired,
		r.SnoozeDynamic,
		r.SnoozeTimes)
} // func (r *Reminder) Dump() string
