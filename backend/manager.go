// /home/krylon/go/src/github.com/blicero/mnemosyne/backend/manager.go
// -*- mode: go; coding: utf-8; -*-
// Created on 19. 02. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-18 19:33:02 krylon>

package backend

import (
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/blicero/mnemosyne/common"
	"github.com/blicero/mnemosyne/database"
	"github.com/blicero/mnemosyne/logdomain"
	"github.com/blicero/mnemosyne/objects"
	"github.com/blicero/mnemosyne/objects/kind"
)

const queueDepth = 32

// ErrReminderNotExist means the requested Reminder is not registered,
// or it belongs to a different application than the caller.
var ErrReminderNotExist = errors.New("reminder does not exist")

// ErrReminderOverload means either the system-wide or the per-app
// reminder limit has been reached.
var ErrReminderOverload = errors.New("too many reminders")

// ErrNotReady means the Manager has not been started (or was stopped).
var ErrNotReady = errors.New("reminder engine is not running")

// ErrInvalidReminder means the Reminder failed validation on publish.
var ErrInvalidReminder = errors.New("reminder is not valid")

// Manager is the heart of the reminder engine. It keeps all registered
// reminders in memory, arms the trigger timer for the most imminent
// one, shows notifications when triggers fire, and enforces the
// single-alerting-reminder rule.
//
// Timer callbacks and system events go through a bounded event queue
// that a single dispatch goroutine drains, the client-facing operations
// work on the containers directly, under the Manager's locks.
type Manager struct {
	log    *log.Logger
	pool   *database.Pool
	sink   NotificationSink
	timer  TimerPort
	player AlertPlayer

	queue chan event

	lock      sync.RWMutex // guards the containers and the active flag
	active    bool
	reminders map[int64]*objects.Reminder
	bundles   map[int64]*objects.BundleOption
	showed    map[int64]*objects.Reminder

	showLock sync.Mutex // serializes showing notifications

	alertLock  sync.Mutex
	alerting   *objects.Reminder
	alertTimer int64

	timerLock    sync.Mutex
	activeRem    *objects.Reminder
	triggerTimer int64

	cfgLock    sync.RWMutex
	activeUser int32
	dnd        map[int32]objects.DNDDate
	slots      map[objects.SlotType]objects.Slot
}

// NewManager creates a Manager. All four collaborators are required,
// except for the player, which defaults to the logging one.
func NewManager(pool *database.Pool, sink NotificationSink, timer TimerPort, player AlertPlayer) (*Manager, error) {
	var (
		err error
		m   = &Manager{
			pool:       pool,
			sink:       sink,
			timer:      timer,
			player:     player,
			queue:      make(chan event, queueDepth),
			reminders:  make(map[int64]*objects.Reminder),
			bundles:    make(map[int64]*objects.BundleOption),
			showed:     make(map[int64]*objects.Reminder),
			activeUser: common.MainUserID,
			dnd:        make(map[int32]objects.DNDDate),
			slots: map[objects.SlotType]objects.Slot{
				objects.SlotSocial:  {Type: objects.SlotSocial},
				objects.SlotService: {Type: objects.SlotService},
				objects.SlotContent: {Type: objects.SlotContent},
				objects.SlotOther:   {Type: objects.SlotOther},
			},
		}
	)

	if m.log, err = common.GetLogger(logdomain.Backend); err != nil {
		return nil, err
	}

	if m.player == nil {
		if m.player, err = newLogPlayer(); err != nil {
			return nil, err
		}
	}

	return m, nil
} // func NewManager(pool *database.Pool, sink NotificationSink, timer TimerPort, player AlertPlayer) (*Manager, error)

// Start loads the persisted reminders, starts the dispatch loop, and
// replays reminders that came due while the engine was down.
func (m *Manager) Start() error {
	var err error

	m.lock.Lock()
	m.active = true
	m.lock.Unlock()

	if err = m.loadFromDB(); err != nil {
		return err
	}

	go m.loop()

	m.onServiceStart()

	return nil
} // func (m *Manager) Start() error

// IsAlive returns true if the Manager's active flag is set.
func (m *Manager) IsAlive() bool {
	m.lock.RLock()
	var alive = m.active
	m.lock.RUnlock()

	return alive
} // func (m *Manager) IsAlive() bool

// Stop clears the active flag and disarms any pending timers.
func (m *Manager) Stop() {
	m.lock.Lock()
	m.active = false
	m.lock.Unlock()

	m.timerLock.Lock()
	m.stopTimer(m.triggerTimer)
	m.triggerTimer = 0
	m.activeRem = nil
	m.timerLock.Unlock()

	m.alertLock.Lock()
	m.stopTimer(m.alertTimer)
	m.alertTimer = 0
	m.alerting = nil
	m.alertLock.Unlock()
} // func (m *Manager) Stop()

func (m *Manager) loop() {
	defer m.log.Println("[TRACE] Event loop is shutting down")

	var tick = time.NewTicker(common.HeartBeat)
	defer tick.Stop()

	for m.IsAlive() {
		select {
		case <-tick.C:
			continue
		case ev := <-m.queue:
			m.handleEvent(&ev)
		}
	}
} // func (m *Manager) loop()

func (m *Manager) postEvent(ev event) {
	select {
	case m.queue <- ev:
		// ok
	default:
		m.log.Printf("[ERROR] Event queue is full, dropping %s\n",
			ev.kind)
	}
} // func (m *Manager) postEvent(ev event)

func (m *Manager) handleEvent(ev *event) {
	if common.Debug {
		m.log.Printf("[DEBUG] Dispatch %s\n", ev.kind)
	}

	switch ev.kind {
	case evTriggerFired:
		m.showActiveReminders(ev.reminderID, false)
	case evAlertTimeout:
		m.terminateAlerting(ev.reminderID, "ring timeout")
	case evDateTimeChanged:
		m.refreshSysTime(false)
	case evTimeZoneChanged:
		m.refreshSysTime(true)
	case evProcessDied:
		m.handleProcessDied(ev.bundle)
	case evUserSwitch:
		m.handleUserSwitch(ev.userID)
	case evUserRemove:
		m.handleUserRemove(ev.userID)
	default:
		m.log.Printf("[CANTHAPPEN] Unknown event %d\n", ev.kind)
	}
} // func (m *Manager) handleEvent(ev *event)

//////////////////////////////////////////////////////////////////////////////////////////////////
/// Client-facing operations /////////////////////////////////////////////////////////////////////
//////////////////////////////////////////////////////////////////////////////////////////////////

// PublishReminder registers a Reminder on behalf of the given
// application. On success, the Reminder carries its freshly assigned
// ID.
func (m *Manager) PublishReminder(rem *objects.Reminder, b *objects.BundleOption) error {
	if !m.IsAlive() {
		return ErrNotReady
	} else if rem == nil || rem.Kind == kind.Invalid || rem.Kind > kind.Calendar {
		return ErrInvalidReminder
	} else if b == nil || b.BundleName == "" {
		return ErrInvalidReminder
	}

	var now = time.Now()

	if rem.TriggerTime == objects.InvalidTime && !rem.SetNextTriggerTime(now) {
		return ErrInvalidReminder
	}

	if rem.UUID == "" {
		rem.UUID = common.GetUUID()
	}
	rem.SnoozeDynamic = rem.SnoozeTimes
	rem.Changed = now

	m.lock.Lock()

	if len(m.reminders) >= common.MaxReminderCntSystem {
		m.lock.Unlock()
		m.log.Printf("[ERROR] Cannot register Reminder for %s, the system-wide limit (%d) is reached\n",
			b,
			common.MaxReminderCntSystem)
		return ErrReminderOverload
	}

	var appCnt int
	for id, other := range m.reminders {
		if !other.IsExpired() && m.bundles[id].SameApp(b) {
			appCnt++
		}
	}

	if appCnt >= common.MaxReminderCntPerApp {
		m.lock.Unlock()
		m.log.Printf("[ERROR] Cannot register Reminder for %s, the per-app limit (%d) is reached\n",
			b,
			common.MaxReminderCntPerApp)
		return ErrReminderOverload
	}

	var (
		err error
		db  = m.pool.Get()
	)

	err = db.ReminderAdd(rem, b)
	m.pool.Put(db)

	if err != nil {
		m.lock.Unlock()
		m.log.Printf("[ERROR] Cannot persist Reminder %q: %s\n",
			rem.Title,
			err.Error())
		return err
	}

	m.reminders[rem.ID] = rem
	m.bundles[rem.ID] = b
	m.lock.Unlock()

	m.log.Printf("[INFO] Registered %s for %s\n",
		rem.Dump(),
		b)

	m.startRecentReminder(now)

	return nil
} // func (m *Manager) PublishReminder(rem *objects.Reminder, b *objects.BundleOption) error

// CancelReminder unregisters a Reminder.
// If b is non-nil, the Reminder must belong to that application,
// cancelling other apps' reminders is not possible.
func (m *Manager) CancelReminder(id int64, b *objects.BundleOption) error {
	if !m.IsAlive() {
		return ErrNotReady
	}

	m.lock.Lock()

	var rem, ok = m.reminders[id]

	if !ok {
		m.lock.Unlock()
		return ErrReminderNotExist
	} else if b != nil && !m.bundles[id].SameApp(b) {
		m.lock.Unlock()
		m.log.Printf("[INFO] %s tried to cancel Reminder %d, which is not theirs\n",
			b,
			id)
		return ErrReminderNotExist
	}

	delete(m.reminders, id)
	delete(m.bundles, id)
	delete(m.showed, id)
	m.lock.Unlock()

	m.stopIfActive(rem)
	m.stopAlertIfRinging(rem)

	if rem.IsShowing() {
		if err := m.sink.Cancel(rem); err != nil {
			m.log.Printf("[ERROR] Cannot cancel notification of Reminder %d: %s\n",
				id,
				err.Error())
		}
	}

	var db = m.pool.Get()
	if err := db.ReminderDelete(id); err != nil {
		m.log.Printf("[ERROR] Cannot delete Reminder %d from database: %s\n",
			id,
			err.Error())
	}
	m.pool.Put(db)

	m.log.Printf("[INFO] Cancelled Reminder %d\n", id)

	m.startRecentReminder(time.Now())

	return nil
} // func (m *Manager) CancelReminder(id int64, b *objects.BundleOption) error

// CancelAllReminders unregisters all reminders of one application, or,
// if the bundle name is the AllPackages sentinel, all reminders of the
// bundle's user. It returns the number of reminders that were cancelled.
func (m *Manager) CancelAllReminders(b *objects.BundleOption) (int, error) {
	if !m.IsAlive() {
		return 0, ErrNotReady
	} else if b == nil || b.BundleName == "" {
		return 0, ErrInvalidReminder
	}

	var (
		victims []*objects.Reminder
		db      = m.pool.Get()
	)

	if b.BundleName == common.AllPackages {
		victims = m.removeMatching(func(id int64) bool {
			return m.bundles[id].UserID() == b.UserID()
		})
		if _, err := db.ReminderDeleteUser(b.UserID()); err != nil {
			m.log.Printf("[ERROR] Cannot delete reminders of user %d from database: %s\n",
				b.UserID(),
				err.Error())
		}
	} else {
		victims = m.removeMatching(func(id int64) bool {
			return m.bundles[id].SameApp(b)
		})
		if _, err := db.ReminderDeleteBundle(b); err != nil {
			m.log.Printf("[ERROR] Cannot delete reminders of %s from database: %s\n",
				b,
				err.Error())
		}
	}
	m.pool.Put(db)

	m.log.Printf("[INFO] Cancelled %d reminders of %s\n",
		len(victims),
		b)

	m.startRecentReminder(time.Now())

	return len(victims), nil
} // func (m *Manager) CancelAllReminders(b *objects.BundleOption) (int, error)

// removeMatching takes all reminders the predicate selects out of the
// containers and winds down their timers and notifications. The caller
// handles the database and the trigger timer afterwards.
func (m *Manager) removeMatching(match func(id int64) bool) []*objects.Reminder {
	var victims []*objects.Reminder

	m.lock.Lock()
	for id, rem := range m.reminders {
		if match(id) {
			victims = append(victims, rem)
			delete(m.reminders, id)
			delete(m.bundles, id)
			delete(m.showed, id)
		}
	}
	m.lock.Unlock()

	for _, rem := range victims {
		m.stopIfActive(rem)
		m.stopAlertIfRinging(rem)
		if rem.IsShowing() {
			m.sink.Cancel(rem) // nolint: errcheck
		}
	}

	return victims
} // func (m *Manager) removeMatching(match func(id int64) bool) []*objects.Reminder

// GetValidReminders returns the non-expired reminders of one
// application, ordered by trigger time.
func (m *Manager) GetValidReminders(b *objects.BundleOption) []*objects.Reminder {
	var list []*objects.Reminder

	m.lock.RLock()
	for id, rem := range m.reminders {
		if !rem.IsExpired() && m.bundles[id].SameApp(b) {
			list = append(list, rem)
		}
	}
	m.lock.RUnlock()

	sortByTrigger(list)

	return list
} // func (m *Manager) GetValidReminders(b *objects.BundleOption) []*objects.Reminder

// AllReminders returns a snapshot of every registered Reminder,
// ordered by trigger time.
func (m *Manager) AllReminders() []*objects.Reminder {
	var list []*objects.Reminder

	m.lock.RLock()
	for _, rem := range m.reminders {
		list = append(list, rem)
	}
	m.lock.RUnlock()

	sortByTrigger(list)

	return list
} // func (m *Manager) AllReminders() []*objects.Reminder

// SnoozeReminder reschedules a Reminder using its snooze interval.
// If the Reminder is currently alerting, the alert ends; a visible
// notification is republished with the snooze content.
func (m *Manager) SnoozeReminder(id int64) error {
	if !m.IsAlive() {
		return ErrNotReady
	}

	m.lock.RLock()
	var rem, ok = m.reminders[id]
	m.lock.RUnlock()

	if !ok {
		return ErrReminderNotExist
	}

	var now = time.Now()

	m.stopIfActive(rem)
	m.stopAlertIfRinging(rem)

	rem.OnSnooze(now)
	m.persist(rem)

	m.log.Printf("[INFO] Snoozed Reminder %d, next due at %s\n",
		id,
		rem.Due().Format(common.TimestampFormat))

	if rem.IsShowing() {
		if err := m.sink.Publish(rem, false); err != nil {
			m.log.Printf("[ERROR] Cannot republish snoozed Reminder %d: %s\n",
				id,
				err.Error())
		}
	}

	m.startRecentReminder(now)

	return nil
} // func (m *Manager) SnoozeReminder(id int64) error

// CloseReminder dismisses a Reminder's notification. Repeating
// reminders move on to their next occurrence.
func (m *Manager) CloseReminder(id int64) error {
	if !m.IsAlive() {
		return ErrNotReady
	}

	m.lock.RLock()
	var rem, ok = m.reminders[id]
	m.lock.RUnlock()

	if !ok {
		return ErrReminderNotExist
	}

	m.closeReminder(rem, true)
	m.startRecentReminder(time.Now())

	return nil
} // func (m *Manager) CloseReminder(id int64) error

func (m *Manager) closeReminder(rem *objects.Reminder, cancelNotification bool) {
	var now = time.Now()

	m.stopIfActive(rem)
	m.stopAlertIfRinging(rem)

	if rem.IsShowing() && cancelNotification {
		if err := m.sink.Cancel(rem); err != nil {
			m.log.Printf("[ERROR] Cannot cancel notification of Reminder %d: %s\n",
				rem.ID,
				err.Error())
		}
	}

	rem.OnClose(now, true)

	m.lock.Lock()
	delete(m.showed, rem.ID)
	m.lock.Unlock()

	m.persist(rem)
} // func (m *Manager) closeReminder(rem *objects.Reminder, cancelNotification bool)

//////////////////////////////////////////////////////////////////////////////////////////////////
/// System events ////////////////////////////////////////////////////////////////////////////////
//////////////////////////////////////////////////////////////////////////////////////////////////

// NotifyDateTimeChanged tells the engine the wall clock was set.
func (m *Manager) NotifyDateTimeChanged() {
	m.postEvent(event{kind: evDateTimeChanged})
} // func (m *Manager) NotifyDateTimeChanged()

// NotifyTimeZoneChanged tells the engine the timezone was changed.
func (m *Manager) NotifyTimeZoneChanged() {
	m.postEvent(event{kind: evTimeZoneChanged})
} // func (m *Manager) NotifyTimeZoneChanged()

// NotifyProcessDied tells the engine an application went away.
func (m *Manager) NotifyProcessDied(b *objects.BundleOption) {
	m.postEvent(event{kind: evProcessDied, bundle: b})
} // func (m *Manager) NotifyProcessDied(b *objects.BundleOption)

// SwitchUser tells the engine another user session is now active.
func (m *Manager) SwitchUser(userID int32) {
	m.postEvent(event{kind: evUserSwitch, userID: userID})
} // func (m *Manager) SwitchUser(userID int32)

// RemoveUser tells the engine a user account was deleted.
func (m *Manager) RemoveUser(userID int32) {
	m.postEvent(event{kind: evUserRemove, userID: userID})
} // func (m *Manager) RemoveUser(userID int32)

// SetDNDPeriod configures the do-not-disturb window for one user.
func (m *Manager) SetDNDPeriod(userID int32, dnd objects.DNDDate) {
	m.cfgLock.Lock()
	m.dnd[userID] = dnd
	m.cfgLock.Unlock()
} // func (m *Manager) SetDNDPeriod(userID int32, dnd objects.DNDDate)

// SetSlotConfig configures the presentation of one notification slot.
func (m *Manager) SetSlotConfig(s objects.Slot) {
	m.cfgLock.Lock()
	m.slots[s.Type] = s
	m.cfgLock.Unlock()
} // func (m *Manager) SetSlotConfig(s objects.Slot)

func (m *Manager) refreshSysTime(tzChange bool) {
	var now = time.Now()

	m.log.Printf("[INFO] System time changed (timezone: %t), refreshing all reminders\n",
		tzChange)

	m.timerLock.Lock()
	if m.activeRem != nil {
		m.stopTimer(m.triggerTimer)
		m.triggerTimer = 0
		m.activeRem.OnStop()
		m.activeRem = nil
	}
	m.timerLock.Unlock()

	var (
		showNow []*objects.Reminder
		closers []*objects.Reminder
		touched []*objects.Reminder
	)

	m.lock.Lock()
	for _, rem := range m.reminders {
		if rem.IsExpired() {
			continue
		}

		var (
			old         = rem.TriggerTime
			wasAlerting = rem.IsAlerting()
			immediate   bool
		)

		if tzChange {
			immediate = rem.OnTimeZoneChange(now)
		} else {
			immediate = rem.OnDateTimeChange(now)
		}

		if immediate {
			showNow = append(showNow, rem)
		} else if old != rem.TriggerTime || wasAlerting {
			closers = append(closers, rem)
		}

		touched = append(touched, rem)
	}
	m.lock.Unlock()

	for _, rem := range closers {
		m.closeReminder(rem, true)
	}

	sortByTrigger(showNow)

	m.showLock.Lock()
	var playSound = true
	for _, rem := range showNow {
		m.showReminder(rem, playSound, true)
		playSound = false
	}
	m.showLock.Unlock()

	for _, rem := range touched {
		m.persist(rem)
	}

	m.startRecentReminder(now)
} // func (m *Manager) refreshSysTime(tzChange bool)

func (m *Manager) handleProcessDied(b *objects.BundleOption) {
	if b == nil {
		return
	}

	var (
		now     = time.Now()
		victims []*objects.Reminder
	)

	m.lock.Lock()
	for id, rem := range m.showed {
		if m.bundles[id] != nil && m.bundles[id].SameApp(b) {
			victims = append(victims, rem)
			delete(m.showed, id)
		}
	}
	m.lock.Unlock()

	for _, rem := range victims {
		m.stopAlertIfRinging(rem)
		m.sink.Cancel(rem) // nolint: errcheck
		rem.OnClose(now, false)
		m.persist(rem)
	}

	if len(victims) > 0 {
		m.log.Printf("[INFO] Cleaned up %d notifications after %s went away\n",
			len(victims),
			b)
		m.startRecentReminder(now)
	}
} // func (m *Manager) handleProcessDied(b *objects.BundleOption)

func (m *Manager) handleUserSwitch(userID int32) {
	m.cfgLock.Lock()
	m.activeUser = userID
	m.cfgLock.Unlock()

	m.log.Printf("[INFO] Active user is now %d\n", userID)

	m.alertLock.Lock()
	var rem = m.alerting
	m.alertLock.Unlock()

	if rem != nil {
		m.terminateAlerting(rem.ID, "user switch")
	}
} // func (m *Manager) handleUserSwitch(userID int32)

func (m *Manager) handleUserRemove(userID int32) {
	var victims = m.removeMatching(func(id int64) bool {
		return m.bundles[id].UserID() == userID
	})

	var db = m.pool.Get()
	if _, err := db.ReminderDeleteUser(userID); err != nil {
		m.log.Printf("[ERROR] Cannot delete reminders of user %d from database: %s\n",
			userID,
			err.Error())
	}
	m.pool.Put(db)

	m.log.Printf("[INFO] Removed %d reminders of user %d\n",
		len(victims),
		userID)

	m.startRecentReminder(time.Now())
} // func (m *Manager) handleUserRemove(userID int32)

//////////////////////////////////////////////////////////////////////////////////////////////////
/// Scheduling core //////////////////////////////////////////////////////////////////////////////
//////////////////////////////////////////////////////////////////////////////////////////////////

// showActiveReminders is called when the trigger timer has fired,
// firedID naming the Reminder it was armed for. That Reminder is shown
// no matter how late the event loop gets around to it; all others due
// within one second of its trigger join the group. The first of the
// group rings, the rest stay silent.
func (m *Manager) showActiveReminders(firedID int64, sysTimeChanged bool) {
	var now = time.Now()

	m.showLock.Lock()
	defer m.showLock.Unlock()

	m.timerLock.Lock()
	if m.activeRem != nil {
		m.activeRem.OnStop()
		m.activeRem = nil
	}
	m.triggerTimer = 0
	m.timerLock.Unlock()

	var (
		due    []*objects.Reminder
		anchor = now.UnixMilli()
	)

	m.lock.RLock()
	var fired = m.reminders[firedID]
	if fired != nil && !fired.IsExpired() && fired.TriggerTime != objects.InvalidTime {
		anchor = fired.TriggerTime
		due = append(due, fired)
	} else {
		fired = nil
	}

	for _, rem := range m.reminders {
		if rem == fired || rem.IsExpired() || rem.TriggerTime == objects.InvalidTime {
			continue
		}

		var delta = rem.TriggerTime - anchor
		if delta < 0 {
			delta = -delta
		}

		if delta <= common.SameTimeWindowMillis {
			due = append(due, rem)
		}
	}
	m.lock.RUnlock()

	sortByTrigger(due)

	var playSound = true
	for _, rem := range due {
		m.showReminder(rem, playSound, sysTimeChanged)
		playSound = false
	}

	m.startRecentReminder(now)
} // func (m *Manager) showActiveReminders(firedID int64, sysTimeChanged bool)

// showReminder displays one Reminder. The caller holds the show lock.
func (m *Manager) showReminder(rem *objects.Reminder, playSound, sysTimeChanged bool) {
	var (
		now = time.Now()
		b   = m.bundleFor(rem.ID)
	)

	if b == nil {
		m.log.Printf("[CANTHAPPEN] Reminder %d has no BundleOption\n",
			rem.ID)
		b = &objects.BundleOption{}
	}

	if !sysTimeChanged && !rem.CanShow(now) {
		// The wall clock was rolled back between arming the trigger
		// timer and it going off.
		m.log.Printf("[WARN] Reminder %d is not due yet (%s), not showing it\n",
			rem.ID,
			rem.Due().Format(common.TimestampFormat))
		return
	}

	if !m.sink.AllowNotify(b) {
		m.log.Printf("[INFO] %s is not allowed to notify, Reminder %d stays parked\n",
			b,
			rem.ID)
		rem.OnShow(now, false, sysTimeChanged, false)
		return
	}

	var ring = playSound && m.shouldAlert(rem, b, now)

	if ring {
		// Only one Reminder may alert at a time.
		m.alertLock.Lock()
		var prev = m.alerting
		m.alertLock.Unlock()

		if prev != nil && prev != rem {
			m.terminateAlerting(prev.ID, "preempted")
		}
	}

	rem.OnShow(now, ring, sysTimeChanged, true)
	m.coverSameNotificationID(rem, b)

	if err := m.sink.Publish(rem, ring); err != nil {
		m.log.Printf("[ERROR] Cannot publish notification for Reminder %d: %s\n",
			rem.ID,
			err.Error())
		rem.OnShowFail()
		m.lock.Lock()
		delete(m.showed, rem.ID)
		m.lock.Unlock()
		m.persist(rem)
		return
	}

	m.lock.Lock()
	m.showed[rem.ID] = rem
	m.lock.Unlock()

	m.persist(rem)

	if ring {
		m.player.StartAlert(rem)

		var id = rem.ID

		m.alertLock.Lock()
		m.alerting = rem
		m.alertTimer = m.startTimer(
			time.Duration(rem.RingDurationMillis())*time.Millisecond,
			func() {
				m.postEvent(event{kind: evAlertTimeout, reminderID: id})
			})
		m.alertLock.Unlock()
	}
} // func (m *Manager) showReminder(rem *objects.Reminder, playSound, sysTimeChanged bool)

// coverSameNotificationID sweeps up visible reminders of the same app
// that reuse the notification id the new Reminder is about to claim.
func (m *Manager) coverSameNotificationID(rem *objects.Reminder, b *objects.BundleOption) {
	var victims []*objects.Reminder

	m.lock.Lock()
	for id, other := range m.showed {
		if id == rem.ID {
			continue
		}

		if other.NotificationID == rem.NotificationID &&
			m.bundles[id] != nil &&
			m.bundles[id].SameApp(b) {
			victims = append(victims, other)
			delete(m.showed, id)
		}
	}
	m.lock.Unlock()

	for _, other := range victims {
		m.stopAlertIfRinging(other)
		other.OnSameNotificationIDCovered()
		m.persist(other)
	}
} // func (m *Manager) coverSameNotificationID(rem *objects.Reminder, b *objects.BundleOption)

// terminateAlerting ends the alerting phase of the given Reminder,
// republishing its notification without sound.
// A Reminder that is not alerting (any more) is left alone.
func (m *Manager) terminateAlerting(id int64, reason string) {
	m.alertLock.Lock()

	var rem = m.alerting

	if rem == nil || (id != 0 && rem.ID != id) {
		m.alertLock.Unlock()
		return
	}

	m.stopTimer(m.alertTimer)
	m.alertTimer = 0
	m.alerting = nil
	m.alertLock.Unlock()

	m.player.StopAlert(rem)

	if !rem.OnTerminate() {
		m.log.Printf("[DEBUG] Reminder %d was not alerting (%s), nothing to do\n",
			rem.ID,
			reason)
		return
	}

	m.log.Printf("[DEBUG] Alert of Reminder %d ends (%s)\n",
		rem.ID,
		reason)

	if rem.IsShowing() {
		if err := m.sink.Publish(rem, false); err != nil {
			m.log.Printf("[ERROR] Cannot republish Reminder %d after alert: %s\n",
				rem.ID,
				err.Error())
		}
	}

	m.persist(rem)
} // func (m *Manager) terminateAlerting(id int64, reason string)

// stopAlertIfRinging silences a Reminder without republishing its
// notification.
func (m *Manager) stopAlertIfRinging(rem *objects.Reminder) {
	m.alertLock.Lock()

	if m.alerting != rem {
		m.alertLock.Unlock()
		return
	}

	m.stopTimer(m.alertTimer)
	m.alertTimer = 0
	m.alerting = nil
	m.alertLock.Unlock()

	m.player.StopAlert(rem)
	rem.OnTerminate()
} // func (m *Manager) stopAlertIfRinging(rem *objects.Reminder)

// stopIfActive disarms the trigger timer if it is armed for the given
// Reminder.
func (m *Manager) stopIfActive(rem *objects.Reminder) {
	m.timerLock.Lock()
	defer m.timerLock.Unlock()

	if m.activeRem != rem {
		return
	}

	m.stopTimer(m.triggerTimer)
	m.triggerTimer = 0
	m.activeRem = nil
	rem.OnStop()
} // func (m *Manager) stopIfActive(rem *objects.Reminder)

// startRecentReminder arms the trigger timer for the most imminent
// Reminder, replacing the currently armed one if they differ.
func (m *Manager) startRecentReminder(now time.Time) {
	var recent = m.getRecentReminder(now)

	m.timerLock.Lock()
	defer m.timerLock.Unlock()

	if recent == m.activeRem {
		return
	}

	if m.activeRem != nil {
		m.stopTimer(m.triggerTimer)
		m.triggerTimer = 0
		m.activeRem.OnStop()
		m.persist(m.activeRem)
		m.activeRem = nil
	}

	if recent == nil {
		return
	}

	recent.OnStart()
	m.persist(recent)
	m.activeRem = recent

	var delay = time.Duration(recent.TriggerTime-now.UnixMilli()) * time.Millisecond
	if delay < 0 {
		delay = 0
	}

	var firedID = recent.ID
	m.triggerTimer = m.startTimer(delay, func() {
		m.postEvent(event{kind: evTriggerFired, reminderID: firedID})
	})

	m.log.Printf("[DEBUG] Reminder %d is armed, due at %s\n",
		recent.ID,
		recent.Due().Format(common.TimestampFormat))
} // func (m *Manager) startRecentReminder(now time.Time)

// getRecentReminder returns the Reminder with the earliest trigger
// time that still lies ahead. Expired reminders that hold no other
// role are evicted along the way; overdue ones stay parked until a
// refresh or a show picks them up.
func (m *Manager) getRecentReminder(now time.Time) *objects.Reminder {
	var (
		victims []int64
		list    []*objects.Reminder
		nowMs   = now.UnixMilli()
	)

	m.lock.Lock()
	for id, rem := range m.reminders {
		if rem.IsExpired() {
			if rem.CanRemove() {
				victims = append(victims, id)
				delete(m.reminders, id)
				delete(m.bundles, id)
				delete(m.showed, id)
			}
			continue
		}

		if rem.TriggerTime == objects.InvalidTime || rem.TriggerTime <= nowMs {
			continue
		}

		list = append(list, rem)
	}
	m.lock.Unlock()

	if len(victims) > 0 {
		var db = m.pool.Get()
		for _, id := range victims {
			if err := db.ReminderDelete(id); err != nil {
				m.log.Printf("[ERROR] Cannot evict expired Reminder %d: %s\n",
					id,
					err.Error())
			}
		}
		m.pool.Put(db)

		m.log.Printf("[DEBUG] Evicted %d expired reminders\n",
			len(victims))
	}

	if len(list) == 0 {
		return nil
	}

	sortByTrigger(list)

	return list[0]
} // func (m *Manager) getRecentReminder(now time.Time) *objects.Reminder

//////////////////////////////////////////////////////////////////////////////////////////////////
/// Startup //////////////////////////////////////////////////////////////////////////////////////
//////////////////////////////////////////////////////////////////////////////////////////////////

func (m *Manager) loadFromDB() error {
	var (
		err error
		db  = m.pool.Get()
		all []*objects.Reminder
	)
	defer m.pool.Put(db)

	if all, err = db.ReminderGetAll(); err != nil {
		m.log.Printf("[ERROR] Cannot load reminders from database: %s\n",
			err.Error())
		return err
	}

	m.lock.Lock()
	for _, rem := range all {
		var b *objects.BundleOption

		if b, err = db.ReminderGetBundle(rem.ID); err != nil {
			m.log.Printf("[ERROR] Cannot load BundleOption of Reminder %d: %s\n",
				rem.ID,
				err.Error())
			continue
		}

		// Nothing is on screen after a restart.
		rem.State &^= objects.StatusActive | objects.StatusShowing | objects.StatusAlerting

		m.reminders[rem.ID] = rem
		m.bundles[rem.ID] = b
	}
	var cnt = len(m.reminders)
	m.lock.Unlock()

	m.log.Printf("[INFO] Loaded %d reminders from database\n", cnt)

	return nil
} // func (m *Manager) loadFromDB() error

// onServiceStart replays reminders that came due while the engine was
// down, then arms the trigger timer.
func (m *Manager) onServiceStart() {
	var (
		now     = time.Now()
		showNow []*objects.Reminder
	)

	m.lock.RLock()
	for _, rem := range m.reminders {
		if rem.ShouldShowImmediately(now) {
			showNow = append(showNow, rem)
		}
	}
	m.lock.RUnlock()

	sortByTrigger(showNow)

	m.showLock.Lock()
	var playSound = true
	for _, rem := range showNow {
		m.showReminder(rem, playSound, false)
		playSound = false
	}
	m.showLock.Unlock()

	m.startRecentReminder(now)
} // func (m *Manager) onServiceStart()

//////////////////////////////////////////////////////////////////////////////////////////////////
/// Helpers //////////////////////////////////////////////////////////////////////////////////////
//////////////////////////////////////////////////////////////////////////////////////////////////

func (m *Manager) shouldAlert(rem *objects.Reminder, b *objects.BundleOption, now time.Time) bool {
	m.cfgLock.RLock()
	defer m.cfgLock.RUnlock()

	if b.UserID() != m.activeUser {
		return false
	}

	var dnd = m.dnd[b.UserID()]

	if dnd.Active(now) && !m.slots[rem.Slot].BypassDND {
		return false
	}

	return true
} // func (m *Manager) shouldAlert(rem *objects.Reminder, b *objects.BundleOption, now time.Time) bool

func (m *Manager) bundleFor(id int64) *objects.BundleOption {
	m.lock.RLock()
	var b = m.bundles[id]
	m.lock.RUnlock()

	return b
} // func (m *Manager) bundleFor(id int64) *objects.BundleOption

func (m *Manager) persist(rem *objects.Reminder) {
	var db = m.pool.Get()
	defer m.pool.Put(db)

	if err := db.ReminderUpdate(rem); err != nil {
		m.log.Printf("[ERROR] Cannot persist Reminder %d: %s\n",
			rem.ID,
			err.Error())
	}
} // func (m *Manager) persist(rem *objects.Reminder)

func (m *Manager) startTimer(delay time.Duration, fire func()) int64 {
	if m.timer == nil {
		m.log.Println("[CANTHAPPEN] No timer facility, cannot arm timer")
		return 0
	}

	return m.timer.Start(delay, fire)
} // func (m *Manager) startTimer(delay time.Duration, fire func()) int64

func (m *Manager) stopTimer(id int64) {
	if m.timer == nil || id == 0 {
		return
	}

	m.timer.Stop(id)
} // func (m *Manager) stopTimer(id int64)

func sortByTrigger(list []*objects.Reminder) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].TriggerTime != list[j].TriggerTime {
			return list[i].TriggerTime < list[j].TriggerTime
		}
		return list[i].ID < list[j].ID
	})
} // func sortByTrigger(list []*objects.Reminder)
