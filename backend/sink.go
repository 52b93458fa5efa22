// /home/krylon/go/src/github.com/blicero/mnemosyne/backend/sink.go
// -*- mode: go; coding: utf-8; -*-
// Created on 18. 02. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-16 20:11:26 krylon>

package backend

import (
	"fmt"
	"log"
	"sync"

	"github.com/blicero/mnemosyne/common"
	"github.com/blicero/mnemosyne/logdomain"
	"github.com/blicero/mnemosyne/objects"
	"github.com/godbus/dbus/v5"
)

const (
	notifyObj   = "org.freedesktop.Notifications"
	notifyPath  = "/org/freedesktop/Notifications"
	notifyCall  = "org.freedesktop.Notifications.Notify"
	notifyClose = "org.freedesktop.Notifications.CloseNotification"
)

// NotificationSink is where reminders go when their time has come.
// The production implementation posts desktop notifications via DBus,
// the tests substitute their own.
//
// Publish displays the Reminder's notification, replacing a previously
// published one for the same Reminder if there is one.
// Cancel takes the Reminder's notification off the screen.
// AllowNotify tells whether the given application is currently allowed
// to notify the user at all.
type NotificationSink interface {
	Publish(r *objects.Reminder, playSound bool) error
	Cancel(r *objects.Reminder) error
	AllowNotify(b *objects.BundleOption) bool
}

// DBusSink posts notifications to the freedesktop notification daemon
// on the session bus.
type DBusSink struct {
	log     *log.Logger
	bus     *dbus.Conn
	lock    sync.Mutex
	handles map[int64]uint32
	blocked map[string]bool
}

// NewDBusSink connects to the session bus and returns a DBusSink.
func NewDBusSink() (*DBusSink, error) {
	var (
		err error
		s   = &DBusSink{
			handles: make(map[int64]uint32),
			blocked: make(map[string]bool),
		}
	)

	if s.log, err = common.GetLogger(logdomain.Backend); err != nil {
		return nil, err
	} else if s.bus, err = dbus.SessionBus(); err != nil {
		s.log.Printf("[ERROR] Failed to connect to DBus session bus: %s\n",
			err.Error())
		return nil, err
	}

	return s, nil
} // func NewDBusSink() (*DBusSink, error)

// Publish displays the Reminder as a desktop notification.
func (s *DBusSink) Publish(r *objects.Reminder, playSound bool) error {
	var (
		err      error
		replaces uint32
		notifyID uint32
	)

	s.lock.Lock()
	replaces = s.handles[r.ID]
	s.lock.Unlock()

	if notifyID, err = s.post(r, replaces, playSound); err != nil {
		return err
	}

	s.lock.Lock()
	s.handles[r.ID] = notifyID
	s.lock.Unlock()

	return nil
} // func (s *DBusSink) Publish(r *objects.Reminder, playSound bool) error

// post sends one Notification to the freedesktop daemon and returns the
// handle it assigned. A non-zero replaces makes the daemon update the
// existing notification in place.
func (s *DBusSink) post(n objects.Notification, replaces uint32, playSound bool) (uint32, error) {
	var (
		err        error
		obj        = s.bus.Object(notifyObj, notifyPath)
		head, body string
		notifyID   uint32
		hints      = make(map[string]dbus.Variant, 2)
	)

	if obj == nil {
		err = fmt.Errorf("Did not find object %s (%s) on session bus",
			notifyObj,
			notifyPath)
		s.log.Printf("[ERROR] %s\n", err.Error())
		return 0, err
	}

	head, body = n.Payload()

	if !playSound {
		hints["suppress-sound"] = dbus.MakeVariant(true)
	}
	hints["urgency"] = dbus.MakeVariant(byte(1))

	var res = obj.Call(
		notifyCall,
		0,
		common.AppName,
		replaces,
		"",
		head,
		body,
		[]string{},
		hints,
		int32(-1),
	)

	if res.Err != nil {
		s.log.Printf("[ERROR] Cannot send notification %q: %s\n",
			head,
			res.Err.Error())
		return 0, res.Err
	} else if err = res.Store(&notifyID); err != nil {
		s.log.Printf("[ERROR] Cannot read notification handle for %q: %s\n",
			head,
			err.Error())
		return 0, err
	}

	return notifyID, nil
} // func (s *DBusSink) post(n objects.Notification, replaces uint32, playSound bool) (uint32, error)

// Cancel removes the Reminder's notification from the screen.
func (s *DBusSink) Cancel(r *objects.Reminder) error {
	var (
		notifyID uint32
		ok       bool
	)

	s.lock.Lock()
	notifyID, ok = s.handles[r.ID]
	delete(s.handles, r.ID)
	s.lock.Unlock()

	if !ok {
		return nil
	}

	var (
		obj = s.bus.Object(notifyObj, notifyPath)
		res = obj.Call(notifyClose, 0, notifyID)
	)

	if res.Err != nil {
		s.log.Printf("[ERROR] Cannot close notification %d: %s\n",
			notifyID,
			res.Err.Error())
		return res.Err
	}

	return nil
} // func (s *DBusSink) Cancel(r *objects.Reminder) error

// AllowNotify tells whether the application may notify the user.
func (s *DBusSink) AllowNotify(b *objects.BundleOption) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	return !s.blocked[b.BundleName]
} // func (s *DBusSink) AllowNotify(b *objects.BundleOption) bool

// BlockBundle revokes (or, with allowed = true, restores) an
// application's permission to notify the user.
func (s *DBusSink) BlockBundle(name string, allowed bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if allowed {
		delete(s.blocked, name)
	} else {
		s.blocked[name] = true
	}
} // func (s *DBusSink) BlockBundle(name string, allowed bool)
