// /home/krylon/go/src/github.com/blicero/mnemosyne/database/02_database_crud_test.go
// -*- mode: go; coding: utf-8; -*-
// Created on 12. 02. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-17 22:02:36 krylon>

package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/blicero/mnemosyne/common"
	"github.com/blicero/mnemosyne/objects"
)

const itemCnt = 32

var (
	items  []*objects.Reminder
	bundle = objects.BundleOption{
		BundleName: "com.example.clock",
		UID:        20010042,
	}
)

func init() {
	items = make([]*objects.Reminder, itemCnt)

	var now = time.Now()

	for i := range items {
		var r = objects.NewTimer(int64(60*(i+1)), now)

		r.Title = fmt.Sprintf("TEST #%03d", i)
		r.Content = fmt.Sprintf("This is just another test, the %dth one",
			i+1)
		r.NotificationID = int64(i + 1)

		items[i] = r
	}
}

func TestReminderAdd(t *testing.T) {
	if db == nil {
		t.SkipNow()
	}

	for _, r := range items {
		var err error

		if err = db.ReminderAdd(r, &bundle); err != nil {
			t.Fatalf("Cannot add Reminder %s: %s",
				r.Title,
				err.Error())
		} else if r.ID == 0 {
			t.Errorf("ID of Reminder %q is 0", r.Title)
		} else if r.UserID != bundle.UserID() {
			t.Errorf("Reminder %q got user ID %d, expected %d",
				r.Title,
				r.UserID,
				bundle.UserID())
		}
	}
} // func TestReminderAdd(t *testing.T)

func TestReminderGetAll(t *testing.T) {
	if db == nil {
		t.SkipNow()
	}

	var (
		err error
		rem []*objects.Reminder
	)

	if rem, err = db.ReminderGetAll(); err != nil {
		t.Fatalf("Cannot fetch all Reminders: %s",
			err.Error())
	} else if len(rem) != len(items) {
		t.Fatalf("Unexpected number of Reminders: %d (expected %d)",
			len(rem),
			len(items))
	}

	for i := 1; i < len(rem); i++ {
		if rem[i-1].TriggerTime > rem[i].TriggerTime {
			t.Errorf("Reminders are not sorted by trigger time: %d > %d",
				rem[i-1].TriggerTime,
				rem[i].TriggerTime)
		}
	}
} // func TestReminderGetAll(t *testing.T)

func TestReminderGetByID(t *testing.T) {
	if db == nil {
		t.SkipNow()
	}

	var (
		err error
		ref = items[0]
		r   *objects.Reminder
	)

	if r, err = db.ReminderGetByID(ref.ID); err != nil {
		t.Fatalf("Cannot fetch Reminder %d: %s",
			ref.ID,
			err.Error())
	} else if r == nil {
		t.Fatalf("Reminder %d was not found", ref.ID)
	} else if r.UUID != ref.UUID {
		t.Errorf("Fetched Reminder has UUID %s, expected %s",
			r.UUID,
			ref.UUID)
	} else if r.Kind != ref.Kind {
		t.Errorf("Fetched Reminder has Kind %s, expected %s",
			r.Kind,
			ref.Kind)
	} else if r.TriggerTime != ref.TriggerTime {
		t.Errorf("Fetched Reminder is due at %d, expected %d",
			r.TriggerTime,
			ref.TriggerTime)
	}

	if r, err = db.ReminderGetByID(1 << 30); err != nil {
		t.Errorf("Looking up a non-existing Reminder should not fail: %s",
			err.Error())
	} else if r != nil {
		t.Errorf("Looking up a non-existing Reminder returned %s",
			r.Dump())
	}
} // func TestReminderGetByID(t *testing.T)

func TestReminderGetBundle(t *testing.T) {
	if db == nil {
		t.SkipNow()
	}

	var (
		err error
		b   *objects.BundleOption
	)

	if b, err = db.ReminderGetBundle(items[0].ID); err != nil {
		t.Fatalf("Cannot fetch BundleOption for Reminder %d: %s",
			items[0].ID,
			err.Error())
	} else if !b.SameApp(&bundle) {
		t.Errorf("Fetched BundleOption %s does not match %s",
			b,
			&bundle)
	}
} // func TestReminderGetBundle(t *testing.T)

func TestReminderUpdate(t *testing.T) {
	if db == nil {
		t.SkipNow()
	}

	var (
		err error
		ref = items[1]
		r   *objects.Reminder
	)

	ref.OnShow(time.Now(), true, false, true)

	if err = db.ReminderUpdate(ref); err != nil {
		t.Fatalf("Cannot update Reminder %d: %s",
			ref.ID,
			err.Error())
	} else if r, err = db.ReminderGetByID(ref.ID); err != nil {
		t.Fatalf("Cannot fetch Reminder %d: %s",
			ref.ID,
			err.Error())
	} else if r.State != ref.State {
		t.Errorf("Updated Reminder has state %02x, expected %02x",
			r.State,
			ref.State)
	} else if r.Expired != ref.Expired {
		t.Errorf("Updated Reminder has Expired = %t, expected %t",
			r.Expired,
			ref.Expired)
	} else if !common.TimeEqual(r.Changed, ref.Changed) {
		t.Errorf("Updated Reminder was changed at %s, expected %s",
			r.Changed.Format(common.TimestampFormat),
			ref.Changed.Format(common.TimestampFormat))
	}
} // func TestReminderUpdate(t *testing.T)

func TestReminderDelete(t *testing.T) {
	if db == nil {
		t.SkipNow()
	}

	var err error

	if err = db.ReminderDelete(items[2].ID); err != nil {
		t.Fatalf("Cannot delete Reminder %d: %s",
			items[2].ID,
			err.Error())
	}

	var r *objects.Reminder

	if r, err = db.ReminderGetByID(items[2].ID); err != nil {
		t.Fatalf("Cannot look for deleted Reminder %d: %s",
			items[2].ID,
			err.Error())
	} else if r != nil {
		t.Errorf("Deleted Reminder %d is still there: %s",
			items[2].ID,
			r.Dump())
	}
} // func TestReminderDelete(t *testing.T)

func TestReminderDeleteBundle(t *testing.T) {
	if db == nil {
		t.SkipNow()
	}

	var (
		err error
		cnt int64
		// A different user, same bundle name. Its reminders must
		// survive the purge below.
		other = objects.BundleOption{
			BundleName: bundle.BundleName,
			UID:        bundle.UID + common.UserIDBase,
		}
		stray = objects.NewTimer(3600, time.Now())
	)

	stray.Title = "Stray"

	if err = db.ReminderAdd(stray, &other); err != nil {
		t.Fatalf("Cannot add Reminder for second user: %s",
			err.Error())
	}

	if cnt, err = db.ReminderDeleteBundle(&bundle); err != nil {
		t.Fatalf("Cannot delete reminders of %s: %s",
			&bundle,
			err.Error())
	} else if cnt != itemCnt-1 {
		t.Errorf("Unexpected number of deleted reminders: %d (expected %d)",
			cnt,
			itemCnt-1)
	}

	if cnt, err = db.ReminderDeleteUser(other.UserID()); err != nil {
		t.Fatalf("Cannot delete reminders of user %d: %s",
			other.UserID(),
			err.Error())
	} else if cnt != 1 {
		t.Errorf("Unexpected number of deleted reminders: %d (expected 1)",
			cnt)
	}
} // func TestReminderDeleteBundle(t *testing.T)
