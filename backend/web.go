// /home/krylon/go/src/github.com/blicero/mnemosyne/backend/web.go
// -*- mode: go; coding: utf-8; -*-
// Created on 19. 02. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-18 20:52:33 krylon>

package backend

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/blicero/mnemosyne/objects"
	"github.com/pquerna/ffjson/ffjson"
)

func (d *Daemon) initWebHandlers() error {
	d.router.HandleFunc("/reminder/publish", d.handleReminderPublish)
	d.router.HandleFunc("/reminder/cancelall", d.handleReminderCancelAll)
	d.router.HandleFunc("/reminder/valid", d.handleReminderGetValid)
	d.router.HandleFunc("/reminder/all", d.handleReminderGetAll)
	d.router.HandleFunc("/reminder/{id:(?:\\d+)}/cancel", d.handleReminderCancel)
	d.router.HandleFunc("/reminder/{id:(?:\\d+)}/snooze", d.handleReminderSnooze)
	d.router.HandleFunc("/reminder/{id:(?:\\d+)}/close", d.handleReminderClose)

	return nil
} // func (d *Daemon) initWebHandlers() error

func (d *Daemon) serveHTTP() {
	var err error

	defer d.log.Println("[INFO] Web server is shutting down")

	d.log.Printf("[INFO] Web interface is going online at %s\n", d.web.Addr)

	if err = d.web.ListenAndServe(); err != nil {
		if err != http.ErrServerClosed {
			d.log.Printf("[ERROR] ListenAndServe returned an error: %s\n",
				err.Error())
		} else {
			d.log.Println("[INFO] HTTP Server has shut down.")
		}
	}
} // func (d *Daemon) serveHTTP()

func (d *Daemon) handleReminderPublish(w http.ResponseWriter, r *http.Request) {
	d.log.Printf("[TRACE] Handle %s from %s\n",
		r.URL,
		r.RemoteAddr)

	var (
		err      error
		rem      *objects.Reminder
		b        objects.BundleOption
		msg      string
		now      = time.Now()
		response = objects.Response{ID: d.getID()}
	)

	if err = r.ParseForm(); err != nil {
		d.log.Printf("[ERROR] Cannot parse form data: %s\n",
			err.Error())
		response.Message = err.Error()
		goto SEND_RESPONSE
	}

	b.BundleName = r.PostFormValue("bundle")
	b.UID = formInt32(r, "uid")

	switch strings.ToLower(r.PostFormValue("kind")) {
	case "timer":
		rem = objects.NewTimer(formInt64(r, "countdown"), now)
	case "alarm":
		var days = objects.WeekdaysFromBitfield(uint8(formInt64(r, "weekdays")))
		rem = objects.NewAlarm(
			uint8(formInt64(r, "hour")),
			uint8(formInt64(r, "minute")),
			days,
			now)
	case "calendar":
		var date time.Time
		if date, err = time.Parse(time.RFC3339, r.PostFormValue("date")); err != nil {
			msg = fmt.Sprintf("Cannot parse date %q: %s",
				r.PostFormValue("date"),
				err.Error())
			d.log.Printf("[ERROR] %s\n", msg)
			response.Message = msg
			goto SEND_RESPONSE
		}
		rem = objects.NewCalendar(
			date,
			uint16(formInt64(r, "repeat_months")),
			uint32(formInt64(r, "repeat_days")),
			now)
	default:
		msg = fmt.Sprintf("Unknown reminder kind %q",
			r.PostFormValue("kind"))
		d.log.Printf("[ERROR] %s\n", msg)
		response.Message = msg
		goto SEND_RESPONSE
	}

	rem.Title = r.PostFormValue("title")
	rem.Content = r.PostFormValue("body")
	rem.ExpiredContent = r.PostFormValue("expired_body")
	rem.SnoozeContent = r.PostFormValue("snooze_body")
	rem.NotificationID = formInt64(r, "notification_id")
	rem.Slot = objects.SlotType(formInt64(r, "slot"))
	rem.SnoozeTimes = int(formInt64(r, "snooze_times"))
	rem.TimeInterval = formInt64(r, "interval")

	if v := formInt64(r, "ring_duration"); v > 0 {
		rem.RingDuration = v
	}

	if err = d.mgr.PublishReminder(rem, &b); err != nil {
		msg = fmt.Sprintf("Cannot register Reminder %q: %s",
			rem.Title,
			err.Error())
		d.log.Printf("[ERROR] %s\n", msg)
		response.Message = msg
		goto SEND_RESPONSE
	}

	response.Message = fmt.Sprintf("%d", rem.ID)
	response.Status = true

SEND_RESPONSE:
	d.sendResponseJSON(w, &response)
} // func (d *Daemon) handleReminderPublish(w http.ResponseWriter, r *http.Request)

func (d *Daemon) handleReminderCancel(w http.ResponseWriter, r *http.Request) {
	d.log.Printf("[TRACE] Handle %s from %s\n",
		r.URL,
		r.RemoteAddr)

	var (
		err error
		id  int64
		b   *objects.BundleOption
		msg string
		res = objects.Response{ID: d.getID()}
	)

	if id, err = pathID(r); err != nil {
		msg = fmt.Sprintf("Cannot parse Reminder ID: %s",
			err.Error())
		d.log.Printf("[CANTHAPPEN] %s\n", msg)
		res.Message = msg
		goto SEND_RESPONSE
	}

	if err = r.ParseForm(); err != nil {
		msg = fmt.Sprintf("Cannot parse form data: %s",
			err.Error())
		d.log.Printf("[ERROR] %s\n", msg)
		res.Message = msg
		goto SEND_RESPONSE
	}

	if name := r.FormValue("bundle"); name != "" {
		b = &objects.BundleOption{
			BundleName: name,
			UID:        formInt32(r, "uid"),
		}
	}

	if err = d.mgr.CancelReminder(id, b); err != nil {
		if errors.Is(err, ErrReminderNotExist) {
			msg = fmt.Sprintf("Reminder %d does not exist", id)
			d.log.Printf("[DEBUG] %s\n", msg)
		} else {
			msg = fmt.Sprintf("Cannot cancel Reminder %d: %s",
				id,
				err.Error())
			d.log.Printf("[ERROR] %s\n", msg)
		}
		res.Message = msg
		goto SEND_RESPONSE
	}

	res.Message = fmt.Sprintf("Reminder %d was cancelled", id)
	res.Status = true

SEND_RESPONSE:
	d.sendResponseJSON(w, &res)
} // func (d *Daemon) handleReminderCancel(w http.ResponseWriter, r *http.Request)

func (d *Daemon) handleReminderCancelAll(w http.ResponseWriter, r *http.Request) {
	d.log.Printf("[TRACE] Handle %s from %s\n",
		r.URL,
		r.RemoteAddr)

	var (
		err error
		cnt int
		msg string
		b   objects.BundleOption
		res = objects.Response{ID: d.getID()}
	)

	if err = r.ParseForm(); err != nil {
		msg = fmt.Sprintf("Cannot parse form data: %s",
			err.Error())
		d.log.Printf("[ERROR] %s\n", msg)
		res.Message = msg
		goto SEND_RESPONSE
	}

	b.BundleName = r.FormValue("bundle")
	b.UID = formInt32(r, "uid")

	if cnt, err = d.mgr.CancelAllReminders(&b); err != nil {
		msg = fmt.Sprintf("Cannot cancel reminders of %s: %s",
			&b,
			err.Error())
		d.log.Printf("[ERROR] %s\n", msg)
		res.Message = msg
		goto SEND_RESPONSE
	}

	res.Message = fmt.Sprintf("%d reminders were cancelled", cnt)
	res.Status = true

SEND_RESPONSE:
	d.sendResponseJSON(w, &res)
} // func (d *Daemon) handleReminderCancelAll(w http.ResponseWriter, r *http.Request)

func (d *Daemon) handleReminderGetValid(w http.ResponseWriter, r *http.Request) {
	d.log.Printf("[TRACE] Handle %s from %s\n",
		r.URL,
		r.RemoteAddr)

	var (
		err       error
		b         objects.BundleOption
		reminders []*objects.Reminder
		buf       []byte
	)

	if err = r.ParseForm(); err != nil {
		d.log.Printf("[ERROR] Cannot parse form data: %s\n",
			err.Error())
	}

	b.BundleName = r.FormValue("bundle")
	b.UID = formInt32(r, "uid")

	reminders = d.mgr.GetValidReminders(&b)

	if buf, err = ffjson.Marshal(reminders); err != nil {
		d.log.Printf("[ERROR] Cannot serialize Reminder list: %s\n",
			err.Error())
	}

	defer ffjson.Pool(buf)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	w.Write(buf) // nolint: errcheck
} // func (d *Daemon) handleReminderGetValid(w http.ResponseWriter, r *http.Request)

func (d *Daemon) handleReminderGetAll(w http.ResponseWriter, r *http.Request) {
	d.log.Printf("[TRACE] Handle %s from %s\n",
		r.URL,
		r.RemoteAddr)

	var (
		err       error
		reminders []*objects.Reminder
		buf       []byte
	)

	reminders = d.mgr.AllReminders()

	if buf, err = ffjson.Marshal(reminders); err != nil {
		d.log.Printf("[ERROR] Cannot serialize Reminder list: %s\n",
			err.Error())
	}

	defer ffjson.Pool(buf)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	w.Write(buf) // nolint: errcheck
} // func (d *Daemon) handleReminderGetAll(w http.ResponseWriter, r *http.Request)

func (d *Daemon) handleReminderSnooze(w http.ResponseWriter, r *http.Request) {
	d.log.Printf("[TRACE] Handle %s from %s\n",
		r.URL,
		r.RemoteAddr)

	var (
		err error
		id  int64
		msg string
		res = objects.Response{ID: d.getID()}
	)

	if id, err = pathID(r); err != nil {
		msg = fmt.Sprintf("Cannot parse Reminder ID: %s",
			err.Error())
		d.log.Printf("[CANTHAPPEN] %s\n", msg)
		res.Message = msg
		goto SEND_RESPONSE
	}

	if err = d.mgr.SnoozeReminder(id); err != nil {
		msg = fmt.Sprintf("Cannot snooze Reminder %d: %s",
			id,
			err.Error())
		d.log.Printf("[ERROR] %s\n", msg)
		res.Message = msg
		goto SEND_RESPONSE
	}

	res.Message = fmt.Sprintf("Reminder %d was snoozed", id)
	res.Status = true

SEND_RESPONSE:
	d.sendResponseJSON(w, &res)
} // func (d *Daemon) handleReminderSnooze(w http.ResponseWriter, r *http.Request)

func (d *Daemon) handleReminderClose(w http.ResponseWriter, r *http.Request) {
	d.log.Printf("[TRACE] Handle %s from %s\n",
		r.URL,
		r.RemoteAddr)

	var (
		err error
		id  int64
		msg string
		res = objects.Response{ID: d.getID()}
	)

	if id, err = pathID(r); err != nil {
		msg = fmt.Sprintf("Cannot parse Reminder ID: %s",
			err.Error())
		d.log.Printf("[CANTHAPPEN] %s\n", msg)
		res.Message = msg
		goto SEND_RESPONSE
	}

	if err = d.mgr.CloseReminder(id); err != nil {
		msg = fmt.Sprintf("Cannot close Reminder %d: %s",
			id,
			err.Error())
		d.log.Printf("[ERROR] %s\n", msg)
		res.Message = msg
		goto SEND_RESPONSE
	}

	res.Message = fmt.Sprintf("Reminder %d was closed", id)
	res.Status = true

SEND_RESPONSE:
	d.sendResponseJSON(w, &res)
} // func (d *Daemon) handleReminderClose(w http.ResponseWriter, r *http.Request)

//////////////////////////////////////////////////////////////////////////////////////////////////
/// Helpers //////////////////////////////////////////////////////////////////////////////////////
//////////////////////////////////////////////////////////////////////////////////////////////////

func (d *Daemon) sendResponseJSON(w http.ResponseWriter, res *objects.Response) {
	var (
		err error
		buf []byte
	)

	if buf, err = ffjson.Marshal(res); err != nil {
		d.log.Printf("[ERROR] Cannot serialize Response object %#v: %s\n",
			res,
			err.Error())
		return
	}

	defer ffjson.Pool(buf)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	w.Write(buf) // nolint: errcheck
} // func (d *Daemon) sendResponseJSON(w http.ResponseWriter, res *objects.Response)

func (d *Daemon) getID() int64 {
	d.idLock.Lock()
	d.idCnt++
	var id = d.idCnt
	d.idLock.Unlock()
	return id
} // func (d *Daemon) getID() int64
