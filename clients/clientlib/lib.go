// /home/krylon/go/src/github.com/blicero/mnemosyne/clients/clientlib/lib.go
// -*- mode: go; coding: utf-8; -*-
// Created on 04. 03. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-19 18:05:31 krylon>

// Package clientlib provides the basic framework for building clients
// that talk to the Reminder daemon over its web interface.
package clientlib

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/blicero/mnemosyne/common"
	"github.com/blicero/mnemosyne/logdomain"
	"github.com/blicero/mnemosyne/objects"
	"github.com/blicero/mnemosyne/objects/kind"
	"github.com/pquerna/ffjson/ffjson"
)

// Client implements the fundamental communication with the daemon.
type Client struct {
	Server *url.URL
	Client http.Client
	Bundle objects.BundleOption
	log    *log.Logger
}

// NewClient creates a new Client that registers its reminders under
// the given bundle.
func NewClient(srv string, b objects.BundleOption) (*Client, error) {
	var (
		err error
		c   = &Client{
			Client: http.Client{
				Timeout: time.Second * 10,
			},
			Bundle: b,
		}
	)

	if c.log, err = common.GetLogger(logdomain.Client); err != nil {
		fmt.Fprintf(
			os.Stderr,
			"Cannot create Logger: %s\n",
			err.Error())
		return nil, err
	} else if c.Server, err = url.Parse(srv); err != nil {
		c.log.Printf("[ERROR] Cannot parse URL %q: %s\n",
			srv,
			err.Error())
		return nil, err
	}

	c.Server.Scheme = "http"

	return c, nil
} // func NewClient(srv string, b objects.BundleOption) (*Client, error)

func (c *Client) GetLogger() *log.Logger {
	return c.log
} // func (c *Client) GetLogger() *log.Logger

// PublishReminder registers a Reminder with the daemon and returns
// the ID the daemon assigned to it.
func (c *Client) PublishReminder(r *objects.Reminder) (int64, error) {
	var values = make(url.Values)

	values.Set("bundle", c.Bundle.BundleName)
	values.Set("uid", strconv.FormatInt(int64(c.Bundle.UID), 10))
	values.Set("title", r.Title)
	values.Set("body", r.Content)
	values.Set("expired_body", r.ExpiredContent)
	values.Set("snooze_body", r.SnoozeContent)
	values.Set("notification_id", strconv.FormatInt(r.NotificationID, 10))
	values.Set("slot", strconv.FormatInt(int64(r.Slot), 10))
	values.Set("snooze_times", strconv.Itoa(r.SnoozeTimes))
	values.Set("interval", strconv.FormatInt(r.TimeInterval, 10))
	values.Set("ring_duration", strconv.FormatInt(r.RingDuration, 10))

	switch r.Kind {
	case kind.Timer:
		values.Set("kind", "timer")
		values.Set("countdown", strconv.FormatInt(r.CountDown, 10))
	case kind.Alarm:
		values.Set("kind", "alarm")
		values.Set("hour", strconv.Itoa(int(r.Hour)))
		values.Set("minute", strconv.Itoa(int(r.Minute)))
		values.Set("weekdays", strconv.Itoa(int(r.Days.Bitfield())))
	case kind.Calendar:
		values.Set("kind", "calendar")
		values.Set("date", r.Date.Format(time.RFC3339))
		values.Set("repeat_months", strconv.Itoa(int(r.RepeatMonths)))
		values.Set("repeat_days", strconv.FormatInt(int64(r.RepeatDays), 10))
	default:
		return 0, fmt.Errorf("Cannot publish Reminder of kind %s", r.Kind)
	}

	var (
		err error
		res *objects.Response
		id  int64
	)

	if res, err = c.request("/reminder/publish", values); err != nil {
		return 0, err
	} else if id, err = strconv.ParseInt(res.Message, 10, 64); err != nil {
		c.log.Printf("[ERROR] Daemon returned no Reminder ID: %q\n",
			res.Message)
		return 0, err
	}

	return id, nil
} // func (c *Client) PublishReminder(r *objects.Reminder) (int64, error)

// CancelReminder unregisters one Reminder.
func (c *Client) CancelReminder(id int64) error {
	var values = make(url.Values)

	values.Set("bundle", c.Bundle.BundleName)
	values.Set("uid", strconv.FormatInt(int64(c.Bundle.UID), 10))

	var _, err = c.request(fmt.Sprintf("/reminder/%d/cancel", id), values)
	return err
} // func (c *Client) CancelReminder(id int64) error

// CancelAllReminders unregisters all of the Client's reminders.
func (c *Client) CancelAllReminders() error {
	var values = make(url.Values)

	values.Set("bundle", c.Bundle.BundleName)
	values.Set("uid", strconv.FormatInt(int64(c.Bundle.UID), 10))

	var _, err = c.request("/reminder/cancelall", values)
	return err
} // func (c *Client) CancelAllReminders() error

// SnoozeReminder postpones one Reminder by its snooze interval.
func (c *Client) SnoozeReminder(id int64) error {
	var _, err = c.request(fmt.Sprintf("/reminder/%d/snooze", id), make(url.Values))
	return err
} // func (c *Client) SnoozeReminder(id int64) error

// CloseReminder dismisses one Reminder's notification.
func (c *Client) CloseReminder(id int64) error {
	var _, err = c.request(fmt.Sprintf("/reminder/%d/close", id), make(url.Values))
	return err
} // func (c *Client) CloseReminder(id int64) error

// GetValidReminders fetches the Client's non-expired reminders.
func (c *Client) GetValidReminders() ([]objects.Reminder, error) {
	var (
		err       error
		hres      *http.Response
		rcvBuf    bytes.Buffer
		reminders []objects.Reminder
		values    = make(url.Values)
		addr      = *c.Server
	)

	values.Set("bundle", c.Bundle.BundleName)
	values.Set("uid", strconv.FormatInt(int64(c.Bundle.UID), 10))
	addr.Path = "/reminder/valid"

	if hres, err = c.Client.PostForm(addr.String(), values); err != nil {
		c.log.Printf("[ERROR] Failed to POST to %s: %s\n",
			&addr,
			err.Error())
		return nil, err
	}

	defer hres.Body.Close() // nolint: errcheck

	if hres.StatusCode != http.StatusOK {
		err = fmt.Errorf("Unexpected status from %s: %s",
			&addr,
			hres.Status)
		c.log.Printf("[ERROR] %s\n", err.Error())
		return nil, err
	} else if _, err = io.Copy(&rcvBuf, hres.Body); err != nil {
		c.log.Printf("[ERROR] Failed to read response body from %s: %s\n",
			&addr,
			err.Error())
		return nil, err
	} else if err = ffjson.Unmarshal(rcvBuf.Bytes(), &reminders); err != nil {
		c.log.Printf("[ERROR] Cannot de-serialize Reminder list from %s: %s\n",
			&addr,
			err.Error())
		return nil, err
	}

	return reminders, nil
} // func (c *Client) GetValidReminders() ([]objects.Reminder, error)

func (c *Client) request(path string, values url.Values) (*objects.Response, error) {
	var (
		err    error
		msg    string
		rcvBuf bytes.Buffer
		hres   *http.Response
		ores   objects.Response
		addr   = *c.Server
	)

	addr.Path = path

	if hres, err = c.Client.PostForm(addr.String(), values); err != nil {
		c.log.Printf("[ERROR] Failed to POST to %s: %s\n",
			&addr,
			err.Error())
		return nil, err
	}

	defer hres.Body.Close() // nolint: errcheck

	if hres.StatusCode != http.StatusOK {
		msg = fmt.Sprintf("Unexpected status from %s: %s",
			&addr,
			hres.Status)
		c.log.Printf("[ERROR] %s\n", msg)
		return nil, errors.New(msg)
	} else if _, err = io.Copy(&rcvBuf, hres.Body); err != nil {
		c.log.Printf("[ERROR] Failed to read Response body from %s: %s\n",
			&addr,
			err.Error())
		return nil, err
	} else if err = ffjson.Unmarshal(rcvBuf.Bytes(), &ores); err != nil {
		c.log.Printf("[ERROR] Cannot de-serialize Response from %s: %s\n",
			&addr,
			err.Error())
		return nil, err
	} else if !ores.Status {
		err = fmt.Errorf("Request to %s failed: %s",
			&addr,
			ores.Message)
		c.log.Printf("[ERROR] %s\n", err.Error())
		return nil, err
	}

	c.log.Printf("[DEBUG] Request to %s was successful: %s\n",
		&addr,
		ores.Message)

	return &ores, nil
} // func (c *Client) request(path string, values url.Values) (*objects.Response, error)
