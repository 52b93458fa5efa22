// /home/krylon/go/src/github.com/blicero/mnemosyne/backend/alert.go
// -*- mode: go; coding: utf-8; -*-
// Created on 19. 02. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-03-12 20:05:33 krylon>

package backend

import (
	"log"

	"github.com/blicero/mnemosyne/common"
	"github.com/blicero/mnemosyne/logdomain"
	"github.com/blicero/mnemosyne/objects"
)

// AlertPlayer handles the audible part of an alerting Reminder.
// On a desktop, the notification daemon usually plays the sound itself,
// so the default player just logs what it would do.
type AlertPlayer interface {
	StartAlert(r *objects.Reminder)
	StopAlert(r *objects.Reminder)
}

type logPlayer struct {
	log *log.Logger
}

func newLogPlayer() (*logPlayer, error) {
	var (
		err error
		p   = new(logPlayer)
	)

	if p.log, err = common.GetLogger(logdomain.Backend); err != nil {
		return nil, err
	}

	return p, nil
} // func newLogPlayer() (*logPlayer, error)

func (p *logPlayer) StartAlert(r *objects.Reminder) {
	p.log.Printf("[INFO] Reminder %d (%q) starts alerting\n",
		r.ID,
		r.Title)
} // func (p *logPlayer) StartAlert(r *objects.Reminder)

func (p *logPlayer) StopAlert(r *objects.Reminder) {
	p.log.Printf("[INFO] Reminder %d (%q) stops alerting\n",
		r.ID,
		r.Title)
} // func (p *logPlayer) StopAlert(r *objects.Reminder)
