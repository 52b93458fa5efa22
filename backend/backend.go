// /home/krylon/go/src/github.com/blicero/mnemosyne/backend/backend.go
// -*- mode: go; coding: utf-8; -*-
// Created on 19. 02. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-18 20:41:07 krylon>

// Package backend implements the reminder engine itself, the part that
// deals with the database, the timers, and the notification daemon,
// plus the web interface clients talk to.
package backend

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/blicero/mnemosyne/common"
	"github.com/blicero/mnemosyne/database"
	"github.com/blicero/mnemosyne/logdomain"
	"github.com/gorilla/mux"
	"github.com/grandcat/zeroconf"
)

const poolSize = 4

// Daemon ties the pieces together: the database pool, the Manager, the
// notification sink, and the web server.
type Daemon struct {
	log        *log.Logger
	pool       *database.Pool
	mgr        *Manager
	sink       *DBusSink
	lock       sync.RWMutex
	active     bool
	web        http.Server
	router     *mux.Router
	listenAddr string
	hostname   string
	dnssd      *zeroconf.Server
	idLock     sync.Mutex
	idCnt      int64
}

// Summon summons a Daemon and returns it. No sacrifice or idolatry is required.
func Summon(addr string) (*Daemon, error) {
	var (
		err error
		d   = &Daemon{
			listenAddr: addr,
			active:     true,
			router:     mux.NewRouter(),
		}
	)

	if d.log, err = common.GetLogger(logdomain.Backend); err != nil {
		fmt.Printf("ERROR initializing Logger: %s\n",
			err.Error())
		return nil, err
	} else if d.pool, err = database.NewPool(common.DbPath, poolSize); err != nil {
		d.log.Printf("[ERROR] Cannot initialize database pool: %s\n",
			err.Error())
		return nil, err
	} else if d.sink, err = NewDBusSink(); err != nil {
		d.log.Printf("[ERROR] Cannot connect to notification daemon: %s\n",
			err.Error())
		return nil, err
	} else if d.mgr, err = NewManager(d.pool, d.sink, newStdTimer(), nil); err != nil {
		d.log.Printf("[ERROR] Cannot create reminder engine: %s\n",
			err.Error())
		return nil, err
	}

	if d.hostname, err = os.Hostname(); err != nil {
		d.log.Printf("[ERROR] Cannot query hostname: %s\n",
			err.Error())
		d.hostname = "localhost"
	}

	d.web.Addr = addr
	d.web.ErrorLog = d.log
	d.web.Handler = d.router

	if err = d.initWebHandlers(); err != nil {
		d.log.Printf("[ERROR] Failed to initialize web server: %s\n",
			err.Error())
		return nil, err
	} else if err = d.mgr.Start(); err != nil {
		d.log.Printf("[ERROR] Failed to start reminder engine: %s\n",
			err.Error())
		return nil, err
	}

	if err = d.initDNSSd(); err != nil {
		// Not being discoverable is unfortunate, but no reason to
		// refuse service.
		d.log.Printf("[ERROR] Failed to announce service via DNS-SD: %s\n",
			err.Error())
	}

	go d.serveHTTP()

	return d, nil
} // func Summon(addr string) (*Daemon, error)

// IsAlive returns true if the Daemon's active flag is set.
func (d *Daemon) IsAlive() bool {
	d.lock.RLock()
	var alive = d.active
	d.lock.RUnlock()

	return alive
} // func (d *Daemon) IsAlive() bool

// Manager exposes the reminder engine, mainly for clients living in
// the same process.
func (d *Daemon) Manager() *Manager {
	return d.mgr
} // func (d *Daemon) Manager() *Manager

// Banish tells the Daemon's components to shut down.
func (d *Daemon) Banish() error {
	var (
		err         error
		ctx, cancel = context.WithTimeout(context.Background(), time.Second*3)
	)
	defer cancel()

	if d.dnssd != nil {
		d.dnssd.Shutdown()
		d.dnssd = nil
	}

	if err = d.web.Shutdown(ctx); err != nil {
		d.log.Printf("[ERROR] Failed to shutdown web server: %s\n",
			err.Error())
	}

	if ctx.Err() != nil {
		err = ctx.Err()
		d.log.Printf("[ERROR] Failed to gracefully shut down web server: %s\n",
			ctx.Err().Error())
		d.web.Close() // nolint: errcheck
	}

	d.mgr.Stop()

	d.lock.Lock()
	d.active = false
	d.lock.Unlock()
	return err
} // func (d *Daemon) Banish() error
