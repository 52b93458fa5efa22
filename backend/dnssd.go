// /home/krylon/go/src/github.com/blicero/mnemosyne/backend/dnssd.go
// -*- mode: go; coding: utf-8; -*-
// Created on 26. 02. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-03-26 17:44:09 krylon>

package backend

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/blicero/mnemosyne/common"
	"github.com/grandcat/zeroconf"
)

const (
	srvService = "_http._tcp"
	srvDomain  = "local."
)

var addrPat = regexp.MustCompile(`:(\d+)$`)

// initDNSSd announces the web interface on the local network, so
// clients can find the daemon without configuration.
func (d *Daemon) initDNSSd() error {
	var (
		err   error
		match []string
		port  int64
		srv   *zeroconf.Server
	)

	if match = addrPat.FindStringSubmatch(d.web.Addr); match == nil {
		err = fmt.Errorf("Cannot extract port from server address %q",
			d.web.Addr)
		d.log.Printf("[ERROR] %s\n", err.Error())
		return err
	}

	if port, err = strconv.ParseInt(match[1], 10, 16); err != nil {
		d.log.Printf("[ERROR] Cannot parse HTTP port from server address %q: %s\n",
			d.web.Addr,
			err.Error())
		return err
	}

	var txt = []string{"txtv=0", fmt.Sprintf("version=%s", common.Version)}

	var instanceName = fmt.Sprintf("%s@%s",
		common.AppName,
		d.hostname)

	if srv, err = zeroconf.Register(instanceName, srvService, srvDomain, int(port), txt, nil); err != nil {
		d.log.Printf("[ERROR] Cannot register service with DNS-SD: %s\n",
			err.Error())
		return err
	}

	d.dnssd = srv
	return nil
} // func (d *Daemon) initDNSSd() error
