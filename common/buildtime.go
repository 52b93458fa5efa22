// /home/krylon/go/src/github.com/blicero/mnemosyne/common/buildtime.go
// -*- mode: go; coding: utf-8; -*-
// Created on 09. 02. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-18 20:58:02 krylon>

package common

// BuildStamp is the time at which the application was built.
// It is set by the build script, do not edit manually.
const BuildStamp = "2023-04-18 20:57:49"
