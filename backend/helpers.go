// /home/krylon/go/src/github.com/blicero/mnemosyne/backend/helpers.go
// -*- mode: go; coding: utf-8; -*-
// Created on 19. 02. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-05 21:14:58 krylon>

package backend

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

func pathID(r *http.Request) (int64, error) {
	var vars = mux.Vars(r)

	return strconv.ParseInt(vars["id"], 10, 64)
} // func pathID(r *http.Request) (int64, error)

// formInt64 parses a numeric form field, treating absent or malformed
// values as zero.
func formInt64(r *http.Request, key string) int64 {
	var (
		err error
		val int64
	)

	if val, err = strconv.ParseInt(r.FormValue(key), 10, 64); err != nil {
		return 0
	}

	return val
} // func formInt64(r *http.Request, key string) int64

func formInt32(r *http.Request, key string) int32 {
	return int32(formInt64(r, key))
} // func formInt32(r *http.Request, key string) int32
