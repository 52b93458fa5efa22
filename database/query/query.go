// /home/krylon/go/src/github.com/blicero/mnemosyne/database/query/query.go
// -*- mode: go; coding: utf-8; -*-
// Created on 12. 02. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-02 16:45:19 krylon>

// Package query provides symbolic constants for identifying SQL queries.
package query

//go:generate stringer -type=ID

type ID uint8

const (
	ReminderAdd ID = iota
	ReminderUpdate
	ReminderDelete
	ReminderDeleteBundle
	ReminderDeleteUser
	ReminderGetAll
	ReminderGetByID
	ReminderGetBundle
)
