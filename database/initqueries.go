// /home/krylon/go/src/github.com/blicero/mnemosyne/database/initqueries.go
// -*- mode: go; coding: utf-8; -*-
// Created on 12. 02. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-02-12 15:11:38 krylon>

package database

var initQueries = []string{
	`
CREATE TABLE reminder (
    id              INTEGER PRIMARY KEY,
    kind            INTEGER NOT NULL,
    bundle          TEXT NOT NULL DEFAULT '',
    uid             INTEGER NOT NULL DEFAULT 0,
    user_id         INTEGER NOT NULL DEFAULT 0,
    title           TEXT NOT NULL DEFAULT '',
    content         TEXT NOT NULL DEFAULT '',
    expired_content TEXT NOT NULL DEFAULT '',
    snooze_content  TEXT NOT NULL DEFAULT '',
    notification_id INTEGER NOT NULL DEFAULT 0,
    slot            INTEGER NOT NULL DEFAULT 3,
    trigger_time    INTEGER NOT NULL DEFAULT 0,
    ring_duration   INTEGER NOT NULL DEFAULT 1,
    snooze_times    INTEGER NOT NULL DEFAULT 0,
    snooze_dynamic  INTEGER NOT NULL DEFAULT 0,
    time_interval   INTEGER NOT NULL DEFAULT 0,
    state           INTEGER NOT NULL DEFAULT 0,
    expired         INTEGER NOT NULL DEFAULT 0,
    hour            INTEGER NOT NULL DEFAULT 0,
    minute          INTEGER NOT NULL DEFAULT 0,
    weekdays        INTEGER NOT NULL DEFAULT 0,
    count_down      INTEGER NOT NULL DEFAULT 0,
    init_time       INTEGER NOT NULL DEFAULT 0,
    cal_date        INTEGER NOT NULL DEFAULT 0,
    repeat_months   INTEGER NOT NULL DEFAULT 0,
    repeat_days     INTEGER NOT NULL DEFAULT 0,
    uuid            TEXT UNIQUE NOT NULL,
    changed         INTEGER NOT NULL,
    CHECK (kind > 0)
)
`,
	"CREATE INDEX reminder_trigger_idx ON reminder (trigger_time)",
	"CREATE INDEX reminder_bundle_idx ON reminder (bundle, user_id)",
	"CREATE INDEX reminder_expired_idx ON reminder (expired)",
}
