// /home/krylon/go/src/github.com/blicero/mnemosyne/database/dbqueries.go
// -*- mode: go; coding: utf-8; -*-
// Created on 12. 02. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-02 16:52:48 krylon>

package database

import "github.com/blicero/mnemosyne/database/query"

var dbQueries = map[query.ID]string{
	query.ReminderAdd: `
INSERT INTO reminder (
    kind, bundle, uid, user_id,
    title, content, expired_content, snooze_content,
    notification_id, slot,
    trigger_time, ring_duration, snooze_times, snooze_dynamic, time_interval,
    state, expired,
    hour, minute, weekdays,
    count_down, init_time,
    cal_date, repeat_months, repeat_days,
    uuid, changed)
VALUES (
    ?, ?, ?, ?,
    ?, ?, ?, ?,
    ?, ?,
    ?, ?, ?, ?, ?,
    ?, ?,
    ?, ?, ?,
    ?, ?,
    ?, ?, ?,
    ?, ?)
`,
	query.ReminderUpdate: `
UPDATE reminder
SET
    trigger_time = ?,
    snooze_dynamic = ?,
    state = ?,
    expired = ?,
    changed = ?
WHERE id = ?
`,
	query.ReminderDelete:       "DELETE FROM reminder WHERE id = ?",
	query.ReminderDeleteBundle: "DELETE FROM reminder WHERE bundle = ? AND user_id = ?",
	query.ReminderDeleteUser:   "DELETE FROM reminder WHERE user_id = ?",
	query.ReminderGetAll: `
SELECT
    id,
    kind,
    uid,
    user_id,
    title,
    content,
    expired_content,
    snooze_content,
    notification_id,
    slot,
    trigger_time,
    ring_duration,
    snooze_times,
    snooze_dynamic,
    time_interval,
    state,
    expired,
    hour,
    minute,
    weekdays,
    count_down,
    init_time,
    cal_date,
    repeat_months,
    repeat_days,
    uuid,
    changed
FROM reminder
ORDER BY trigger_time, id
`,
	query.ReminderGetByID: `
SELECT
    kind,
    uid,
    user_id,
    title,
    content,
    expired_content,
    snooze_content,
    notification_id,
    slot,
    trigger_time,
    ring_duration,
    snooze_times,
    snooze_dynamic,
    time_interval,
    state,
    expired,
    hour,
    minute,
    weekdays,
    count_down,
    init_time,
    cal_date,
    repeat_months,
    repeat_days,
    uuid,
    changed
FROM reminder
WHERE id = ?
`,
	query.ReminderGetBundle: "SELECT bundle, uid FROM reminder WHERE id = ?",
}
