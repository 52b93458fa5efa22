// /home/krylon/go/src/github.com/blicero/mnemosyne/database/database.go
// -*- mode: go; coding: utf-8; -*-
// Created on 12. 02. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-17 21:48:13 krylon>

// Package database provides the persistence layer for reminders.
// All reminders the backend knows about live in a single SQLite
// database, so they survive a restart of the daemon (or the whole
// machine).
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/blicero/krylib"
	"github.com/blicero/mnemosyne/common"
	"github.com/blicero/mnemosyne/database/query"
	"github.com/blicero/mnemosyne/logdomain"
	"github.com/blicero/mnemosyne/objects"
	"github.com/blicero/mnemosyne/objects/kind"
	"github.com/mattn/go-sqlite3" // Import the database driver
)

var (
	openLock sync.Mutex
	idCnt    int64
)

// ErrTxInProgress indicates that an attempt to initiate a transaction
// failed because there is already one in progress.
var ErrTxInProgress = errors.New("A Transaction is already in progress")

// ErrNoTxInProgress indicates that an attempt was made to finish a
// transaction when none was active.
var ErrNoTxInProgress = errors.New("There is no transaction in progress")

// ErrObjectNotFound indicates that an Object was not found in the database.
var ErrObjectNotFound = errors.New("object was not found in database")

// If a query returns an error because the database is busy or locked,
// we consider the error transient and try again after a short delay.
const retryPause = 25 * time.Millisecond

func worthARetry(e error) bool {
	var sqlErr sqlite3.Error

	if !errors.As(e, &sqlErr) {
		return false
	}

	switch sqlErr.Code {
	case sqlite3.ErrBusy, sqlite3.ErrLocked:
		return true
	default:
		return false
	}
} // func worthARetry(e error) bool

func waitForRetry() {
	time.Sleep(retryPause)
} // func waitForRetry()

// Database wraps the connection to the underlying data store, along
// with the pre-compiled queries to work on it.
type Database struct {
	id      int64
	db      *sql.DB
	tx      *sql.Tx
	log     *log.Logger
	path    string
	queries map[query.ID]*sql.Stmt
}

// Open opens a Database. If the database file does not exist, it is
// created and the schema is initialized.
func Open(path string) (*Database, error) {
	var (
		err      error
		dbExists bool
		db       = &Database{
			path:    path,
			queries: make(map[query.ID]*sql.Stmt, len(dbQueries)),
		}
	)

	openLock.Lock()
	defer openLock.Unlock()
	idCnt++
	db.id = idCnt

	if db.log, err = common.GetLogger(logdomain.Database); err != nil {
		return nil, err
	} else if common.Debug {
		db.log.Printf("[DEBUG] Open database %s\n", path)
	}

	var connstring = fmt.Sprintf("%s?_locking=NORMAL&_journal=WAL&_fk=1&recursive_triggers=0",
		path)

	if dbExists, err = krylib.Fexists(path); err != nil {
		db.log.Printf("[ERROR] Failed to check if %s exists: %s\n",
			path,
			err.Error())
		return nil, err
	} else if db.db, err = sql.Open("sqlite3", connstring); err != nil {
		db.log.Printf("[ERROR] Failed to open %s: %s\n",
			path,
			err.Error())
		return nil, err
	}

	db.db.SetMaxOpenConns(1)

	if !dbExists {
		if err = db.initialize(); err != nil {
			var e2 error
			if e2 = db.db.Close(); e2 != nil {
				db.log.Printf("[CRITICAL] Failed to close database: %s\n",
					e2.Error())
				return nil, e2
			} else if e2 = os.Remove(path); e2 != nil {
				db.log.Printf("[CRITICAL] Failed to remove database file %s: %s\n",
					db.path,
					e2.Error())
			}
			return nil, err
		}
		db.log.Printf("[INFO] Database at %s has been initialized\n",
			path)
	}

	return db, nil
} // func Open(path string) (*Database, error)

func (db *Database) initialize() error {
	var err error
	var tx *sql.Tx

	if common.Debug {
		db.log.Printf("[DEBUG] Initialize fresh database at %s\n",
			db.path)
	}

	if tx, err = db.db.Begin(); err != nil {
		db.log.Printf("[ERROR] Cannot begin transaction: %s\n",
			err.Error())
		return err
	}

	for _, q := range initQueries {
		db.log.Printf("[TRACE] Execute init query:\n%s\n",
			q)
		if _, err = tx.Exec(q); err != nil {
			db.log.Printf("[ERROR] Cannot execute init query: %s\n%s\n",
				err.Error(),
				q)
			if rbErr := tx.Rollback(); rbErr != nil {
				db.log.Printf("[CANTHAPPEN] Cannot rollback transaction: %s\n",
					rbErr.Error())
				return rbErr
			}
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		db.log.Printf("[CANTHAPPEN] Failed to commit init transaction: %s\n",
			err.Error())
		return err
	}

	return nil
} // func (db *Database) initialize() error

// Close closes the database.
// If there is a pending transaction, it is rolled back.
func (db *Database) Close() error {
	// I wonder if would make more snese to panic() if something goes
	// wrong, because I cannot imagine a situation where closing the
	// database can go wrong and recovery is possible.
	var err error

	if db.tx != nil {
		if err = db.tx.Rollback(); err != nil {
			db.log.Printf("[CRITICAL] Cannot roll back pending transaction: %s\n",
				err.Error())
			return err
		}
		db.tx = nil
	}

	for key, stmt := range db.queries {
		if err = stmt.Close(); err != nil {
			db.log.Printf("[CRITICAL] Cannot close statement handle %s: %s\n",
				key,
				err.Error())
			return err
		}
		delete(db.queries, key)
	}

	if err = db.db.Close(); err != nil {
		db.log.Printf("[CRITICAL] Cannot close database: %s\n",
			err.Error())
	}

	db.db = nil
	return nil
} // func (db *Database) Close() error

func (db *Database) getQuery(id query.ID) (*sql.Stmt, error) {
	var (
		stmt *sql.Stmt
		ok   bool
		err  error
	)

	if stmt, ok = db.queries[id]; ok {
		return stmt, nil
	} else if _, ok = dbQueries[id]; !ok {
		return nil, fmt.Errorf("Unknown query %s",
			id)
	}

PREPARE_QUERY:
	if stmt, err = db.db.Prepare(dbQueries[id]); err != nil {
		if worthARetry(err) {
			waitForRetry()
			goto PREPARE_QUERY
		}

		db.log.Printf("[ERROR] Cannot parse query %s: %s\n%s\n",
			id,
			err.Error(),
			dbQueries[id])
		return nil, err
	}

	db.queries[id] = stmt

	return stmt, nil
} // func (db *Database) getQuery(query.ID) (*sql.Stmt, error)

// Begin begins an explicit database transaction.
// Only one transaction can be in progress at once, attempting to start
// one, while another transaction is already in progress will yield ErrTxInProgress.
func (db *Database) Begin() error {
	var err error

	if db.tx != nil {
		return ErrTxInProgress
	}

BEGIN_TX:
	for db.tx == nil {
		if db.tx, err = db.db.Begin(); err != nil {
			if worthARetry(err) {
				waitForRetry()
				continue BEGIN_TX
			}

			db.log.Printf("[ERROR] Failed to start transaction: %s\n",
				err.Error())
			return err
		}
	}

	return nil
} // func (db *Database) Begin() error

// Rollback terminates a pending transaction, undoing any changes to the
// database made during that transaction.
// If no transaction is active, it returns ErrNoTxInProgress
func (db *Database) Rollback() error {
	var err error

	if db.tx == nil {
		return ErrNoTxInProgress
	} else if err = db.tx.Rollback(); err != nil {
		return fmt.Errorf("Cannot roll back database transaction: %s",
			err.Error())
	}

	db.tx = nil

	return nil
} // func (db *Database) Rollback() error

// Commit ends the active transaction, making any changes made during
// that transaction permanent and visible to other connections.
// If no transaction is active, it returns ErrNoTxInProgress
func (db *Database) Commit() error {
	var err error

	if db.tx == nil {
		return ErrNoTxInProgress
	} else if err = db.tx.Commit(); err != nil {
		return fmt.Errorf("Cannot commit transaction: %s",
			err.Error())
	}

	db.tx = nil
	return nil
} // func (db *Database) Commit() error

// ReminderAdd adds a Reminder and the BundleOption of the application
// that registered it to the database. On success, the freshly assigned
// ID is set on the Reminder.
func (db *Database) ReminderAdd(r *objects.Reminder, b *objects.BundleOption) error {
	const qid query.ID = query.ReminderAdd
	var (
		err  error
		stmt *sql.Stmt
	)

	if stmt, err = db.getQuery(qid); err != nil {
		db.log.Printf("[ERROR] Cannot prepare query %s: %s\n",
			qid,
			err.Error())
		return err
	} else if db.tx != nil {
		stmt = db.tx.Stmt(stmt)
	}

	var res sql.Result

EXEC_QUERY:
	if res, err = stmt.Exec(
		r.Kind,
		b.BundleName,
		b.UID,
		b.UserID(),
		r.Title,
		r.Content,
		r.ExpiredContent,
		r.SnoozeContent,
		r.NotificationID,
		r.Slot,
		r.TriggerTime,
		r.RingDuration,
		r.SnoozeTimes,
		r.SnoozeDynamic,
		r.TimeInterval,
		r.State,
		r.Expired,
		r.Hour,
		r.Minute,
		r.Days.Bitfield(),
		r.CountDown,
		r.InitTime,
		r.Date.UnixMilli(),
		r.RepeatMonths,
		r.RepeatDays,
		r.UUID,
		r.Changed.Unix(),
	); err != nil {
		if worthARetry(err) {
			waitForRetry()
			goto EXEC_QUERY
		}

		db.log.Printf("[ERROR] Cannot add Reminder %q to database: %s\n",
			r.Title,
			err.Error())
		return err
	}

	var id int64

	if id, err = res.LastInsertId(); err != nil {
		db.log.Printf("[ERROR] Cannot get ID of new Reminder %q: %s\n",
			r.Title,
			err.Error())
		return err
	}

	r.ID = id
	r.UserID = b.UserID()
	r.UID = b.UID

	return nil
} // func (db *Database) ReminderAdd(r *objects.Reminder, b *objects.BundleOption) error

// ReminderUpdate writes a Reminder's mutable scheduling state back to
// the database.
func (db *Database) ReminderUpdate(r *objects.Reminder) error {
	const qid query.ID = query.ReminderUpdate
	var (
		err  error
		stmt *sql.Stmt
	)

	if stmt, err = db.getQuery(qid); err != nil {
		db.log.Printf("[ERROR] Cannot prepare query %s: %s\n",
			qid,
			err.Error())
		return err
	} else if db.tx != nil {
		stmt = db.tx.Stmt(stmt)
	}

EXEC_QUERY:
	if _, err = stmt.Exec(
		r.TriggerTime,
		r.SnoozeDynamic,
		r.State,
		r.Expired,
		r.Changed.Unix(),
		r.ID,
	); err != nil {
		if worthARetry(err) {
			waitForRetry()
			goto EXEC_QUERY
		}

		db.log.Printf("[ERROR] Cannot update Reminder %d: %s\n",
			r.ID,
			err.Error())
		return err
	}

	return nil
} // func (db *Database) ReminderUpdate(r *objects.Reminder) error

// ReminderDelete removes the Reminder with the given ID from the database.
func (db *Database) ReminderDelete(id int64) error {
	const qid query.ID = query.ReminderDelete
	var (
		err  error
		stmt *sql.Stmt
	)

	if stmt, err = db.getQuery(qid); err != nil {
		db.log.Printf("[ERROR] Cannot prepare query %s: %s\n",
			qid,
			err.Error())
		return err
	} else if db.tx != nil {
		stmt = db.tx.Stmt(stmt)
	}

EXEC_QUERY:
	if _, err = stmt.Exec(id); err != nil {
		if worthARetry(err) {
			waitForRetry()
			goto EXEC_QUERY
		}

		db.log.Printf("[ERROR] Cannot delete Reminder %d: %s\n",
			id,
			err.Error())
		return err
	}

	return nil
} // func (db *Database) ReminderDelete(id int64) error

// ReminderDeleteBundle removes all reminders registered by the given
// application. It returns the number of deleted rows.
func (db *Database) ReminderDeleteBundle(b *objects.BundleOption) (int64, error) {
	const qid query.ID = query.ReminderDeleteBundle
	var (
		err  error
		stmt *sql.Stmt
	)

	if stmt, err = db.getQuery(qid); err != nil {
		db.log.Printf("[ERROR] Cannot prepare query %s: %s\n",
			qid,
			err.Error())
		return 0, err
	} else if db.tx != nil {
		stmt = db.tx.Stmt(stmt)
	}

	var res sql.Result

EXEC_QUERY:
	if res, err = stmt.Exec(b.BundleName, b.UserID()); err != nil {
		if worthARetry(err) {
			waitForRetry()
			goto EXEC_QUERY
		}

		db.log.Printf("[ERROR] Cannot delete reminders of %s: %s\n",
			b,
			err.Error())
		return 0, err
	}

	var cnt int64

	if cnt, err = res.RowsAffected(); err != nil {
		db.log.Printf("[ERROR] Cannot query number of deleted rows: %s\n",
			err.Error())
		return 0, err
	}

	return cnt, nil
} // func (db *Database) ReminderDeleteBundle(b *objects.BundleOption) (int64, error)

// ReminderDeleteUser removes all reminders belonging to the given user.
// It returns the number of deleted rows.
func (db *Database) ReminderDeleteUser(userID int32) (int64, error) {
	const qid query.ID = query.ReminderDeleteUser
	var (
		err  error
		stmt *sql.Stmt
	)

	if stmt, err = db.getQuery(qid); err != nil {
		db.log.Printf("[ERROR] Cannot prepare query %s: %s\n",
			qid,
			err.Error())
		return 0, err
	} else if db.tx != nil {
		stmt = db.tx.Stmt(stmt)
	}

	var res sql.Result

EXEC_QUERY:
	if res, err = stmt.Exec(userID); err != nil {
		if worthARetry(err) {
			waitForRetry()
			goto EXEC_QUERY
		}

		db.log.Printf("[ERROR] Cannot delete reminders of user %d: %s\n",
			userID,
			err.Error())
		return 0, err
	}

	var cnt int64

	if cnt, err = res.RowsAffected(); err != nil {
		db.log.Printf("[ERROR] Cannot query number of deleted rows: %s\n",
			err.Error())
		return 0, err
	}

	return cnt, nil
} // func (db *Database) ReminderDeleteUser(userID int32) (int64, error)

func scanReminder(rows *sql.Rows, withID bool) (*objects.Reminder, error) {
	var (
		err     error
		r       = new(objects.Reminder)
		k       uint8
		slot    uint8
		expired int64
		days    uint8
		date    int64
		changed int64
	)

	if withID {
		err = rows.Scan(
			&r.ID,
			&k,
			&r.UID,
			&r.UserID,
			&r.Title,
			&r.Content,
			&r.ExpiredContent,
			&r.SnoozeContent,
			&r.NotificationID,
			&slot,
			&r.TriggerTime,
			&r.RingDuration,
			&r.SnoozeTimes,
			&r.SnoozeDynamic,
			&r.TimeInterval,
			&r.State,
			&expired,
			&r.Hour,
			&r.Minute,
			&days,
			&r.CountDown,
			&r.InitTime,
			&date,
			&r.RepeatMonths,
			&r.RepeatDays,
			&r.UUID,
			&changed)
	} else {
		err = rows.Scan(
			&k,
			&r.UID,
			&r.UserID,
			&r.Title,
			&r.Content,
			&r.ExpiredContent,
			&r.SnoozeContent,
			&r.NotificationID,
			&slot,
			&r.TriggerTime,
			&r.RingDuration,
			&r.SnoozeTimes,
			&r.SnoozeDynamic,
			&r.TimeInterval,
			&r.State,
			&expired,
			&r.Hour,
			&r.Minute,
			&days,
			&r.CountDown,
			&r.InitTime,
			&date,
			&r.RepeatMonths,
			&r.RepeatDays,
			&r.UUID,
			&changed)
	}

	if err != nil {
		return nil, err
	}

	r.Kind = kind.Kind(k)
	r.Slot = objects.SlotType(slot)
	r.Expired = expired != 0
	r.Days = objects.WeekdaysFromBitfield(days)
	r.Date = time.UnixMilli(date)
	r.Changed = time.Unix(changed, 0)

	return r, nil
} // func scanReminder(rows *sql.Rows, withID bool) (*objects.Reminder, error)

// ReminderGetAll loads all reminders from the database, ordered by
// trigger time.
func (db *Database) ReminderGetAll() ([]*objects.Reminder, error) {
	const qid query.ID = query.ReminderGetAll
	var (
		err  error
		stmt *sql.Stmt
	)

	if stmt, err = db.getQuery(qid); err != nil {
		db.log.Printf("[ERROR] Cannot prepare query %s: %s\n",
			qid,
			err.Error())
		return nil, err
	} else if db.tx != nil {
		stmt = db.tx.Stmt(stmt)
	}

	var rows *sql.Rows

EXEC_QUERY:
	if rows, err = stmt.Query(); err != nil {
		if worthARetry(err) {
			waitForRetry()
			goto EXEC_QUERY
		}

		db.log.Printf("[ERROR] Cannot load reminders: %s\n",
			err.Error())
		return nil, err
	}

	defer rows.Close() // nolint: errcheck,gosec

	var list = make([]*objects.Reminder, 0, 16)

	for rows.Next() {
		var r *objects.Reminder

		if r, err = scanReminder(rows, true); err != nil {
			db.log.Printf("[ERROR] Cannot scan row: %s\n",
				err.Error())
			return nil, err
		}

		list = append(list, r)
	}

	return list, nil
} // func (db *Database) ReminderGetAll() ([]*objects.Reminder, error)

// ReminderGetByID loads the Reminder with the given ID.
// If no such Reminder exists, it returns nil, but no error.
func (db *Database) ReminderGetByID(id int64) (*objects.Reminder, error) {
	const qid query.ID = query.ReminderGetByID
	var (
		err  error
		stmt *sql.Stmt
	)

	if stmt, err = db.getQuery(qid); err != nil {
		db.log.Printf("[ERROR] Cannot prepare query %s: %s\n",
			qid,
			err.Error())
		return nil, err
	} else if db.tx != nil {
		stmt = db.tx.Stmt(stmt)
	}

	var rows *sql.Rows

EXEC_QUERY:
	if rows, err = stmt.Query(id); err != nil {
		if worthARetry(err) {
			waitForRetry()
			goto EXEC_QUERY
		}

		db.log.Printf("[ERROR] Cannot load Reminder %d: %s\n",
			id,
			err.Error())
		return nil, err
	}

	defer rows.Close() // nolint: errcheck,gosec

	if !rows.Next() {
		return nil, nil
	}

	var r *objects.Reminder

	if r, err = scanReminder(rows, false); err != nil {
		db.log.Printf("[ERROR] Cannot scan row: %s\n",
			err.Error())
		return nil, err
	}

	r.ID = id

	return r, nil
} // func (db *Database) ReminderGetByID(id int64) (*objects.Reminder, error)

// ReminderGetBundle loads the BundleOption of the application that
// registered the Reminder with the given ID.
func (db *Database) ReminderGetBundle(id int64) (*objects.BundleOption, error) {
	const qid query.ID = query.ReminderGetBundle
	var (
		err  error
		stmt *sql.Stmt
	)

	if stmt, err = db.getQuery(qid); err != nil {
		db.log.Printf("[ERROR] Cannot prepare query %s: %s\n",
			qid,
			err.Error())
		return nil, err
	} else if db.tx != nil {
		stmt = db.tx.Stmt(stmt)
	}

	var rows *sql.Rows

EXEC_QUERY:
	if rows, err = stmt.Query(id); err != nil {
		if worthARetry(err) {
			waitForRetry()
			goto EXEC_QUERY
		}

		db.log.Printf("[ERROR] Cannot load BundleOption for Reminder %d: %s\n",
			id,
			err.Error())
		return nil, err
	}

	defer rows.Close() // nolint: errcheck,gosec

	if !rows.Next() {
		return nil, ErrObjectNotFound
	}

	var b = new(objects.BundleOption)

	if err = rows.Scan(&b.BundleName, &b.UID); err != nil {
		db.log.Printf("[ERROR] Cannot scan row: %s\n",
			err.Error())
		return nil, err
	}

	return b, nil
} // func (db *Database) ReminderGetBundle(id int64) (*objects.BundleOption, error)
