// /home/krylon/go/src/github.com/blicero/mnemosyne/database/pool.go
// -*- mode: go; coding: utf-8; -*-
// Created on 12. 02. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-02 17:10:26 krylon>

package database

import (
	"container/list"
	"sync"
)

// Pool is a pool of database connections.
// The web handlers run concurrently, and a single connection would
// serialize them all on one SQLite handle.
type Pool struct {
	lock sync.Mutex
	cond *sync.Cond
	pool *list.List
	path string
}

// NewPool opens a fresh connection pool with the given number of
// connections to the database at path.
func NewPool(path string, cnt int) (*Pool, error) {
	var (
		err  error
		pool = &Pool{
			path: path,
			pool: list.New(),
		}
	)

	pool.cond = sync.NewCond(&pool.lock)

	for i := 0; i < cnt; i++ {
		var db *Database

		if db, err = Open(path); err != nil {
			return nil, err
		}

		pool.pool.PushBack(db)
	}

	return pool, nil
} // func NewPool(path string, cnt int) (*Pool, error)

// Get returns a connection from the Pool, blocking until one becomes
// available if the Pool is currently empty.
func (p *Pool) Get() *Database {
	p.lock.Lock()
	defer p.lock.Unlock()

	for p.pool.Len() == 0 {
		p.cond.Wait()
	}

	var elt = p.pool.Front()
	p.pool.Remove(elt)

	return elt.Value.(*Database)
} // func (p *Pool) Get() *Database

// GetNoWait returns a connection from the Pool. If the Pool is empty,
// a fresh connection is opened instead of waiting for one to be
// returned.
func (p *Pool) GetNoWait() (*Database, error) {
	p.lock.Lock()

	if p.pool.Len() > 0 {
		var elt = p.pool.Front()
		p.pool.Remove(elt)
		p.lock.Unlock()
		return elt.Value.(*Database), nil
	}

	p.lock.Unlock()

	return Open(p.path)
} // func (p *Pool) GetNoWait() (*Database, error)

// Put returns a connection to the Pool.
func (p *Pool) Put(db *Database) {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.pool.PushBack(db)
	p.cond.Signal()
} // func (p *Pool) Put(db *Database)

// IsEmpty returns true if the Pool currently holds no idle connections.
func (p *Pool) IsEmpty() bool {
	p.lock.Lock()
	defer p.lock.Unlock()

	return p.pool.Len() == 0
} // func (p *Pool) IsEmpty() bool

// Close closes all idle connections in the Pool.
func (p *Pool) Close() error {
	p.lock.Lock()
	defer p.lock.Unlock()

	var err error

	for p.pool.Len() > 0 {
		var elt = p.pool.Front()
		p.pool.Remove(elt)

		var db = elt.Value.(*Database)

		if err = db.Close(); err != nil {
			return err
		}
	}

	return nil
} // func (p *Pool) Close() error
