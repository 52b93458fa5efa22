// /home/krylon/go/src/github.com/blicero/mnemosyne/objects/bundle.go
// -*- mode: go; coding: utf-8; -*-
// Created on 11. 02. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-03-12 19:08:44 krylon>

package objects

import (
	"fmt"

	"github.com/blicero/mnemosyne/common"
)

//go:generate ffjson bundle.go

// BundleOption identifies the application a Reminder belongs to,
// by bundle name and numeric uid. The user id is derived from the
// uid, several uids can map to the same user.
type BundleOption struct {
	BundleName string
	UID        int32
}

// UserID returns the OS user the bundle's uid belongs to.
func (b *BundleOption) UserID() int32 {
	return b.UID / common.UserIDBase
} // func (b *BundleOption) UserID() int32

// SameApp returns true if both BundleOptions refer to the same
// logical application, i.e. same bundle name and same derived user.
// Distinct uids within one user still count as the same app.
func (b *BundleOption) SameApp(other *BundleOption) bool {
	return b.BundleName == other.BundleName && b.UserID() == other.UserID()
} // func (b *BundleOption) SameApp(other *BundleOption) bool

func (b *BundleOption) String() string {
	return fmt.Sprintf("BundleOption{ Bundle: %q, UID: %d }",
		b.BundleName,
		b.UID)
} // func (b *BundleOption) String() string
