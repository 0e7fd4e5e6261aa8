// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package uuid generates the primary keys of remote profile rows.

Keys are Version 7 UUIDs: time-ordered, so badge and user rows inserted
together stay adjacent in the PostgreSQL B-tree index.
*/
package uuid

import "github.com/google/uuid"

// New returns a new UUIDv7 in canonical string form.
//
// It panics only if the system entropy source fails.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic("uuid: failed to generate v7 identifier: " + err.Error())
	}
	return id.String()
}
