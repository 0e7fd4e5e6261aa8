// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package migrations

import "embed"

// FS contains the embedded schema for the device-local key-value file.
//
//go:embed *.sql
var FS embed.FS
