// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// The connection measures how long each statement batch takes so that
// slow queries can be logged. Measuring through a Clock instead of
// calling time.Now directly lets tests drive elapsed time
// deterministically:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	conn, _ := sqlconn.Open(sqlconn.Config{Path: ":memory:", Clock: fake})
//
// Production code uses Real().
package clock
