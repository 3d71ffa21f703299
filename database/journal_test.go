/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import "testing"

func newTestJournalDB(t *testing.T) *JournalDB {
	t.Helper()
	jdb, err := NewJournalDB("file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("open journal db: %v", err)
	}
	t.Cleanup(func() { _ = jdb.Close() })
	return jdb
}

func TestRecordVerificationAndQuery(t *testing.T) {
	jdb := newTestJournalDB(t)
	if err := jdb.RecordVerification("ORD1", "ESP", "OrderQuantity", "100", "100", true); err != nil {
		t.Fatalf("record verification: %v", err)
	}

	var count int
	row := jdb.db.QueryRow(`SELECT COUNT(*) FROM verifications WHERE cl_ord_id = ?`, "ORD1")
	if err := row.Scan(&count); err != nil {
		t.Fatalf("query: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 verification row, got %d", count)
	}
}

func TestRecordLatencySampleBatch(t *testing.T) {
	jdb := newTestJournalDB(t)
	tx, err := jdb.BeginTransaction()
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	for i := 1; i <= 3; i++ {
		if err := jdb.RecordLatencySampleBatch(tx, "SESSION1", i, int64(100*i)); err != nil {
			t.Fatalf("record latency batch: %v", err)
		}
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	var count int
	row := jdb.db.QueryRow(`SELECT COUNT(*) FROM latency_samples WHERE session_id = ?`, "SESSION1")
	if err := row.Scan(&count); err != nil {
		t.Fatalf("query: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 latency rows, got %d", count)
	}
}
