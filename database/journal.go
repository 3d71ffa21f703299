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

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/mattn/go-sqlite3"
)

// JournalDB provides SQLite storage for checker verification results
// and stress-run latency samples, with prepared statements initialized
// once and reused for all batch operations, avoiding SQL parsing
// overhead on each insert.
type JournalDB struct {
	db *sql.DB

	stmtVerification *sql.Stmt
	stmtLatency      *sql.Stmt
}

func NewJournalDB(dbPath string) (*JournalDB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	jdb := &JournalDB{db: db}
	if err := jdb.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %v", err)
	}

	if jdb.stmtVerification, err = db.Prepare(insertVerificationQuery); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to prepare verification statement: %v", err)
	}
	if jdb.stmtLatency, err = db.Prepare(insertLatencyQuery); err != nil {
		_ = jdb.stmtVerification.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to prepare latency statement: %v", err)
	}

	log.Printf("journal SQLite database initialized at %s", dbPath)
	return jdb, nil
}

func (jdb *JournalDB) Close() error {
	if jdb.stmtVerification != nil {
		_ = jdb.stmtVerification.Close()
	}
	if jdb.stmtLatency != nil {
		_ = jdb.stmtLatency.Close()
	}
	return jdb.db.Close()
}

func (jdb *JournalDB) initSchema() error {
	_, err := jdb.db.Exec(schemaDDL)
	return err
}

// RecordVerification persists one checker assertion outcome: which
// order/protocol/field was checked, what was expected vs. actual, and
// whether it passed.
func (jdb *JournalDB) RecordVerification(clOrdID, protocol, field, expected, actual string, passed bool) error {
	_, err := jdb.db.Exec(insertVerificationQuery, clOrdID, protocol, field, expected, actual, passed)
	return err
}

// RecordLatencySample persists one round-trip latency measurement from
// a stress run.
func (jdb *JournalDB) RecordLatencySample(sessionID string, seqNum int, latencyMicros int64) error {
	_, err := jdb.db.Exec(insertLatencyQuery, sessionID, seqNum, latencyMicros)
	return err
}

// BeginTransaction starts a transaction for batch recording.
func (jdb *JournalDB) BeginTransaction() (*sql.Tx, error) {
	return jdb.db.Begin()
}

// RecordVerificationBatch records a verification outcome using the
// prepared statement bound to tx.
func (jdb *JournalDB) RecordVerificationBatch(tx *sql.Tx, clOrdID, protocol, field, expected, actual string, passed bool) error {
	_, err := tx.Stmt(jdb.stmtVerification).Exec(clOrdID, protocol, field, expected, actual, passed)
	return err
}

// RecordLatencySampleBatch records a latency sample using the prepared
// statement bound to tx.
func (jdb *JournalDB) RecordLatencySampleBatch(tx *sql.Tx, sessionID string, seqNum int, latencyMicros int64) error {
	_, err := tx.Stmt(jdb.stmtLatency).Exec(sessionID, seqNum, latencyMicros)
	return err
}
