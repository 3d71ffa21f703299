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

const schemaDDL = `
CREATE TABLE IF NOT EXISTS verifications (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	cl_ord_id   TEXT NOT NULL,
	protocol    TEXT NOT NULL,
	field       TEXT NOT NULL,
	expected    TEXT,
	actual      TEXT,
	passed      BOOLEAN NOT NULL,
	recorded_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_verifications_cl_ord_id ON verifications(cl_ord_id);

CREATE TABLE IF NOT EXISTS latency_samples (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id     TEXT NOT NULL,
	seq_num        INTEGER NOT NULL,
	latency_micros INTEGER NOT NULL,
	recorded_at    DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_latency_samples_session_id ON latency_samples(session_id);
`

const insertVerificationQuery = `
INSERT INTO verifications (cl_ord_id, protocol, field, expected, actual, passed)
VALUES (?, ?, ?, ?, ?, ?)
`

const insertLatencyQuery = `
INSERT INTO latency_samples (session_id, seq_num, latency_micros)
VALUES (?, ?, ?)
`
