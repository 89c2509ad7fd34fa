package ledger

// Money columns are TEXT: decimal values round-trip exactly as strings,
// REAL would not. The transactions table has no UPDATE or DELETE path in
// this package; correcting a mistake means appending a compensating entry.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	cash TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES users(id),
	symbol TEXT NOT NULL,
	name TEXT NOT NULL,
	price TEXT NOT NULL,
	quantity INTEGER NOT NULL,
	kind TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_user_symbol ON transactions(user_id, symbol);
`
