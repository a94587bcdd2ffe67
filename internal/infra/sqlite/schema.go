package sqlite

const schemaSQL = `
CREATE TABLE IF NOT EXISTS reports (
    report_id          TEXT PRIMARY KEY,
    household_id       TEXT NOT NULL,
    kind               TEXT NOT NULL,
    start_date         TEXT NOT NULL,
    end_date           TEXT NOT NULL,
    status             TEXT NOT NULL DEFAULT 'PENDING',
    currency           TEXT NOT NULL,
    payload            TEXT,
    transaction_count  INTEGER NOT NULL DEFAULT 0,
    attempt            INTEGER NOT NULL DEFAULT 0,
    created_at         TEXT NOT NULL,
    updated_at         TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reports_household ON reports(household_id);

CREATE TABLE IF NOT EXISTS categories (
    category_id        TEXT PRIMARY KEY,
    household_id       TEXT NOT NULL,
    name               TEXT NOT NULL,
    type               TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS accounts (
    account_id         TEXT PRIMARY KEY,
    household_id       TEXT NOT NULL,
    name               TEXT NOT NULL,
    account_type       TEXT NOT NULL DEFAULT '',
    currency           TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS transactions (
    transaction_id     TEXT PRIMARY KEY,
    household_id       TEXT NOT NULL,
    type               TEXT NOT NULL,
    amount             TEXT NOT NULL,
    occurred_at        TEXT NOT NULL,
    description        TEXT NOT NULL DEFAULT '',
    category_id        TEXT REFERENCES categories(category_id),
    from_account_id    TEXT REFERENCES accounts(account_id),
    to_account_id      TEXT REFERENCES accounts(account_id)
);

CREATE INDEX IF NOT EXISTS idx_transactions_window ON transactions(household_id, occurred_at);

CREATE TABLE IF NOT EXISTS budgets (
    budget_id          TEXT PRIMARY KEY,
    household_id       TEXT NOT NULL,
    category_id        TEXT NOT NULL,
    name               TEXT NOT NULL,
    amount             TEXT NOT NULL,
    start_date         TEXT NOT NULL,
    end_date           TEXT NOT NULL,
    source             TEXT NOT NULL DEFAULT 'manual',
    created_at         TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_budgets_window ON budgets(household_id, start_date, end_date);
`
