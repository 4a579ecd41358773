package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id         SERIAL PRIMARY KEY,
	name       VARCHAR(255) NOT NULL,
	email      VARCHAR(255) NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	deleted_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS gifts (
	id          SERIAL PRIMARY KEY,
	name        VARCHAR(255) NOT NULL,
	description TEXT,
	value       NUMERIC(20, 2) NOT NULL DEFAULT 0,
	currency    VARCHAR(8) NOT NULL DEFAULT 'USD',
	active      BOOLEAN NOT NULL DEFAULT TRUE,
	pack_id     INT,
	image       TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	deleted_at  TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS tickets (
	id                SERIAL PRIMARY KEY,
	code_verification VARCHAR(64) NOT NULL UNIQUE,
	gift_id           INT NOT NULL REFERENCES gifts(id),
	beneficiary_id    INT NOT NULL REFERENCES users(id),
	distributor_id    INT REFERENCES users(id),
	state             VARCHAR(24) NOT NULL DEFAULT 'not_consumed',
	expiration_at     TIMESTAMPTZ NOT NULL,
	consumed_at       TIMESTAMPTZ,
	scheduled_for     TIMESTAMPTZ,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS wallet_transactions (
	id         SERIAL PRIMARY KEY,
	reference  VARCHAR(64) NOT NULL UNIQUE,
	user_id    INT NOT NULL REFERENCES users(id),
	provider   VARCHAR(24) NOT NULL DEFAULT 'wallet',
	type       VARCHAR(16) NOT NULL,
	status     VARCHAR(16) NOT NULL,
	amount     NUMERIC(20, 2) NOT NULL,
	currency   VARCHAR(8) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// InitSchema 建立資料表（已存在則略過）
func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
