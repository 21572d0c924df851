// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database schema creation.

# Schema Creation

CreateSchema initializes all required tables for a dialect
("postgres" or "sqlite"):

	if err := db.CreateSchema(conn, db.DialectPostgres); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes,
and ON CONFLICT DO NOTHING when seeding roles.

# Tables

  - roles: ROLE_USER and ROLE_ADMIN
  - users: accounts (unique username and email)
  - user_roles: users *──* roles
  - polls: question, creator, created/expiration times
  - choices: answers owned by a poll
  - votes: one row per (user_id, poll_id)

# Relationships

	users 1──* polls
	polls 1──* choices
	polls 1──* votes
	choices 1──* votes
	users 1──* votes

# Vote Uniqueness

votes carries CONSTRAINT uq_votes_user_poll UNIQUE (user_id, poll_id). The
insert is the arbiter for duplicate votes; there is no read-then-write check.
*/
package db
