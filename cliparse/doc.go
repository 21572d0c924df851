// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

LoadDotEnv reads an optional .env file, then ParseFlags returns a Config:

	cliparse.LoadDotEnv()
	cfg, err := cliparse.ParseFlags(os.Args[1:])

# CLI Flags

	-p            Server port
	-d            Database URL
	-t            Database type: postgres, sqlite or memory
	-redis        Redis URL for the user cache
	-kafka        Comma separated Kafka brokers for vote events
	-jwt-secret   JWT signing secret

# Environment Variables

Flags fall back to environment variables:

	PORT              → -p (default 8080)
	DATABASE_URL      → -d (not needed for memory)
	DATABASE_TYPE     → -t (default postgres)
	REDIS_URL         → -redis
	KAFKA_BROKERS     → -kafka
	JWT_SECRET        → -jwt-secret (required)

Environment only:

	JWT_EXPIRY         token lifetime (default 168h)
	DEFAULT_PAGE_SIZE  page size when none is requested (default 30)
	MAX_PAGE_SIZE      hard cap on requested page size (default 50)
	USER_CACHE_TTL     Redis user cache entry lifetime (default 10m)
	KAFKA_TOPIC        vote event topic (default votes)

CLI flags take precedence over environment variables.
*/
package cliparse
