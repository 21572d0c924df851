// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides access tokens and password hashing.

# Access Tokens

TokenProvider issues HS256 JWTs whose subject is the user id:

	p := auth.NewTokenProvider(cfg.JWTSecret, cfg.JWTExpiry)
	token, err := p.GenerateToken(user)
	principal, err := p.ParseToken(token)

ParseToken checks the signing method, signature and expiry and returns a
*models.Principal. Every failure wraps ErrInvalidToken.

# Passwords

Passwords are stored as bcrypt hashes:

	hash, err := auth.HashPassword(password)
	err := auth.CheckPassword(hash, candidate)

CheckPassword returns ErrInvalidCredentials on mismatch.
*/
package auth
