// Package repository implements the engine's store interfaces on MySQL.
// Each repository wraps a *sql.DB and exposes the narrow set of statements
// its table needs. Timestamps are stored in UTC. Lookups that find nothing
// return engine.ErrNotFound so the rules layer can treat "missing" uniformly
// across implementations.
package repository

import "errors"

// ErrEmailExists is returned by UserRepo.Create when the email is already
// registered. Handlers translate it into an HTTP 409 response.
var ErrEmailExists = errors.New("email already exists")
