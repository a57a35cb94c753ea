package models

import "errors"

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionEnded      = errors.New("session already ended")
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrPairingClosed     = errors.New("pairing is closed")
	ErrPairingExpired    = errors.New("pairing window expired")
	ErrNoOpenPairing     = errors.New("no session with open pairing")
	ErrDeviceNotPaired   = errors.New("device not paired to session")
	ErrTeamMismatch      = errors.New("device paired to a different team")
)

var (
	ErrRedisGet = errors.New("redis get error")
	ErrRedisSet = errors.New("redis set error")
)

var (
	ErrDatabaseQuery  = errors.New("database query error")
	ErrDatabaseInsert = errors.New("database insert error")
	ErrDatabaseUpdate = errors.New("database update error")
	ErrDatabaseDelete = errors.New("database delete error")
	ErrMatchNotFound  = errors.New("match not found")
)

var (
	ErrInvalidRole = errors.New("invalid role")
	ErrInvalidPin  = errors.New("invalid pin")
)
