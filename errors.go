package casekit

import (
	ckerrors "go.pilab.hu/casekit/errors"
)

// Re-exported error values so facade callers only need the root package.
var (
	ErrInvalidCredentials = ckerrors.ErrInvalidCredentials
	ErrAccountDisabled    = ckerrors.ErrAccountDisabled

	ErrSessionNotFound = ckerrors.ErrSessionNotFound
	ErrSessionExpired  = ckerrors.ErrSessionExpired
	ErrSessionRevoked  = ckerrors.ErrSessionRevoked

	ErrNotLoaded = ckerrors.ErrNotLoaded
	ErrPending   = ckerrors.ErrPending

	ErrUnauthorized = ckerrors.ErrUnauthorized
	ErrCaseNotFound = ckerrors.ErrCaseNotFound
	ErrNotCaseOwner = ckerrors.ErrNotCaseOwner
)

// DecodeError is re-exported for callers inspecting decode failures.
type DecodeError = ckerrors.DecodeError
