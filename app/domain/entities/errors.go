package entities

import "errors"

var (
	// ErrNotFound is returned by repositories when a key has no stored value.
	ErrNotFound = errors.New("not found")

	ErrMissingCredential = errors.New("please enter your OpenAI API key")
	ErrNotConfigured     = errors.New("please configure your OpenAI API key first")
	ErrEmptyInput        = errors.New("empty input")
	ErrBusy              = errors.New("a request from this control is already in progress")
	ErrUnknownMode       = errors.New("unknown mode")
)
