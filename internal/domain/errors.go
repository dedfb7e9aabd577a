package domain

import "errors"

var (
	// ErrNotFound indicates a requested article or revision does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnknownBlockType indicates a type outside the closed block set.
	ErrUnknownBlockType = errors.New("unknown block type")

	// ErrInvalidContent indicates content or meta with the wrong variant shape.
	ErrInvalidContent = errors.New("invalid block content")

	// ErrSessionOpen indicates an editing session is already open for an article.
	ErrSessionOpen = errors.New("editing session already open")

	// ErrSessionClosed indicates the article has no open editing session.
	ErrSessionClosed = errors.New("no open editing session")
)
