package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeDiscord represents Discord-related errors
	ErrorTypeDiscord ErrorType = "discord"
	// ErrorTypeInput represents malformed community records
	ErrorTypeInput ErrorType = "input"
	// ErrorTypeGraph represents graph database errors
	ErrorTypeGraph ErrorType = "graph"
	// ErrorTypeStorage represents snapshot and artifact storage errors
	ErrorTypeStorage ErrorType = "storage"
	// ErrorTypeExport represents layout/render errors
	ErrorTypeExport ErrorType = "export"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeContext represents context cancellation/timeout errors
	ErrorTypeContext ErrorType = "context"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// Kind reports the error category
func (e *BaseError) Kind() ErrorType {
	return e.Type
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Input Errors

// ErrMalformedTimestamp is returned when a message timestamp cannot be parsed
type ErrMalformedTimestamp struct {
	*BaseError
	ChannelID string
	Index     int
	Raw       string
}

func NewMalformedTimestamp(channelID string, index int, raw string, err error) *ErrMalformedTimestamp {
	return &ErrMalformedTimestamp{
		BaseError: NewBaseError(ErrorTypeInput, fmt.Sprintf("malformed timestamp %q", raw), err),
		ChannelID: channelID,
		Index:     index,
		Raw:       raw,
	}
}

// ErrInputSchema is returned when a message or mention is missing required fields
type ErrInputSchema struct {
	*BaseError
	ChannelID string
	Index     int
	Field     string
}

func NewInputSchema(channelID string, index int, field string, err error) *ErrInputSchema {
	return &ErrInputSchema{
		BaseError: NewBaseError(ErrorTypeInput, fmt.Sprintf("missing or invalid field: %s", field), err),
		ChannelID: channelID,
		Index:     index,
		Field:     field,
	}
}

// Discord Errors

// ErrDiscordGuildNotFound is returned when no guild with the requested name is visible to the token
type ErrDiscordGuildNotFound struct {
	*BaseError
	GuildName string
}

func NewDiscordGuildNotFound(guildName string) *ErrDiscordGuildNotFound {
	return &ErrDiscordGuildNotFound{
		BaseError: NewBaseError(ErrorTypeDiscord, fmt.Sprintf("guild not found: %s", guildName), nil),
		GuildName: guildName,
	}
}

// ErrDiscordAuthFailed is returned when Discord rejects the token
type ErrDiscordAuthFailed struct {
	*BaseError
}

func NewDiscordAuthFailed(err error) *ErrDiscordAuthFailed {
	return &ErrDiscordAuthFailed{
		BaseError: NewBaseError(ErrorTypeDiscord, "authentication failed", err),
	}
}

// ErrDiscordChannelFetchFailed is returned when a channel history request fails
type ErrDiscordChannelFetchFailed struct {
	*BaseError
	ChannelID  string
	StatusCode int
}

func NewDiscordChannelFetchFailed(channelID string, statusCode int, err error) *ErrDiscordChannelFetchFailed {
	return &ErrDiscordChannelFetchFailed{
		BaseError:  NewBaseError(ErrorTypeDiscord, fmt.Sprintf("failed to fetch channel %s (status %d)", channelID, statusCode), err),
		ChannelID:  channelID,
		StatusCode: statusCode,
	}
}

// Graph Errors

// ErrGraphConnectionFailed is returned when Neo4j connection fails
type ErrGraphConnectionFailed struct {
	*BaseError
	URI string
}

func NewGraphConnectionFailed(uri string, err error) *ErrGraphConnectionFailed {
	return &ErrGraphConnectionFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("failed to connect to Neo4j: %s", uri), err),
		URI:       uri,
	}
}

// ErrGraphQueryFailed is returned when a graph query fails
type ErrGraphQueryFailed struct {
	*BaseError
	Query string
}

func NewGraphQueryFailed(query string, err error) *ErrGraphQueryFailed {
	return &ErrGraphQueryFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("query failed: %s", query), err),
		Query:     query,
	}
}

// ErrServerNotFound is returned when no graph was saved for a server
type ErrServerNotFound struct {
	*BaseError
	ServerID string
}

func NewServerNotFound(serverID string) *ErrServerNotFound {
	return &ErrServerNotFound{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("server not found: %s", serverID), nil),
		ServerID:  serverID,
	}
}

// Storage Errors

// ErrStorageFailed is returned when a snapshot or artifact backend operation fails
type ErrStorageFailed struct {
	*BaseError
	Operation string
}

func NewStorageFailed(operation string, err error) *ErrStorageFailed {
	return &ErrStorageFailed{
		BaseError: NewBaseError(ErrorTypeStorage, fmt.Sprintf("storage operation failed: %s", operation), err),
		Operation: operation,
	}
}

// ErrSnapshotNotFound is returned when no snapshot exists for a server
type ErrSnapshotNotFound struct {
	*BaseError
	ServerID string
}

func NewSnapshotNotFound(serverID string) *ErrSnapshotNotFound {
	return &ErrSnapshotNotFound{
		BaseError: NewBaseError(ErrorTypeStorage, fmt.Sprintf("snapshot not found: %s", serverID), nil),
		ServerID:  serverID,
	}
}

// ErrArtifactNotFound is returned when a rendered graph id is unknown
type ErrArtifactNotFound struct {
	*BaseError
	ArtifactID string
}

func NewArtifactNotFound(id string) *ErrArtifactNotFound {
	return &ErrArtifactNotFound{
		BaseError:  NewBaseError(ErrorTypeStorage, fmt.Sprintf("artifact not found: %s", id), nil),
		ArtifactID: id,
	}
}

// Export Errors

// ErrUnknownLayout is returned when a layout name is not registered
type ErrUnknownLayout struct {
	*BaseError
	Layout string
}

func NewUnknownLayout(layout string) *ErrUnknownLayout {
	return &ErrUnknownLayout{
		BaseError: NewBaseError(ErrorTypeExport, fmt.Sprintf("unknown layout: %s", layout), nil),
		Layout:    layout,
	}
}

// Context Errors

// ErrContextCancelled is returned when context is cancelled
type ErrContextCancelled struct {
	*BaseError
	Operation string
}

func NewContextCancelled(operation string, err error) *ErrContextCancelled {
	return &ErrContextCancelled{
		BaseError: NewBaseError(ErrorTypeContext, fmt.Sprintf("context cancelled: %s", operation), err),
		Operation: operation,
	}
}

// ErrContextTimeout is returned when context times out
type ErrContextTimeout struct {
	*BaseError
	Operation string
	Timeout   time.Duration
}

func NewContextTimeout(operation string, timeout time.Duration) *ErrContextTimeout {
	return &ErrContextTimeout{
		BaseError: NewBaseError(ErrorTypeContext, fmt.Sprintf("context timeout: %s (timeout: %v)", operation, timeout), nil),
		Operation: operation,
		Timeout:   timeout,
	}
}

// Config Errors

// ErrConfigValidationFailed is returned when configuration validation fails
type ErrConfigValidationFailed struct {
	*BaseError
	Field  string
	Reason string
}

func NewConfigValidationFailed(field, reason string) *ErrConfigValidationFailed {
	return &ErrConfigValidationFailed{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("config validation failed: %s - %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Helper functions

type kinded interface {
	Kind() ErrorType
}

// IsErrorType checks if an error, or anything it wraps, is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	var k kinded
	if stderrors.As(err, &k) {
		return k.Kind() == errType
	}
	return false
}

// IsRetryable reports whether a Discord request failed transiently
func IsRetryable(err error) bool {
	var fetchErr *ErrDiscordChannelFetchFailed
	if stderrors.As(err, &fetchErr) {
		// 5xx and rate limiting are transient, 403/404 are not
		return fetchErr.StatusCode >= 500 || fetchErr.StatusCode == 429
	}
	return false
}
