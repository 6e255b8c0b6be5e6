package validators

import "errors"

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")
	ErrUnknownField    = errors.New("unknown field for validation")

	ErrEmptyHomeserver   = errors.New("homeserver is required")
	ErrInvalidHomeserver = errors.New("homeserver must be a host or an http(s) URL")
	ErrEmptyUsername     = errors.New("username is required")
	ErrEmptyPassword     = errors.New("password is required")
	ErrEmptyBody         = errors.New("message body cannot be empty")
	ErrBodyTooLong       = errors.New("message body is too long")
	ErrMissingTarget     = errors.New("target event is required")
	ErrUnexpectedTarget  = errors.New("plain messages cannot target an event")
	ErrEmptyReactionKey  = errors.New("reaction key cannot be empty")
	ErrInvalidKind       = errors.New("invalid outgoing kind")
	ErrMissingMedia      = errors.New("attachment has no uploaded content")
	ErrUnexpectedMedia   = errors.New("only attachments carry content")
	ErrNameTooLong       = errors.New("name is too long")
	ErrTopicTooLong      = errors.New("topic is too long")
	ErrInvalidUserID     = errors.New("user id must look like @name:server")
)
