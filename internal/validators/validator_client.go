package validators

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/MKhiriev/go-multimatrix/models"
)

// ClientValidator checks user input before it reaches a protocol client.
type ClientValidator struct {
}

func NewClientValidator() Validator {
	return &ClientValidator{}
}

func (v *ClientValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch value := obj.(type) {
	case models.Credentials:
		return v.validateCredentials(ctx, value, fields...)
	case *models.Credentials:
		return v.validateCredentials(ctx, *value, fields...)

	case models.Outgoing:
		return v.validateOutgoing(ctx, value, fields...)
	case *models.Outgoing:
		return v.validateOutgoing(ctx, *value, fields...)

	case models.NewRoom:
		return v.validateNewRoom(ctx, value, fields...)
	case *models.NewRoom:
		return v.validateNewRoom(ctx, *value, fields...)

	default:
		return ErrUnsupportedType
	}
}

func (v *ClientValidator) validateCredentials(ctx context.Context, creds models.Credentials, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldHomeserver, FieldUsername, FieldPassword}
	}

	for _, f := range fields {
		switch f {
		case FieldHomeserver:
			if strings.TrimSpace(creds.Homeserver) == "" {
				return ErrEmptyHomeserver
			}
			if !isValidHomeserver(creds.Homeserver) {
				return ErrInvalidHomeserver
			}
		case FieldUsername:
			if strings.TrimSpace(creds.Username) == "" {
				return ErrEmptyUsername
			}
		case FieldPassword:
			if len(creds.Password) == 0 {
				return ErrEmptyPassword
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

func (v *ClientValidator) validateOutgoing(ctx context.Context, msg models.Outgoing, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldKind, FieldBody, FieldTarget, FieldKey, FieldMedia}
	}

	for _, f := range fields {
		switch f {
		case FieldKind:
			if msg.Kind < models.OutgoingText || msg.Kind > models.OutgoingAttachment {
				return ErrInvalidKind
			}
		case FieldBody:
			if !carriesBody(msg.Kind) {
				continue
			}
			if strings.TrimSpace(msg.Body) == "" {
				return ErrEmptyBody
			}
			if len(msg.Body) > MaxBodyBytes {
				return ErrBodyTooLong
			}
		case FieldTarget:
			switch msg.Kind {
			case models.OutgoingReply, models.OutgoingEdit, models.OutgoingReaction, models.OutgoingRedaction:
				if msg.TargetID == "" {
					return ErrMissingTarget
				}
			default:
				if msg.TargetID != "" {
					return ErrUnexpectedTarget
				}
			}
		case FieldKey:
			if msg.Kind == models.OutgoingReaction && strings.TrimSpace(msg.Key) == "" {
				return ErrEmptyReactionKey
			}
		case FieldMedia:
			if msg.Kind != models.OutgoingAttachment {
				if msg.Media != nil {
					return ErrUnexpectedMedia
				}
				continue
			}
			if msg.Media == nil || msg.Media.URI == "" {
				return ErrMissingMedia
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

func (v *ClientValidator) validateNewRoom(ctx context.Context, room models.NewRoom, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldName, FieldTopic, FieldInvite}
	}

	for _, f := range fields {
		switch f {
		case FieldName:
			if len(room.Name) > MaxNameBytes {
				return ErrNameTooLong
			}
		case FieldTopic:
			if len(room.Topic) > MaxBodyBytes {
				return ErrTopicTooLong
			}
		case FieldInvite:
			for _, id := range room.Invitees() {
				if err := CheckUserID(id); err != nil {
					return err
				}
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

// CheckUserID accepts fully qualified user ids, "@localpart:server".
func CheckUserID(id string) error {
	local, server, ok := strings.Cut(strings.TrimPrefix(id, "@"), ":")
	if !strings.HasPrefix(id, "@") || !ok || local == "" || server == "" || strings.ContainsAny(id, " \t\n") {
		return fmt.Errorf("%w: %q", ErrInvalidUserID, id)
	}
	return nil
}

func carriesBody(kind models.OutgoingKind) bool {
	switch kind {
	case models.OutgoingReaction, models.OutgoingRedaction:
		return false
	default:
		return true
	}
}

// isValidHomeserver accepts a bare host[:port] or an http(s) URL with a host.
func isValidHomeserver(raw string) bool {
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "https" || u.Scheme == "http") && u.Host != ""
}
