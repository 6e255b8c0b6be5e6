package validators

// Field name constants used to restrict validation to a subset of fields.
const (
	// FieldHomeserver targets the server address of login credentials.
	FieldHomeserver = "homeserver"

	// FieldUsername targets the localpart or full user id.
	FieldUsername = "username"

	// FieldPassword targets the password bytes. Validation never reads the
	// content, only its length.
	FieldPassword = "password"

	// FieldKind targets the kind of an outgoing action.
	FieldKind = "kind"

	// FieldBody targets the text of a message, reply or edit.
	FieldBody = "body"

	// FieldTarget targets the event a reply, edit, reaction or redaction
	// refers to.
	FieldTarget = "target"

	// FieldKey targets the reaction key.
	FieldKey = "key"

	// FieldMedia targets the uploaded content of an attachment.
	FieldMedia = "media"

	// FieldName targets the name of a new room.
	FieldName = "name"

	// FieldTopic targets the topic of a new room.
	FieldTopic = "topic"

	// FieldInvite targets the invite list of a new room.
	FieldInvite = "invite"
)

// MaxBodyBytes caps the size of one outgoing text body. Matrix limits whole
// events to 65536 bytes; the rest is left for the envelope.
const MaxBodyBytes = 60000

// MaxNameBytes caps room and display names.
const MaxNameBytes = 255
