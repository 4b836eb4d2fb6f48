package adapt

import (
	"bytes"
	"encoding/json"

	apperr "github.com/ve11yn/dochi/internal/errors"
	"github.com/ve11yn/dochi/internal/types"
	"github.com/ve11yn/dochi/internal/wire"
)

// Priority converts a wire priority variant. Unknown tags default to Medium.
func Priority(v wire.Variant) types.Priority {
	p := types.Priority(v.Tag)
	if !p.Valid() {
		integrityWarning("priority", v.Tag, string(types.PriorityMedium))
		return types.PriorityMedium
	}
	return p
}

// PriorityVariant converts a UI priority. The empty priority is Medium;
// anything else unknown is logged and sent as Medium.
func PriorityVariant(p types.Priority) wire.Variant {
	if p == "" {
		return wire.Tag(string(types.PriorityMedium))
	}
	if !p.Valid() {
		integrityWarning("priority", string(p), string(types.PriorityMedium))
		return wire.Tag(string(types.PriorityMedium))
	}
	return wire.Tag(string(p))
}

var errorTags = map[string]apperr.Kind{
	"NotFound":      apperr.KindNotFound,
	"AlreadyExists": apperr.KindAlreadyExists,
	"InvalidInput":  apperr.KindInvalidInput,
	"NotAuthorized": apperr.KindNotAuthorized,
}

// Rejection converts the err branch of a wire result into a business error.
// Services reject either with free text or with an error variant whose
// payload, when present, is a message.
func Rejection(op string, raw json.RawMessage) *apperr.Error {
	raw = bytes.TrimSpace(raw)

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return apperr.New(apperr.KindRejected, op, text)
	}

	var v wire.Variant
	if err := json.Unmarshal(raw, &v); err != nil {
		return apperr.NewDecodeError(op, err)
	}
	kind, ok := errorTags[v.Tag]
	if !ok {
		integrityWarning("error_kind", v.Tag, apperr.KindRejected.String())
		return apperr.New(apperr.KindRejected, op, v.Tag)
	}

	msg := kind.String()
	var detail string
	if len(v.Value) > 0 && json.Unmarshal(v.Value, &detail) == nil && detail != "" {
		msg = detail
	}
	return apperr.New(kind, op, msg)
}

// RejectionVariant is the inverse of Rejection for variant-typed errors.
// Kinds without a wire tag are encoded as free text.
func RejectionVariant(kind apperr.Kind, message string) json.RawMessage {
	for tag, k := range errorTags {
		if k == kind {
			raw, _ := json.Marshal(wire.Tag(tag))
			return raw
		}
	}
	raw, _ := json.Marshal(message)
	return raw
}
