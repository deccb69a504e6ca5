package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/binrc/roma-client-go/internal/apierrors"
)

// snippetLen bounds how much of an unparseable body is kept in Error.Data.
const snippetLen = 200

// envelope is the backend's {code, msg, data} wrapper. Fields are looked up
// by presence because "data absent" and "data: null" mean different things.
type envelope struct {
	fields map[string]json.RawMessage
}

func parseEnvelope(raw json.RawMessage) envelope {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		// Valid JSON that is not an object: no code, no msg, no data.
		return envelope{}
	}
	return envelope{fields: fields}
}

// code returns the envelope code. Only JSON numbers count.
func (e envelope) code() (int, bool) {
	raw, ok := e.fields["code"]
	if !ok || len(raw) == 0 || raw[0] == '"' {
		return 0, false
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	if i, err := n.Int64(); err == nil {
		return int(i), true
	}
	if f, err := n.Float64(); err == nil && f == float64(int(f)) {
		return int(f), true
	}
	return 0, false
}

func (e envelope) str(key string) string {
	raw, ok := e.fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func (e envelope) data() (json.RawMessage, bool) {
	raw, ok := e.fields["data"]
	return raw, ok
}

// normalize turns a status, a declared content type and a body into the
// envelope data or a failure. It has no side effects; the caller handles
// the 401 credential reset.
func normalize(status int, contentType string, body []byte) (json.RawMessage, *apierrors.Error) {
	raw, failure := decodeBody(status, contentType, body)
	if failure != nil {
		return nil, failure
	}
	return dispatch(status, raw)
}

// decodeBody resolves the three accepted body shapes into envelope JSON.
func decodeBody(status int, contentType string, body []byte) (json.RawMessage, *apierrors.Error) {
	if isJSONContentType(contentType) {
		if !json.Valid(body) {
			return nil, &apierrors.Error{
				Kind:    apierrors.KindMalformedJSON,
				Message: apierrors.MsgMalformedJSON,
				Data:    snippet(body),
			}
		}
		return json.RawMessage(body), nil
	}

	text := bytes.TrimSpace(body)
	if len(text) == 0 {
		return json.RawMessage(fmt.Sprintf(`{"code":%d,"msg":"ok","data":null}`, status)), nil
	}
	if json.Valid(text) {
		return json.RawMessage(text), nil
	}
	if looksLikeHTML(text) {
		return nil, &apierrors.Error{
			Kind:    apierrors.KindHTML,
			Message: apierrors.MsgHTML,
			Data:    snippet(text),
		}
	}
	return nil, &apierrors.Error{
		Kind:    apierrors.KindMalformedBody,
		Message: apierrors.MsgMalformedBody,
		Data:    snippet(text),
	}
}

// dispatch applies the status-code rules to a parsed envelope.
func dispatch(status int, raw json.RawMessage) (json.RawMessage, *apierrors.Error) {
	env := parseEnvelope(raw)

	switch status {
	case http.StatusOK:
		code, hasCode := env.code()
		if hasCode && (code == 200 || code == 0) {
			data, hasData := env.data()
			if !hasData {
				return raw, nil
			}
			if isJSONNull(data) {
				return nil, nil
			}
			return data, nil
		}

		msg := apierrors.MsgRequestFailed
		if s := env.str("data"); s != "" {
			msg = s
		} else if s := env.str("msg"); s != "" {
			msg = s
		}
		return nil, &apierrors.Error{
			Kind:    apierrors.KindApplication,
			Message: msg,
			Code:    code,
			Data:    raw,
		}

	case http.StatusUnauthorized:
		return nil, &apierrors.Error{
			Kind:    apierrors.KindUnauthorized,
			Message: apierrors.MsgUnauthorized,
			Code:    http.StatusUnauthorized,
			Data:    raw,
		}

	case http.StatusForbidden:
		return nil, &apierrors.Error{
			Kind:    apierrors.KindForbidden,
			Message: apierrors.MsgForbidden,
			Code:    http.StatusForbidden,
			Data:    raw,
		}

	default:
		msg := env.str("msg")
		if msg == "" {
			msg = env.str("message")
		}
		if msg == "" {
			msg = apierrors.MsgRequestFailed
		}
		return nil, &apierrors.Error{
			Kind:    apierrors.KindHTTP,
			Message: msg,
			Code:    status,
			Data:    raw,
		}
	}
}

func isJSONContentType(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "application/json") || strings.Contains(ct, "text/json")
}

func looksLikeHTML(text []byte) bool {
	lower := bytes.ToLower(text)
	return bytes.HasPrefix(lower, []byte("<!doctype")) || bytes.HasPrefix(lower, []byte("<html"))
}

func isJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// snippet keeps the first snippetLen bytes of body as a JSON string.
func snippet(body []byte) json.RawMessage {
	s := string(body)
	if len(s) > snippetLen {
		s = s[:snippetLen]
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil
	}
	return data
}
