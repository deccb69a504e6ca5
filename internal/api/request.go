package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/binrc/roma-client-go/internal/apierrors"
)

// ContentType selects how a request body is encoded.
type ContentType string

const (
	ContentTypeJSON ContentType = "application/json"
	ContentTypeForm ContentType = "application/x-www-form-urlencoded"
)

// Request describes one API call. It is built per call and never stored.
type Request struct {
	// Method is GET, POST, PUT, DELETE or HEAD.
	Method string
	// Path is relative to the API root; leading slashes are ignored.
	Path string
	// Params is a map or a struct with JSON tags. Nil-valued entries are
	// dropped. GET sends them as the query string, HEAD drops them, every
	// other method sends them as the body.
	Params any
	// Public requests carry no credentials.
	Public bool
	// ContentType defaults to ContentTypeJSON.
	ContentType ContentType
}

type builtRequest struct {
	method    string
	url       string
	logURL    string
	header    http.Header
	body      []byte
	requestID string
}

// JoinURL joins base and path with exactly one slash between them.
func JoinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

func (c *Client) build(req Request) (*builtRequest, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = ContentTypeJSON
	}

	params, err := filterParams(req.Params)
	if err != nil {
		return nil, invalidRequest(err)
	}

	creds, err := c.store.Get()
	if err != nil {
		return nil, invalidRequest(fmt.Errorf("load credentials: %w", err))
	}

	b := &builtRequest{
		method:    method,
		url:       JoinURL(c.baseURL, req.Path),
		header:    make(http.Header),
		requestID: uuid.NewString(),
	}

	b.header.Set("Content-Type", string(contentType))
	b.header.Set("Accept", "application/json")
	b.header.Set("User-Agent", c.userAgent)
	b.header.Set("X-Request-ID", b.requestID)

	if !req.Public {
		switch {
		case creds.Token != "":
			b.header.Set("Authorization", "Bearer "+creds.Token)
		case creds.APIKey != "":
			b.header.Set("apikey", creds.APIKey)
		}
	}

	switch method {
	case http.MethodGet:
		query := url.Values{}
		for k, v := range params {
			addFormValue(query, k, v)
		}
		if !req.Public && creds.Token == "" && creds.APIKey != "" {
			query.Set("apikey", creds.APIKey)
		}
		if len(query) > 0 {
			sep := "?"
			if strings.Contains(b.url, "?") {
				sep = "&"
			}
			b.url += sep + query.Encode()
		}
	case http.MethodHead:
	default:
		body, err := encodeBody(contentType, params)
		if err != nil {
			return nil, invalidRequest(err)
		}
		b.body = body
	}

	b.logURL = redactURL(b.url)
	return b, nil
}

func invalidRequest(err error) *apierrors.Error {
	return apierrors.New(apierrors.KindInvalidRequest, err)
}

// filterParams turns params into a flat map without nil values.
func filterParams(params any) (map[string]any, error) {
	if isNil(params) {
		return nil, nil
	}

	var m map[string]any
	if direct, ok := params.(map[string]any); ok {
		m = direct
	} else {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("encode params: %w", err)
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&m); err != nil {
			return nil, fmt.Errorf("params must encode as a JSON object: %w", err)
		}
	}

	out := make(map[string]any, len(m))
	for k, v := range m {
		if isNil(v) {
			continue
		}
		out[k] = v
	}
	return out, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func encodeBody(contentType ContentType, params map[string]any) ([]byte, error) {
	if contentType == ContentTypeForm {
		form := url.Values{}
		for k, v := range params {
			addFormValue(form, k, v)
		}
		return []byte(form.Encode()), nil
	}

	if params == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	return data, nil
}

// addFormValue adds v under key. Floats are written without exponents.
// Slices become repeated keys; maps and structs are sent as their JSON text.
func addFormValue(values url.Values, key string, v any) {
	if isNil(v) {
		return
	}
	switch val := v.(type) {
	case string:
		values.Add(key, val)
		return
	case json.Number:
		values.Add(key, val.String())
		return
	case fmt.Stringer:
		values.Add(key, val.String())
		return
	case []byte:
		values.Add(key, string(val))
		return
	case float64:
		values.Add(key, strconv.FormatFloat(val, 'f', -1, 64))
		return
	case float32:
		values.Add(key, strconv.FormatFloat(float64(val), 'f', -1, 32))
		return
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			addFormValue(values, key, rv.Index(i).Interface())
		}
	case reflect.Map, reflect.Struct:
		data, err := json.Marshal(v)
		if err != nil {
			values.Add(key, fmt.Sprint(v))
			return
		}
		values.Add(key, string(data))
	case reflect.Pointer:
		addFormValue(values, key, rv.Elem().Interface())
	default:
		values.Add(key, fmt.Sprint(v))
	}
}

// redactURL hides an apikey query value so it never reaches the logs.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if !q.Has("apikey") {
		return raw
	}
	q.Set("apikey", "REDACTED")
	u.RawQuery = q.Encode()
	return u.String()
}
