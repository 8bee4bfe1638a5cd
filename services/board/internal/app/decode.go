package app

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"msgboard/pkg/domain"
)

// ReadForm reads the whole body and decodes it with DecodeForm. Bodies cut
// short by http.MaxBytesReader fail with ErrBodyTooLarge.
func ReadForm(body io.Reader) (domain.PendingMessage, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.PendingMessage{}, validationError(ErrBodyTooLarge.Error(), ErrBodyTooLarge)
		}
		return domain.PendingMessage{}, validationError(ErrInvalidForm.Error(), fmt.Errorf("%w: %v", ErrInvalidForm, err))
	}
	return DecodeForm(data)
}

// DecodeForm parses a URL-encoded post body. The message key must be present;
// an absent or empty username becomes domain.DefaultUsername.
func DecodeForm(body []byte) (domain.PendingMessage, error) {
	values := parsePairs(string(body))
	message, ok := values["message"]
	if !ok {
		return domain.PendingMessage{}, validationError(ErrMessageRequired.Error(), ErrMessageRequired)
	}
	username := values["username"]
	if username == "" {
		username = domain.DefaultUsername
	}
	return domain.PendingMessage{Username: username, Message: message}, nil
}

// DecodeQuery parses the optional before/after filter. Any unparsable bound
// fails the whole filter.
func DecodeQuery(raw string) (domain.TimeRange, error) {
	if raw == "" {
		return domain.TimeRange{}, nil
	}
	values := parsePairs(raw)
	before, err := parseBound(values, "before")
	if err != nil {
		return domain.TimeRange{}, err
	}
	after, err := parseBound(values, "after")
	if err != nil {
		return domain.TimeRange{}, err
	}
	return domain.TimeRange{Before: before, After: after}, nil
}

func parseBound(values map[string]string, key string) (*int64, error) {
	raw, ok := values[key]
	if !ok {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		msg := fmt.Sprintf("error parsing '%s': %v", key, err)
		return nil, validationError(msg, fmt.Errorf("%w: %v", ErrInvalidFilter, err))
	}
	return &n, nil
}

// parsePairs splits on '&' only and never fails: ';' is literal, a broken
// escape is kept as written, and a repeated key keeps its last value.
func parsePairs(raw string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		out[unescapeLenient(key)] = unescapeLenient(value)
	}
	return out
}

func unescapeLenient(s string) string {
	s = strings.ReplaceAll(s, "+", " ")
	if v, err := url.PathUnescape(s); err == nil {
		return v
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			if decoded, err := hex.DecodeString(s[i+1 : i+3]); err == nil {
				b.WriteByte(decoded[0])
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
