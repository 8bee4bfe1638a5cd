package app

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"msgboard/pkg/domain"
)

func TestDecodeForm(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantUser string
		wantMsg  string
	}{
		{name: "message only", body: "message=hi", wantUser: domain.DefaultUsername, wantMsg: "hi"},
		{name: "both fields", body: "username=ana&message=hello+world", wantUser: "ana", wantMsg: "hello world"},
		{name: "percent encoded", body: "message=a%26b&username=x%3Dy", wantUser: "x=y", wantMsg: "a&b"},
		{name: "empty message kept", body: "message=", wantUser: domain.DefaultUsername, wantMsg: ""},
		{name: "extra fields ignored", body: "message=m&color=red", wantUser: domain.DefaultUsername, wantMsg: "m"},
		{name: "empty username defaults", body: "username=&message=hi", wantUser: domain.DefaultUsername, wantMsg: "hi"},
		{name: "semicolon is literal", body: "message=a;b", wantUser: domain.DefaultUsername, wantMsg: "a;b"},
		{name: "semicolon in username", body: "message=hi&username=a;b", wantUser: "a;b", wantMsg: "hi"},
		{name: "trailing percent kept", body: "message=100%", wantUser: domain.DefaultUsername, wantMsg: "100%"},
		{name: "bad escape kept", body: "message=%zz%41", wantUser: domain.DefaultUsername, wantMsg: "%zzA"},
		{name: "last value wins", body: "message=one&message=two", wantUser: domain.DefaultUsername, wantMsg: "two"},
		{name: "key without value", body: "message", wantUser: domain.DefaultUsername, wantMsg: ""},
		{name: "empty segments skipped", body: "&&message=x&&", wantUser: domain.DefaultUsername, wantMsg: "x"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeForm([]byte(tc.body))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.Username != tc.wantUser || got.Message != tc.wantMsg {
				t.Fatalf("got %+v, want username=%q message=%q", got, tc.wantUser, tc.wantMsg)
			}
		})
	}
}

func TestDecodeFormMissingMessage(t *testing.T) {
	_, err := DecodeForm([]byte("username=ana"))
	if !errors.Is(err, ErrMessageRequired) {
		t.Fatalf("expected ErrMessageRequired, got %v", err)
	}
	if KindOf(err) != KindValidation {
		t.Fatalf("kind = %v, want validation", KindOf(err))
	}
	if got := PublicMessage(err); got != "missing field 'message'" {
		t.Fatalf("public message = %q", got)
	}
}

func TestDecodeFormMalformedBodyStillNeedsMessage(t *testing.T) {
	_, err := DecodeForm([]byte("username=%zz;x"))
	if !errors.Is(err, ErrMessageRequired) {
		t.Fatalf("expected ErrMessageRequired, got %v", err)
	}
}

func TestDecodeQuery(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantBefore *int64
		wantAfter  *int64
	}{
		{name: "absent", raw: ""},
		{name: "before", raw: "before=100", wantBefore: ptr(100)},
		{name: "after", raw: "after=5", wantAfter: ptr(5)},
		{name: "both", raw: "after=5&before=100", wantBefore: ptr(100), wantAfter: ptr(5)},
		{name: "negative", raw: "after=-3", wantAfter: ptr(-3)},
		{name: "unrelated keys", raw: "page=2"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeQuery(tc.raw)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !sameBound(got.Before, tc.wantBefore) || !sameBound(got.After, tc.wantAfter) {
				t.Fatalf("got before=%v after=%v", deref(got.Before), deref(got.After))
			}
		})
	}
}

func TestDecodeQueryRejectsUnparsableBound(t *testing.T) {
	tests := []struct {
		raw   string
		field string
	}{
		{raw: "before=abc", field: "'before'"},
		{raw: "after=1.5", field: "'after'"},
		{raw: "before=1&after=x", field: "'after'"},
		{raw: "before=", field: "'before'"},
		{raw: "before=%zz", field: "'before'"},
		{raw: "after=5;before=1", field: "'after'"},
	}
	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := DecodeQuery(tc.raw)
			if err == nil {
				t.Fatalf("expected error, got %+v", got)
			}
			if !errors.Is(err, ErrInvalidFilter) {
				t.Fatalf("expected ErrInvalidFilter, got %v", err)
			}
			if msg := PublicMessage(err); !strings.Contains(msg, tc.field) {
				t.Fatalf("message %q does not name %s", msg, tc.field)
			}
			if got.Before != nil || got.After != nil {
				t.Fatalf("expected no partial filter, got %+v", got)
			}
		})
	}
}

func ptr(v int64) *int64 { return &v }

func deref(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func sameBound(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func TestReadFormBodyTooLarge(t *testing.T) {
	body := http.MaxBytesReader(httptest.NewRecorder(), io.NopCloser(strings.NewReader("message="+strings.Repeat("x", 64))), 16)
	_, err := ReadForm(body)
	if !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("expected ErrBodyTooLarge, got %v", err)
	}
	if KindOf(err) != KindValidation {
		t.Fatalf("kind = %v, want validation", KindOf(err))
	}
}

func TestReadForm(t *testing.T) {
	got, err := ReadForm(strings.NewReader("username=bo&message=yo"))
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	if got.Username != "bo" || got.Message != "yo" {
		t.Fatalf("got %+v", got)
	}
}
