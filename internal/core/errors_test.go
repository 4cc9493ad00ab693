package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestMapErrorStatuses(t *testing.T) {
	cases := []struct {
		code   string
		status int
	}{
		{ErrCodeSchemaInvalid, 400},
		{ErrCodeYAMLInvalid, 400},
		{ErrCodeToolUnknown, 404},
		{ErrCodePathEscape, 403},
		{ErrCodeAuthFailed, 403},
		{ErrCodeBinaryMissing, 502},
		{ErrCodeTimeout, 502},
	}

	for _, tc := range cases {
		info := MapError(NewError(tc.code, "detail"), 500)
		if info.HTTPStatus != tc.status {
			t.Fatalf("%s: expected status %d, got %d", tc.code, tc.status, info.HTTPStatus)
		}
		if info.Code != tc.code {
			t.Fatalf("%s: code not preserved: %s", tc.code, info.Code)
		}
	}
}

func TestMapErrorWrapped(t *testing.T) {
	wrapped := fmt.Errorf("context: %w", NewError(ErrCodeTimeout, "clang-tidy timed out"))
	info := MapError(wrapped, 500)
	if info.Code != ErrCodeTimeout || info.HTTPStatus != 502 {
		t.Fatalf("wrapped coded error not unwrapped: %+v", info)
	}
}

func TestMapErrorFallback(t *testing.T) {
	info := MapError(errors.New("plain"), 500)
	if info.Code != ErrCodeInternal || info.HTTPStatus != 500 {
		t.Fatalf("unexpected fallback mapping: %+v", info)
	}
}
