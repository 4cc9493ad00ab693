package ghcli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ciforge/ciforge/internal/core"
	"github.com/ciforge/ciforge/internal/proc"
)

func writeStub(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gh")
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestClient(t *testing.T, stub string) *Client {
	t.Helper()
	return NewClient(proc.NewRunner(0, 0), stub, t.TempDir())
}

func TestListRunsDecodesJSON(t *testing.T) {
	stub := writeStub(t, `#!/bin/sh
echo '[{"databaseId":7,"status":"completed","conclusion":"success","workflowName":"CI","headBranch":"main","createdAt":"2026-08-20T10:00:00Z","url":"u"}]'
`)
	runs, err := newTestClient(t, stub).ListRuns(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != 7 || runs[0].Conclusion != "success" {
		t.Fatalf("unexpected runs: %+v", runs)
	}
}

func TestCheckAuthRejected(t *testing.T) {
	stub := writeStub(t, `#!/bin/sh
echo "You are not logged into any GitHub hosts" 1>&2
exit 1
`)
	err := newTestClient(t, stub).CheckAuth(context.Background())
	if err == nil {
		t.Fatal("expected auth error")
	}
	var coded core.CodedError
	if !errors.As(err, &coded) || coded.ErrorCode() != core.ErrCodeAuthFailed {
		t.Fatalf("expected auth_failed code, got %v", err)
	}
}

func TestListRunsCredentialErrorCode(t *testing.T) {
	stub := writeStub(t, `#!/bin/sh
echo "HTTP 401: bad credentials" 1>&2
exit 1
`)
	_, err := newTestClient(t, stub).ListRuns(context.Background(), "", 0)
	if err == nil {
		t.Fatal("expected error")
	}
	var coded core.CodedError
	if !errors.As(err, &coded) || coded.ErrorCode() != core.ErrCodeAuthFailed {
		t.Fatalf("expected auth_failed code, got %v", err)
	}
}

func TestListRunsBadJSON(t *testing.T) {
	stub := writeStub(t, `#!/bin/sh
echo "not json"
`)
	if _, err := newTestClient(t, stub).ListRuns(context.Background(), "", 0); err == nil {
		t.Fatal("expected decode error")
	}
}
