package main

import (
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestBoardOpenAPIDocumentPasses(t *testing.T) {
	doc, err := loadDoc(filepath.Join("..", "..", "services", "board", "api", "openapi.yaml"))
	if err != nil {
		t.Fatalf("load doc: %v", err)
	}
	if err := checkDoc(doc); err != nil {
		t.Fatalf("check doc: %v", err)
	}
}

func TestCheckDocRejectsDrift(t *testing.T) {
	const ops = `
paths:
  /healthz: {get: {}}
  /metrics: {get: {}}
components:
  responses:
    NotFound: {}
    MethodNotAllowed: {}
`
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "missing metrics path",
			doc:  "paths:\n  /healthz:\n    get: {}\n",
			want: `paths."/metrics" must declare get`,
		},
		{
			name: "missing method not allowed response",
			doc: `
paths:
  /healthz: {get: {}}
  /metrics: {get: {}}
components:
  responses:
    NotFound: {}
`,
			want: "components.responses.MethodNotAllowed missing",
		},
		{
			name: "missing root path",
			doc:  ops,
			want: `paths must include "/"`,
		},
		{
			name: "extra method",
			doc: `
paths:
  /healthz: {get: {}}
  /metrics: {get: {}}
  /:
    get: {}
    post: {}
    delete: {}
components:
  responses:
    NotFound: {}
    MethodNotAllowed: {}
`,
			want: "exactly get and post",
		},
		{
			name: "string timestamp",
			doc: `
paths:
  /healthz: {get: {}}
  /metrics: {get: {}}
  /:
    get: {}
    post: {}
components:
  responses:
    NotFound: {}
    MethodNotAllowed: {}
  schemas:
    ErrorResponse:
      type: object
      required: [error, code]
      properties:
        error: {type: string}
        code: {type: string}
        requestId: {type: string}
    PostMessageResponse:
      type: object
      required: [timestamp]
      properties:
        timestamp: {type: string}
`,
			want: "timestamp must be integer/int64",
		},
		{
			name: "error code optional",
			doc: `
paths:
  /healthz: {get: {}}
  /metrics: {get: {}}
  /:
    get: {}
    post: {}
components:
  responses:
    NotFound: {}
    MethodNotAllowed: {}
  schemas:
    ErrorResponse:
      type: object
      required: [error]
      properties:
        error: {type: string}
        code: {type: string}
`,
			want: `must include "code"`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var doc openAPIDoc
			if err := yaml.Unmarshal([]byte(tc.doc), &doc); err != nil {
				t.Fatalf("parse: %v", err)
			}
			err := checkDoc(doc)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("got %v, want error containing %q", err, tc.want)
			}
		})
	}
}
