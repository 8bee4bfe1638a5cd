package server

import (
	"strings"
	"testing"

	"msgboard/pkg/domain"
)

func TestRenderListsMessagesInOrder(t *testing.T) {
	page, err := newPageRenderer().Render([]domain.Message{
		{Username: "anonymous", Message: "hi", Timestamp: 10},
		{Username: "ana", Message: "second", Timestamp: 20},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	body := string(page)
	if !strings.Contains(body, "<title>microservice</title>") {
		t.Fatalf("missing title: %s", body)
	}
	if !strings.Contains(body, "font-family:monospace") {
		t.Fatalf("missing monospace style: %s", body)
	}
	first := strings.Index(body, "<li>anonymous (10): hi</li>")
	second := strings.Index(body, "<li>ana (20): second</li>")
	if first < 0 || second < 0 {
		t.Fatalf("entries not rendered: %s", body)
	}
	if first > second {
		t.Fatalf("entries out of order: %s", body)
	}
}

func TestRenderEscapesMarkup(t *testing.T) {
	page, err := newPageRenderer().Render([]domain.Message{
		{Username: "<b>eve</b>", Message: "<script>alert(1)</script>", Timestamp: 1},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	body := string(page)
	if strings.Contains(body, "<script>") || strings.Contains(body, "<b>") {
		t.Fatalf("markup not escaped: %s", body)
	}
}

func TestRenderEmptyList(t *testing.T) {
	page, err := newPageRenderer().Render(nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	body := string(page)
	if !strings.Contains(body, "<ul></ul>") {
		t.Fatalf("expected empty list: %s", body)
	}
	if strings.Contains(body, "<li>") {
		t.Fatalf("unexpected entries: %s", body)
	}
}
