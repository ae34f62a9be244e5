package llm

import (
	"errors"
	"strings"
	"testing"
)

func TestReadEvents(t *testing.T) {
	body := "event: response.output_text.delta\n" +
		"data: {\"delta\":\"a\"}\n\n" +
		": keep-alive comment\n\n" +
		"data: first\n" +
		"data: second\n\n" +
		"data: [DONE]"

	var got []Event
	for ev, err := range ReadEvents(strings.NewReader(body)) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got = append(got, ev)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d: %+v", len(got), got)
	}
	if got[0].Name != "response.output_text.delta" || got[0].Data != `{"delta":"a"}` {
		t.Fatalf("unexpected first event %+v", got[0])
	}
	if got[1].Name != "" || got[1].Data != "first\nsecond" {
		t.Fatalf("unexpected multi-line event %+v", got[1])
	}
	if got[2].Data != "[DONE]" {
		t.Fatalf("trailing event lost: %+v", got[2])
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestReadEventsReportsReadError(t *testing.T) {
	var gotErr error
	for _, err := range ReadEvents(failingReader{}) {
		gotErr = err
	}
	if gotErr == nil || !strings.Contains(gotErr.Error(), "connection reset") {
		t.Fatalf("expected read error, got %v", gotErr)
	}
}

func TestApplyDefaults(t *testing.T) {
	o := Apply(Options{Model: "m", BaseURL: "http://x"}, WithModel(""), WithInstructions("be brief"))
	if o.Model != "m" || o.Instructions != "be brief" || o.HTTPClient == nil {
		t.Fatalf("unexpected options %+v", o)
	}
	if Apply(Options{}).Instructions != DefaultInstructions {
		t.Fatalf("default instructions not applied")
	}
}
