package llm

import (
	"strings"
	"testing"

	"github.com/sadreammm/Helply/pkg/models"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "raw object", in: `{"a":1}`, want: `{"a":1}`},
		{name: "fenced", in: "Here you go:\n```json\n{\"a\": [1, 2]}\n```", want: `{"a": [1, 2]}`},
		{name: "prose around", in: `Sure! {"a":"b"} Hope that helps.`, want: `{"a":"b"}`},
		{name: "trailing commas", in: `{"a":[1,2,],}`, want: `{"a":[1,2]}`},
		{name: "no object", in: "I cannot help", wantErr: true},
		{name: "broken", in: `{"a":}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseGuidanceDefaults(t *testing.T) {
	g, err := parseGuidance(`{"actions":[{"action_type":"CLICK","priority":9},{"selector":"#x","action_type":"dance","message":"Go"}],"tip":"t"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Confidence != DefaultConfidence {
		t.Errorf("confidence = %v, want %v", g.Confidence, DefaultConfidence)
	}
	first := g.Actions[0]
	if first.Selector != "body" || first.Message != "Continue..." || first.ActionType != models.ActionClick || first.Priority != 5 {
		t.Errorf("unexpected first action: %+v", first)
	}
	second := g.Actions[1]
	if second.ActionType != models.ActionHighlight || second.Priority != 3 || second.Alternatives == nil {
		t.Errorf("unexpected second action: %+v", second)
	}

	if _, err := parseGuidance(`{"actions":[]}`); err == nil {
		t.Error("expected error for empty actions")
	}
}

func TestFallback(t *testing.T) {
	g := Fallback(2)
	if len(g.Actions) != 1 || g.Actions[0].Message != "Continue with step 2" || g.Actions[0].Selector != "body" {
		t.Errorf("unexpected fallback: %+v", g.Actions)
	}
	if g.Confidence != 0.6 {
		t.Errorf("confidence = %v, want 0.6", g.Confidence)
	}
}

func TestGuidancePromptTruncates(t *testing.T) {
	dom := make([]string, 80)
	for i := range dom {
		dom[i] = "el"
	}
	dom[MaxDOMElements] = "unique-after-limit"

	p := guidancePrompt(models.GuidanceRequest{
		TaskTitle:  "Create repo",
		StepNumber: 2,
		TotalSteps: 3,
		Page: models.PageSnapshot{
			URL:         "https://github.com/new",
			VisibleText: strings.Repeat("x", 3000) + "TAIL",
			DOMElements: dom,
		},
	})

	if strings.Contains(p, "unique-after-limit") {
		t.Error("prompt contains DOM elements past the limit")
	}
	if strings.Contains(p, "TAIL") {
		t.Error("prompt contains visible text past the limit")
	}
	if !strings.Contains(p, "Current Step: 2 of 3") || !strings.Contains(p, "None (first step)") {
		t.Errorf("prompt missing context:\n%s", p)
	}
}

func TestTruncateRunes(t *testing.T) {
	s := "héllo"
	if got := truncate(s, 2); got != "h" {
		t.Errorf("truncate split a rune: %q", got)
	}
}
