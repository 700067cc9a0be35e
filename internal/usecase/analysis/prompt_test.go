package analysis

import (
	"strings"
	"testing"
)

func TestPromptBuilder_Defaults(t *testing.T) {
	p, err := DefaultPromptBuilder().Build("Hemograma", "hb 13.5 g/dL")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if p.System != DefaultSystemPrompt {
		t.Errorf("System = %q", p.System)
	}
	if !strings.Contains(p.User, "dados de um Hemograma e forneça") {
		t.Errorf("exam type not rendered:\n%s", p.User)
	}
	if !strings.HasSuffix(p.User, "Dados do exame:\nhb 13.5 g/dL") {
		t.Errorf("exam text not rendered last:\n%s", p.User)
	}
}

func TestPromptBuilder_BlankExamType(t *testing.T) {
	p, err := DefaultPromptBuilder().Build("  ", "x")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(p.User, "dados de um exame médico") {
		t.Errorf("fallback exam type missing:\n%s", p.User)
	}
}

func TestPromptBuilder_Custom(t *testing.T) {
	b, err := NewPromptBuilder("sys", "{{.ExamType}}: {{.Text}}")
	if err != nil {
		t.Fatalf("NewPromptBuilder: %v", err)
	}
	p, err := b.Build("Glicemia", "95 mg/dL")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if p.System != "sys" || p.User != "Glicemia: 95 mg/dL" {
		t.Errorf("got %+v", p)
	}
}

func TestPromptBuilder_TextIsNotExecuted(t *testing.T) {
	p, err := DefaultPromptBuilder().Build("X", "{{.ExamType}}")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.HasSuffix(p.User, "{{.ExamType}}") {
		t.Error("exam text must be inserted verbatim")
	}
}

func TestPromptBuilder_BadTemplate(t *testing.T) {
	if _, err := NewPromptBuilder("", "{{.Unclosed"); err == nil {
		t.Fatal("expected parse error")
	}
}
