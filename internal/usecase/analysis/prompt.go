package analysis

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/kailas-cloud/examdex/internal/domain"
)

// DefaultSystemPrompt is the system instruction sent with every analysis.
const DefaultSystemPrompt = "Você é um assistente médico especializado em análise de exames clínicos. " +
	"Forneça análises precisas, objetivas e baseadas apenas nos dados fornecidos."

// DefaultUserTemplate renders the user message. Fields: .ExamType, .Text.
const DefaultUserTemplate = `Você é um assistente médico especializado em análise de exames. Analise os seguintes dados de um {{.ExamType}} e forneça:

1. Um resumo executivo dos resultados principais
2. Valores que estão fora da normalidade (se houver)
3. Possíveis problemas ou anormalidades identificadas
4. Recomendações gerais (se aplicável)

IMPORTANTE:
- Seja objetivo e claro
- Use linguagem médica apropriada mas acessível
- Destaque apenas problemas reais, não invente problemas
- Se tudo estiver normal, informe claramente
- Formate a resposta de forma organizada

Dados do exame:
{{.Text}}`

// fallbackExamType names the exam when its type is blank.
const fallbackExamType = "exame médico"

// PromptBuilder renders provider prompts from an exam type and text.
type PromptBuilder struct {
	system string
	user   *template.Template
}

type promptData struct {
	ExamType string
	Text     string
}

// NewPromptBuilder parses userTemplate. Empty arguments fall back to the defaults.
func NewPromptBuilder(system, userTemplate string) (*PromptBuilder, error) {
	if strings.TrimSpace(system) == "" {
		system = DefaultSystemPrompt
	}
	if strings.TrimSpace(userTemplate) == "" {
		userTemplate = DefaultUserTemplate
	}
	tmpl, err := template.New("user").Option("missingkey=error").Parse(userTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse user prompt template: %w", err)
	}
	return &PromptBuilder{system: system, user: tmpl}, nil
}

// DefaultPromptBuilder returns a builder with the built-in prompts.
func DefaultPromptBuilder() *PromptBuilder {
	b, err := NewPromptBuilder("", "")
	if err != nil {
		panic(err)
	}
	return b
}

// Build renders the prompt for one exam.
func (b *PromptBuilder) Build(examType, text string) (domain.Prompt, error) {
	if strings.TrimSpace(examType) == "" {
		examType = fallbackExamType
	}
	var sb strings.Builder
	if err := b.user.Execute(&sb, promptData{ExamType: examType, Text: text}); err != nil {
		return domain.Prompt{}, fmt.Errorf("render user prompt: %w", err)
	}
	return domain.Prompt{System: b.system, User: sb.String()}, nil
}
