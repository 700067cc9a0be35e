package exam

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/examdex/internal/db"
	domexam "github.com/kailas-cloud/examdex/internal/domain/exam"
)

// buildIndex describes the exams FT index over the JSON documents under prefix.
// Keyword fields compare exactly, as Exam.OwnedBy does.
func buildIndex(prefix string) (*db.IndexDefinition, error) {
	return db.NewIndex(indexName(prefix)).
		OnJSON().
		Prefix(keyPrefix(prefix)).
		Tag("$.ownerId").As(domexam.FieldOwnerID).CaseSensitive().Separator(domexam.TagSeparator).
		Tag("$.doctorId").As(domexam.FieldDoctorID).CaseSensitive().Separator(domexam.TagSeparator).
		Tag("$.examType").As(domexam.FieldExamType).CaseSensitive().Separator(domexam.TagSeparator).
		Text("$.rawText").As(domexam.FieldRawText).
		Text("$.extractedText").As(domexam.FieldExtractedText).
		Text("$.analysis.text").As(domexam.FieldAIAnalysis).
		SortableNumeric("$.examDate").As(domexam.FieldExamDate).
		SortableNumeric("$.createdAt").As(domexam.FieldCreatedAt).
		SortableNumeric("$.hasExamDate").As(domexam.FieldHasExamDate).
		Numeric("$.analysis.analyzedAt").As(domexam.FieldAIAnalyzedAt).
		Build()
}

// EnsureIndex creates the exams index unless it already exists.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, indexName(r.prefix))
	if err != nil {
		return storageErr("index info", err)
	}
	if exists {
		return nil
	}

	def, err := buildIndex(r.prefix)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return storageErr("create index", err)
	}
	return nil
}
