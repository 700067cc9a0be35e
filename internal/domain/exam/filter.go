package exam

import "github.com/kailas-cloud/examdex/internal/domain/search/filter"

// Filter holds the optional listing filters. Empty strings mean "not set".
// Dates stay raw here; they are parsed when the predicate is compiled.
type Filter struct {
	ExamType  string
	ExamDate  string
	StartDate string
	EndDate   string
	Text      string
}

// Free-text fields.
const (
	FieldRawText       = "rawText"
	FieldExtractedText = "extractedText"
	FieldAIAnalysis    = "aiAnalysis"
)

// Keyword and date fields.
const (
	FieldOwnerID      = "ownerId"
	FieldDoctorID     = "doctorId"
	FieldExamType     = "examType"
	FieldExamDate     = "examDate"
	FieldCreatedAt    = "createdAt"
	FieldAIAnalyzedAt = "aiAnalyzedAt"
	FieldHasExamDate  = "hasExamDate"
)

// TagSeparator splits multi-valued keyword fields in the search index. It is a
// control character, which New rejects in every keyword value, so each owner,
// doctor and exam type is indexed as one exact tag.
const TagSeparator = "\x1f"

// SearchFields returns the free-text fields with their relevance weights.
func SearchFields() []filter.FieldWeight {
	return []filter.FieldWeight{
		{Field: FieldRawText, Weight: 2},
		{Field: FieldExtractedText, Weight: 1},
		{Field: FieldAIAnalysis, Weight: 3},
	}
}
