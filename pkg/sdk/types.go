package examdex

import "time"

// Exam is one stored exam as seen by its owner.
type Exam struct {
	ID            string
	OwnerID       string
	DoctorID      string
	ExamType      string
	ExamDate      *time.Time
	RawText       string
	ExtractedText string
	// Analysis is empty until AnalyzeExam succeeds; AnalyzedAt is then set too.
	Analysis   string
	AnalyzedAt *time.Time
	CreatedAt  time.Time
}

// ListOptions filters and pages ListExams. Zero values mean "not set".
// Dates are YYYY-MM-DD (or RFC 3339) resolved in the client's location.
type ListOptions struct {
	ExamType  string
	ExamDate  string
	StartDate string
	EndDate   string
	Query     string
	Page      int
	PageSize  int
}

// ExamPage is one page of ListExams results.
type ExamPage struct {
	Items      []Exam
	Page       int
	PageSize   int
	Total      int
	TotalPages int
}

// NewExam is a manually entered exam. Every field is required.
type NewExam struct {
	DoctorID string
	ExamDate string
	ExamType string
	RawText  string
}

// AnalysisResult is the outcome of AnalyzeExam. Cached reports that the stored
// analysis was returned without calling the provider.
type AnalysisResult struct {
	Analysis   string
	ExamType   string
	AnalyzedAt time.Time
	Cached     bool
}
