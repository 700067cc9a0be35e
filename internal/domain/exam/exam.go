package exam

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Analysis is a persisted AI analysis. Text and timestamp exist only together.
type Analysis struct {
	Text       string
	AnalyzedAt time.Time
}

// Exam is the exam aggregate (immutable value object).
type Exam struct {
	id            string
	ownerID       string
	doctorID      string
	examType      string
	rawText       string
	extractedText string
	examDate      *time.Time
	analysis      *Analysis
	createdAt     time.Time
}

// Fields are the caller-supplied parts of a new exam.
type Fields struct {
	DoctorID      string
	ExamType      string
	ExamDate      *time.Time
	RawText       string
	ExtractedText string
}

// NewID returns an exam identifier of the form exam_<unixmillis>_<9 hex chars>.
func NewID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("exam_%d_%s", now.UnixMilli(), suffix)
}

// ValidKeyword reports whether v can be stored in a keyword (TAG) field
// without being split or altered by the index.
func ValidKeyword(v string) bool {
	return !strings.ContainsFunc(v, unicode.IsControl)
}

// New validates and creates an unanalyzed Exam owned by ownerID.
func New(id, ownerID string, f Fields, createdAt time.Time) (Exam, error) {
	if id == "" {
		return Exam{}, fmt.Errorf("exam ID is required")
	}
	if len(id) > 128 || !idRegex.MatchString(id) {
		return Exam{}, fmt.Errorf("exam ID must be alphanumeric with underscores and hyphens (max 128)")
	}
	if ownerID == "" {
		return Exam{}, fmt.Errorf("owner is required")
	}
	if strings.TrimSpace(f.ExamType) == "" {
		return Exam{}, fmt.Errorf("exam type is required")
	}
	if strings.TrimSpace(f.RawText) == "" && strings.TrimSpace(f.ExtractedText) == "" {
		return Exam{}, fmt.Errorf("exam has no text content")
	}
	for _, kw := range [...]struct{ name, value string }{
		{"owner", ownerID}, {"doctor ID", f.DoctorID}, {"exam type", f.ExamType},
	} {
		if !ValidKeyword(kw.value) {
			return Exam{}, fmt.Errorf("%s must not contain control characters", kw.name)
		}
	}

	return Exam{
		id:            id,
		ownerID:       ownerID,
		doctorID:      f.DoctorID,
		examType:      f.ExamType,
		rawText:       f.RawText,
		extractedText: f.ExtractedText,
		examDate:      cloneTime(f.ExamDate),
		createdAt:     createdAt,
	}, nil
}

// Reconstruct creates an Exam without validation (storage hydration).
func Reconstruct(id, ownerID string, f Fields, analysis *Analysis, createdAt time.Time) Exam {
	var a *Analysis
	if analysis != nil {
		cp := *analysis
		a = &cp
	}
	return Exam{
		id:            id,
		ownerID:       ownerID,
		doctorID:      f.DoctorID,
		examType:      f.ExamType,
		rawText:       f.RawText,
		extractedText: f.ExtractedText,
		examDate:      cloneTime(f.ExamDate),
		analysis:      a,
		createdAt:     createdAt,
	}
}

// ID returns the exam identifier.
func (e *Exam) ID() string { return e.id }

// OwnerID returns the owning user.
func (e *Exam) OwnerID() string { return e.ownerID }

// DoctorID returns the requesting doctor's registry number.
func (e *Exam) DoctorID() string { return e.doctorID }

// ExamType returns the exam kind, e.g. "Hemograma".
func (e *Exam) ExamType() string { return e.examType }

// RawText returns the primary structured content.
func (e *Exam) RawText() string { return e.rawText }

// ExtractedText returns text extracted from an uploaded file.
func (e *Exam) ExtractedText() string { return e.extractedText }

// ExamDate returns the exam date, nil if unknown.
func (e *Exam) ExamDate() *time.Time { return cloneTime(e.examDate) }

// CreatedAt returns the creation timestamp.
func (e *Exam) CreatedAt() time.Time { return e.createdAt }

// Analysis returns the stored analysis and whether it has usable text.
func (e *Exam) Analysis() (Analysis, bool) {
	if e.analysis == nil || strings.TrimSpace(e.analysis.Text) == "" {
		return Analysis{}, false
	}
	return *e.analysis, true
}

// OwnedBy reports whether userID owns the exam.
func (e *Exam) OwnedBy(userID string) bool {
	return userID != "" && e.ownerID == userID
}

// AnalyzableText returns the text submitted for analysis: extracted text,
// falling back to raw text, truncated to maxRunes (0 = no limit).
func (e *Exam) AnalyzableText(maxRunes int) string {
	text := e.extractedText
	if strings.TrimSpace(text) == "" {
		text = e.rawText
	}
	if strings.TrimSpace(text) == "" {
		return ""
	}
	if maxRunes > 0 {
		runes := []rune(text)
		if len(runes) > maxRunes {
			text = string(runes[:maxRunes])
		}
	}
	return text
}

// WithAnalysis returns a copy carrying the given analysis.
func (e *Exam) WithAnalysis(a Analysis) Exam {
	cp := *e
	cp.analysis = &a
	return cp
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
