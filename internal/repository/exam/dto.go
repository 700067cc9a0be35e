package exam

import (
	"encoding/json"
	"fmt"
	"time"

	domexam "github.com/kailas-cloud/examdex/internal/domain/exam"
)

// examDoc is the RedisJSON shape of an exam. Dates are epoch milliseconds so
// the index can range and sort on them.
type examDoc struct {
	ID            string       `json:"id"`
	OwnerID       string       `json:"ownerId"`
	DoctorID      string       `json:"doctorId,omitempty"`
	ExamType      string       `json:"examType"`
	RawText       string       `json:"rawText"`
	ExtractedText string       `json:"extractedText"`
	ExamDate      *int64       `json:"examDate,omitempty"`
	HasExamDate   int          `json:"hasExamDate"`
	CreatedAt     int64        `json:"createdAt"`
	Analysis      *analysisDoc `json:"analysis,omitempty"`
}

// analysisDoc keeps text and timestamp in one object so a merge writes both or neither.
type analysisDoc struct {
	Text       string `json:"text"`
	AnalyzedAt int64  `json:"analyzedAt"`
}

func toDoc(e *domexam.Exam) examDoc {
	d := examDoc{
		ID:            e.ID(),
		OwnerID:       e.OwnerID(),
		DoctorID:      e.DoctorID(),
		ExamType:      e.ExamType(),
		RawText:       e.RawText(),
		ExtractedText: e.ExtractedText(),
		CreatedAt:     e.CreatedAt().UnixMilli(),
	}
	if t := e.ExamDate(); t != nil {
		ms := t.UnixMilli()
		d.ExamDate = &ms
		d.HasExamDate = 1
	}
	if a, ok := e.Analysis(); ok {
		d.Analysis = toAnalysisDoc(a)
	}
	return d
}

func toAnalysisDoc(a domexam.Analysis) *analysisDoc {
	return &analysisDoc{Text: a.Text, AnalyzedAt: a.AnalyzedAt.UnixMilli()}
}

func (d *examDoc) toDomain() domexam.Exam {
	f := domexam.Fields{
		DoctorID:      d.DoctorID,
		ExamType:      d.ExamType,
		RawText:       d.RawText,
		ExtractedText: d.ExtractedText,
	}
	if d.ExamDate != nil {
		t := time.UnixMilli(*d.ExamDate).UTC()
		f.ExamDate = &t
	}
	var a *domexam.Analysis
	if d.Analysis != nil && d.Analysis.Text != "" {
		a = &domexam.Analysis{
			Text:       d.Analysis.Text,
			AnalyzedAt: time.UnixMilli(d.Analysis.AnalyzedAt).UTC(),
		}
	}
	return domexam.Reconstruct(d.ID, d.OwnerID, f, a, time.UnixMilli(d.CreatedAt).UTC())
}

// parseRootResult decodes the "$" view returned by JSON.GET / JSON.MGET: [ {...} ].
func parseRootResult(raw string) (examDoc, bool, error) {
	var docs []examDoc
	if err := json.Unmarshal([]byte(raw), &docs); err != nil {
		return examDoc{}, false, fmt.Errorf("unmarshal exam: %w", err)
	}
	if len(docs) == 0 {
		return examDoc{}, false, nil
	}
	return docs[0], true, nil
}
