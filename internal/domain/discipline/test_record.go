package discipline

import (
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
)

// TestRecord is one knowledge test result. Accuracy is derived, never stored.
type TestRecord struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID        uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	Name           string    `gorm:"not null;column:name" json:"name"`
	TotalQuestions int       `gorm:"not null;default:0;column:total_questions" json:"total_questions"`
	CorrectAnswers int       `gorm:"not null;default:0;column:correct_answers" json:"correct_answers"`
	CreatedAt      time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}

func (TestRecord) TableName() string { return "test_record" }

func (t TestRecord) Accuracy() float64 {
	return Accuracy(t.TotalQuestions, t.CorrectAnswers)
}

func (t TestRecord) MarshalJSON() ([]byte, error) {
	type plain TestRecord
	return json.Marshal(struct {
		plain
		Accuracy float64 `json:"accuracy"`
	}{plain: plain(t), Accuracy: t.Accuracy()})
}

// Accuracy is round(correct*100/total, 2), or 0 when total is 0.
func Accuracy(total, correct int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(correct)*100/float64(total)*100) / 100
}
