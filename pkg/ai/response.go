package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	minCompetency = 0
	maxCompetency = 200
)

var responseSchema = jsonschema.MustCompileString("score_response.json", `{
  "type": "object",
  "required": ["nota_final", "c1_score", "c2_score", "c3_score", "c4_score", "c5_score", "feedback_detalhado"],
  "properties": {
    "nota_final": {"type": "integer", "minimum": 0, "maximum": 1000},
    "c1_score": {"type": "integer", "minimum": 0, "maximum": 200},
    "c2_score": {"type": "integer", "minimum": 0, "maximum": 200},
    "c3_score": {"type": "integer", "minimum": 0, "maximum": 200},
    "c4_score": {"type": "integer", "minimum": 0, "maximum": 200},
    "c5_score": {"type": "integer", "minimum": 0, "maximum": 200},
    "feedback_detalhado": {"type": "string"}
  }
}`)

// parseScoreResponse decodes and validates a provider reply. Any deviation from the contract
// yields ErrMalformedResponse; values are never coerced.
func parseScoreResponse(content string) (ScoreResult, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return ScoreResult{}, fmt.Errorf("%w: empty reply", ErrMalformedResponse)
	}

	decoder := json.NewDecoder(strings.NewReader(content))
	decoder.UseNumber()

	var document interface{}
	if err := decoder.Decode(&document); err != nil {
		return ScoreResult{}, fmt.Errorf("%w: parse json: %v", ErrMalformedResponse, err)
	}
	if decoder.More() {
		return ScoreResult{}, fmt.Errorf("%w: trailing content after json object", ErrMalformedResponse)
	}

	if err := responseSchema.Validate(document); err != nil {
		return ScoreResult{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	type payload struct {
		FinalScore json.Number `json:"nota_final"`
		C1         json.Number `json:"c1_score"`
		C2         json.Number `json:"c2_score"`
		C3         json.Number `json:"c3_score"`
		C4         json.Number `json:"c4_score"`
		C5         json.Number `json:"c5_score"`
		Feedback   string      `json:"feedback_detalhado"`
	}

	var data payload
	strict := json.NewDecoder(bytes.NewReader([]byte(content)))
	strict.UseNumber()
	if err := strict.Decode(&data); err != nil {
		return ScoreResult{}, fmt.Errorf("%w: decode fields: %v", ErrMalformedResponse, err)
	}

	values := make([]int, 0, 6)
	for _, number := range []json.Number{data.FinalScore, data.C1, data.C2, data.C3, data.C4, data.C5} {
		parsed, err := integral(number)
		if err != nil {
			return ScoreResult{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		values = append(values, parsed)
	}

	result := ScoreResult{
		FinalScore: values[0],
		C1:         values[1],
		C2:         values[2],
		C3:         values[3],
		C4:         values[4],
		C5:         values[5],
		Feedback:   normalizeFeedback(data.Feedback),
	}

	if err := checkScores(result); err != nil {
		return ScoreResult{}, err
	}

	return result, nil
}

func checkScores(result ScoreResult) error {
	sum := 0
	for idx, score := range []int{result.C1, result.C2, result.C3, result.C4, result.C5} {
		if score < minCompetency || score > maxCompetency {
			return fmt.Errorf("%w: c%d_score %d outside %d-%d", ErrMalformedResponse, idx+1, score, minCompetency, maxCompetency)
		}
		sum += score
	}
	if result.FinalScore != sum {
		return fmt.Errorf("%w: nota_final %d differs from competency sum %d", ErrMalformedResponse, result.FinalScore, sum)
	}
	return nil
}

// integral accepts numbers such as 120 or 120.0 and rejects fractional values.
func integral(number json.Number) (int, error) {
	if value, err := number.Int64(); err == nil {
		return int(value), nil
	}
	value, err := number.Float64()
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", number.String())
	}
	if value != float64(int64(value)) {
		return 0, fmt.Errorf("non-integer score %q", number.String())
	}
	return int(value), nil
}

// normalizeFeedback turns literal "\n" escapes some models emit into real line breaks.
func normalizeFeedback(feedback string) string {
	return strings.TrimSpace(strings.ReplaceAll(feedback, `\n`, "\n"))
}
