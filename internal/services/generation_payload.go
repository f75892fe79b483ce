package services

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pitchcraft/pitchcraft-api/internal/dtos"
)

// Word-budget split for the generated pitch: 10% introduction, 80% body
// shared evenly across the STAR examples, 10% conclusion.
const (
	introShare      = 0.10
	bodyShare       = 0.80
	conclusionShare = 0.10
)

// The engine's agents expect this flag verbatim.
const ilsFlag = "Isssdsd"

type wordBudget struct {
	Intro      int
	PerExample int
	Conclusion int
}

func budgetFor(wordLimit, starCount int) wordBudget {
	if starCount < 1 {
		starCount = 1
	}
	return wordBudget{
		Intro:      int(math.Round(float64(wordLimit) * introShare)),
		PerExample: int(math.Round(float64(wordLimit) * bodyShare / float64(starCount))),
		Conclusion: int(math.Round(float64(wordLimit) * conclusionShare)),
	}
}

// flattenedStar is the shape the engine consumes: one plain-text string per
// STAR component instead of the client's nested questionnaire answers.
type flattenedStar struct {
	ID        string `json:"id"`
	Situation string `json:"situation"`
	Task      string `json:"task"`
	Action    string `json:"action"`
	Result    string `json:"result"`
}

func flattenStar(idx int, ex dtos.StarExample) flattenedStar {
	var action strings.Builder
	for i, step := range ex.Action.Steps {
		if i > 0 {
			action.WriteString("\n\n")
		}
		fmt.Fprintf(&action, "Step %d: %s", i+1, step.What)
		if step.How != "" {
			fmt.Fprintf(&action, "\nHow: %s", step.How)
		}
		if step.Outcome != "" {
			fmt.Fprintf(&action, "\nOutcome: %s", step.Outcome)
		}
	}

	return flattenedStar{
		ID:        strconv.Itoa(idx + 1),
		Situation: joinLines(ex.Situation.WhereAndWhen, ex.Situation.Challenge),
		Task:      joinLines(ex.Task.Responsibility, ex.Task.Constraints),
		Action:    action.String(),
		Result:    joinLines(ex.Result.Outcome, ex.Result.Benefit),
	}
}

func joinLines(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n")
}

func jobDescriptionBlock(roleName, roleLevel, roleDescription string, years int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Role: %s", roleName)
	if roleLevel != "" {
		fmt.Fprintf(&b, "\nLevel: %s", roleLevel)
	}
	if roleDescription != "" {
		fmt.Fprintf(&b, "\nDescription: %s", roleDescription)
	}
	if years > 0 {
		fmt.Fprintf(&b, "\nYears of Experience: %d", years)
	}
	return b.String()
}

// pitchInputVariables assembles the engine payload for a full pitch job.
// id_unique carries the correlation id so the callback can find its way home.
func pitchInputVariables(correlationID string, req *dtos.GeneratePitchRequest) (map[string]string, error) {
	flattened := make([]flattenedStar, 0, len(req.StarExamples))
	for i, ex := range req.StarExamples {
		flattened = append(flattened, flattenStar(i, ex))
	}
	starComponents, err := json.Marshal(map[string]interface{}{"starExamples": flattened})
	if err != nil {
		return nil, err
	}

	budget := budgetFor(req.PitchWordLimit, len(req.StarExamples))
	return map[string]string{
		"id_unique":             correlationID,
		"job_description":       jobDescriptionBlock(req.RoleName, req.RoleLevel, req.RoleDescription, req.YearsExperience),
		"star_components":       string(starComponents),
		"User_Experience":       req.RelevantExperience,
		"Intro_Word_Count":      strconv.Itoa(budget.Intro),
		"Star_Word_Count":       strconv.Itoa(budget.PerExample),
		"Conclusion_Word_Count": strconv.Itoa(budget.Conclusion),
		"ILS":                   ilsFlag,
	}, nil
}

func guidanceInputVariables(correlationID string, req *dtos.GenerateGuidanceRequest) map[string]string {
	return map[string]string{
		"id_unique":       correlationID,
		"job_description": jobDescriptionBlock(req.RoleName, req.RoleLevel, req.RoleDescription, req.YearsExperience),
		"User_Experience": req.RelevantExperience,
	}
}
