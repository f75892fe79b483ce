package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

type LLMService struct {
	Client llms.Model
}

// NewLLMService initializes the Gemini client. The role-extraction endpoint
// is optional; callers should skip construction when no key is configured.
func NewLLMService(ctx context.Context, apiKey string) (*LLMService, error) {
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is empty")
	}

	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel("gemini-2.5-flash"),
	)
	if err != nil {
		return nil, err
	}

	return &LLMService{Client: llm}, nil
}

const roleExtractionPrompt = `
You are an expert Job Data Extraction Agent. Your task is to analyze the provided raw HTML/Text from a job posting and extract the fields needed to draft an application pitch.

### INSTRUCTIONS:
1. **Analyze** the text to identify the core role details.
2. **Ignore** navigation menus, footers, "similar jobs" lists, and site advertisements.
3. **Extract** the following fields strictly.
4. **Format** the output as valid JSON only. Do not wrap the output in markdown code blocks.

### OUTPUT SCHEMA:
{
    "role_name": "Job title (e.g., Senior Policy Officer)",
    "role_level": "Classification or seniority level if stated (e.g., APS6, EL1, Senior), otherwise null",
    "role_description": "A clean summary of the role. Focus on Responsibilities and Requirements. Remove HTML tags.",
    "years_experience": "Required years of experience as a number if explicitly mentioned, otherwise null"
}

### CONSTRAINT:
If a piece of information is missing, set the value to null. Do not hallucinate or guess.

### RAW CONTENT:
%s
`

// ExtractRoleDetails takes a raw job-ad blob and returns structured role
// fields as a JSON string, used to prefill the pitch form.
func (s *LLMService) ExtractRoleDetails(ctx context.Context, rawHTML string) (string, error) {
	if len(rawHTML) > 20000 {
		rawHTML = rawHTML[:20000]
	}

	prompt := fmt.Sprintf(roleExtractionPrompt, rawHTML)
	resp, err := llms.GenerateFromSinglePrompt(ctx, s.Client, prompt)
	if err != nil {
		return "", err
	}
	return resp, nil
}
