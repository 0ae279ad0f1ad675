package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ShimantoBhowmik/zen-code/pkg/models"
)

const analysisSystemPrompt = "You are a senior software engineer analyzing a codebase to understand its structure and plan modifications."

const generationSystemPrompt = "You are an expert software engineer. Generate specific, actionable code changes in JSON format."

const correctionSystemPrompt = "You are an expert software engineer fixing code that failed validation. Return the complete corrected changes in JSON format."

// Agent turns natural-language change requests into change sets via an
// LLM backend.
type Agent struct {
	llm Completer
}

// NewAgent creates an agent over the given completion backend.
func NewAgent(llm Completer) *Agent {
	return &Agent{llm: llm}
}

// changeEnvelope is the JSON document the model is asked to produce.
type changeEnvelope struct {
	Changes []models.Change `json:"changes"`
	Summary string          `json:"summary"`
}

// AnalyzeCodebase walks the repository, reads its key files, and asks
// the model for a structural analysis guiding generation.
func (a *Agent) AnalyzeCodebase(ctx context.Context, repoPath, prompt string) (*Analysis, error) {
	files, dirs, err := RepoStructure(repoPath)
	if err != nil {
		return nil, fmt.Errorf("analyze codebase: %w", err)
	}
	keyFiles := ReadKeyFiles(repoPath)

	summary, err := a.llm.Complete(ctx, analysisSystemPrompt, buildAnalysisPrompt(files, dirs, keyFiles, prompt))
	if err != nil {
		return nil, fmt.Errorf("analyze codebase: %w", err)
	}

	return &Analysis{
		Summary:     summary,
		Files:       files,
		Directories: dirs,
		KeyFiles:    keyFiles,
	}, nil
}

// GenerateChanges asks the model for a change set implementing the
// request, given the prior analysis. Malformed entries are dropped at
// the boundary; the returned warnings describe them.
func (a *Agent) GenerateChanges(ctx context.Context, prompt string, analysis *Analysis) (models.ChangeSet, []string, error) {
	response, err := a.llm.Complete(ctx, generationSystemPrompt, buildGenerationPrompt(prompt, analysis))
	if err != nil {
		return nil, nil, fmt.Errorf("generate changes: %w", err)
	}

	envelope, err := parseChangeResponse(response)
	if err != nil {
		return nil, nil, fmt.Errorf("generate changes: %w", err)
	}

	changes, warnings := models.NormalizeChanges(envelope.Changes)
	if len(changes) == 0 {
		return nil, warnings, fmt.Errorf("generate changes: model produced no usable changes")
	}
	return changes, warnings, nil
}

// CorrectChanges asks the model for a revised change set given the
// failing changes and the validation error. Satisfies the correction
// backend contract of the validation loop.
func (a *Agent) CorrectChanges(ctx context.Context, changes models.ChangeSet, errorMessage, prompt string) (models.ChangeSet, error) {
	response, err := a.llm.Complete(ctx, correctionSystemPrompt, buildCorrectionPrompt(changes, errorMessage, prompt))
	if err != nil {
		return nil, fmt.Errorf("correct changes: %w", err)
	}

	envelope, err := parseChangeResponse(response)
	if err != nil {
		return nil, fmt.Errorf("correct changes: %w", err)
	}
	return models.ChangeSet(envelope.Changes), nil
}

// buildGenerationPrompt renders the change generation request.
func buildGenerationPrompt(userPrompt string, analysis *Analysis) string {
	var sb strings.Builder

	sb.WriteString("Based on the following codebase analysis, generate specific code changes to implement the user's request.\n\n")
	fmt.Fprintf(&sb, "**User Request:** %s\n\n", userPrompt)
	if analysis != nil {
		fmt.Fprintf(&sb, "**Codebase Analysis:**\n%s\n\n", analysis.Summary)
		fmt.Fprintf(&sb, "**Repository:** %d files", len(analysis.Files))
		if len(analysis.KeyFiles) > 0 {
			names := make([]string, 0, len(analysis.KeyFiles))
			for name := range analysis.KeyFiles {
				names = append(names, name)
			}
			fmt.Fprintf(&sb, "; key files: %s", strings.Join(names, ", "))
		}
		sb.WriteString("\n\n")
	}

	sb.WriteString(changeFormatInstructions)
	return sb.String()
}

// buildCorrectionPrompt renders the correction request: the failing
// change set, the validation error, and the original intent.
func buildCorrectionPrompt(changes models.ChangeSet, errorMessage, userPrompt string) string {
	var sb strings.Builder

	sb.WriteString("The following code changes failed validation. Fix them so the code runs correctly.\n\n")
	fmt.Fprintf(&sb, "**Original Request:** %s\n\n", userPrompt)
	fmt.Fprintf(&sb, "**Validation Error:**\n```\n%s\n```\n\n", errorMessage)

	sb.WriteString("**Failing Changes:**\n")
	for _, c := range changes {
		fmt.Fprintf(&sb, "\n### %s (%s)\n```\n%s\n```\n", c.FilePath, c.Action, c.Content)
	}
	sb.WriteString("\n")

	sb.WriteString(changeFormatInstructions)
	return sb.String()
}

const changeFormatInstructions = `Generate the changes in the following JSON format:

` + "```json" + `
{
  "changes": [
    {
      "action": "create|modify|delete",
      "file_path": "relative/path/to/file",
      "content": "full file content for create/modify, empty for delete",
      "description": "what this change does"
    }
  ],
  "summary": "overall description of changes"
}
` + "```" + `

Requirements:
- Provide complete file content for new/modified files
- Restrict imports to the language's standard library
- Follow the existing code style and patterns
- Ensure the changes work together as a cohesive solution
`

// parseChangeResponse extracts and decodes the JSON change document from
// a model response that may wrap it in prose or a code fence.
func parseChangeResponse(response string) (changeEnvelope, error) {
	var envelope changeEnvelope

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end <= start {
		return envelope, fmt.Errorf("no JSON document in model response")
	}

	if err := json.Unmarshal([]byte(response[start:end+1]), &envelope); err != nil {
		return envelope, fmt.Errorf("decode model response: %w", err)
	}
	return envelope, nil
}
