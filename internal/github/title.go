package github

import (
	"fmt"
	"path"
	"strings"

	"github.com/ShimantoBhowmik/zen-code/pkg/models"
)

// maxTitleLen keeps PR titles within GitHub's conventional limit.
const maxTitleLen = 50

// PRTitle builds a concise pull request title from the request and the
// applied changes: a category keyed off the prompt, then the touched
// files or a count when there are many.
func PRTitle(prompt string, changes models.ChangeSet) string {
	category := titleCategory(prompt, changes)

	names := make([]string, 0, len(changes))
	for _, c := range changes {
		names = append(names, path.Base(c.FilePath))
	}

	var title string
	switch {
	case len(names) == 1:
		title = fmt.Sprintf("%s: %s", category, names[0])
	case len(names) <= 3:
		title = fmt.Sprintf("%s: %s", category, strings.Join(names, ", "))
	default:
		title = fmt.Sprintf("%s: %d files", category, len(names))
	}

	if len(title) > maxTitleLen {
		title = fmt.Sprintf("%s: %s", category, titleSubject(prompt))
		if len(title) > maxTitleLen {
			title = title[:maxTitleLen-3] + "..."
		}
	}
	return title
}

// titleCategory picks the title verb from prompt keywords, falling back
// to the change actions.
func titleCategory(prompt string, changes models.ChangeSet) string {
	lower := strings.ToLower(prompt)
	keywordCategories := []struct {
		category string
		words    []string
	}{
		{"Fix", []string{"fix", "bug", "error", "issue"}},
		{"Add", []string{"add", "create", "new", "implement"}},
		{"Update", []string{"update", "improve", "enhance", "refactor"}},
		{"Test", []string{"test", "testing"}},
		{"Docs", []string{"doc", "readme", "comment"}},
	}
	for _, kc := range keywordCategories {
		for _, word := range kc.words {
			if strings.Contains(lower, word) {
				return kc.category
			}
		}
	}

	hasCreate, hasModify := false, false
	for _, c := range changes {
		switch c.Action {
		case models.ActionCreate:
			hasCreate = true
		case models.ActionModify:
			hasModify = true
		}
	}
	switch {
	case hasCreate && hasModify:
		return "Add & Update"
	case hasCreate:
		return "Add"
	case hasModify:
		return "Update"
	default:
		return "Fix"
	}
}

// titleSubject shortens the prompt to its leading words.
func titleSubject(prompt string) string {
	words := strings.Fields(prompt)
	if len(words) > 5 {
		return strings.Join(words[:4], " ") + "..."
	}
	return prompt
}
