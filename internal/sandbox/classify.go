package sandbox

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ShimantoBhowmik/zen-code/pkg/models"
)

// Rule maps a failure signature to an error category and a hint
// template. The template receives the raw stderr via %s.
type Rule struct {
	// Pattern is a case-insensitive substring matched against stderr.
	Pattern string `yaml:"pattern"`
	// Category is the error category assigned on match.
	Category models.ErrorCategory `yaml:"category"`
	// Hint is the actionable hint template; %s embeds the raw stderr.
	Hint string `yaml:"hint"`
}

// defaultRules are evaluated in order, first match wins. The order is
// deliberate: resource-after-close outranks indentation because the
// reindentation heuristic can repair it directly, and signatures can
// overlap when a with-block body sits at the wrong column. Specific
// runtime signatures come before the shape-of-syntax ones.
var defaultRules = []Rule{
	{
		Pattern:  "i/o operation on closed file",
		Category: models.CategoryResourceClosed,
		Hint:     "A file or resource was used after its with-block closed. Move the dependent statements inside the block. Error: %s",
	},
	{
		Pattern:  "operation on closed file",
		Category: models.CategoryResourceClosed,
		Hint:     "A file or resource was used after its with-block closed. Move the dependent statements inside the block. Error: %s",
	},
	{
		Pattern:  "filenotfounderror",
		Category: models.CategoryMissingFile,
		Hint:     "The code references a file that does not exist in the workspace. Use the files under sample_data/ or create the file first. Error: %s",
	},
	{
		Pattern:  "no such file or directory",
		Category: models.CategoryMissingFile,
		Hint:     "The code references a file that does not exist in the workspace. Use the files under sample_data/ or create the file first. Error: %s",
	},
	{
		Pattern:  "modulenotfounderror",
		Category: models.CategoryMissingDependency,
		Hint:     "The code imports a module that is not installed. Restrict imports to the standard library. Error: %s",
	},
	{
		Pattern:  "no module named",
		Category: models.CategoryMissingDependency,
		Hint:     "The code imports a module that is not installed. Restrict imports to the standard library. Error: %s",
	},
	{
		Pattern:  "importerror",
		Category: models.CategoryMissingDependency,
		Hint:     "An import failed to resolve. Restrict imports to the standard library. Error: %s",
	},
	{
		Pattern:  "indentationerror",
		Category: models.CategoryIndentation,
		Hint:     "Block indentation is inconsistent. Align body statements inside their enclosing block. Error: %s",
	},
	{
		Pattern:  "unexpected indent",
		Category: models.CategoryIndentation,
		Hint:     "Block indentation is inconsistent. Align body statements inside their enclosing block. Error: %s",
	},
	{
		Pattern:  "permissionerror",
		Category: models.CategoryPermission,
		Hint:     "The code lacks filesystem permissions for that operation. Write only inside the working directory. Error: %s",
	},
	{
		Pattern:  "permission denied",
		Category: models.CategoryPermission,
		Hint:     "The code lacks filesystem permissions for that operation. Write only inside the working directory. Error: %s",
	},
}

// Classifier maps raw stderr to a typed error category and hint via
// ordered first-match-wins substring rules. It is a best-effort
// heuristic, not a general error-diagnosis engine.
type Classifier struct {
	rules []Rule
}

// NewClassifier creates a classifier with the built-in rule order.
func NewClassifier() *Classifier {
	return &Classifier{rules: defaultRules}
}

// LoadRules replaces the rule list with rules from a YAML file. The file
// holds a list of {pattern, category, hint} entries evaluated in file
// order.
func (c *Classifier) LoadRules(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read rules file: %w", err)
	}
	var rules []Rule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return fmt.Errorf("parse rules file: %w", err)
	}
	if len(rules) == 0 {
		return fmt.Errorf("rules file %s contains no rules", path)
	}
	c.rules = rules
	return nil
}

// Classify matches stderr against the rule list and returns the first
// matching category with its rendered hint. Unmatched stderr yields the
// generic runtime category with no hint.
func (c *Classifier) Classify(stderr string) (models.ErrorCategory, string) {
	lower := strings.ToLower(stderr)
	for _, rule := range c.rules {
		if strings.Contains(lower, strings.ToLower(rule.Pattern)) {
			return rule.Category, fmt.Sprintf(rule.Hint, strings.TrimSpace(stderr))
		}
	}
	return models.CategoryRuntime, ""
}

// quotedOutputRe matches a quoted literal following a print/output/
// display verb, e.g. `prints "Hello, World!"`.
var quotedOutputRe = regexp.MustCompile(`(?i)\b(?:prints?|printing|outputs?|displays?|display)\b[^"']*["']([^"']+)["']`)

// helloWorldRe matches the bare hello-world phrase when no quoted
// literal is present.
var helloWorldRe = regexp.MustCompile(`(?i)hello,?\s+world!?`)

// ExtractExpectedOutput scans a natural-language prompt for a literal
// output expectation. It returns the first quoted string following a
// print/output/display verb, falling back to the hello-world phrase as
// written in the prompt. The empty string means no expectation, and no
// output-containment check is performed.
func ExtractExpectedOutput(prompt string) string {
	if m := quotedOutputRe.FindStringSubmatch(prompt); m != nil {
		return m[1]
	}
	if m := helloWorldRe.FindString(prompt); m != "" {
		return m
	}
	return ""
}
