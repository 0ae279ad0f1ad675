package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// maxKeyFileBytes truncates large key files to stay under token limits.
const maxKeyFileBytes = 5000

// maxStructureFiles bounds how many file entries go into the analysis prompt.
const maxStructureFiles = 50

// maxStructureDirs bounds how many directory entries go into the analysis prompt.
const maxStructureDirs = 20

// keyFileNames are project files that give the model context about what
// kind of codebase it is changing.
var keyFileNames = []string{
	"README.md", "README.txt", "readme.md",
	"package.json", "requirements.txt", "pyproject.toml",
	"go.mod", "Dockerfile", "docker-compose.yml",
	"tsconfig.json", ".env.example",
	"config.py", "settings.py",
}

// analysisSkipDirs are never walked when building the structure listing.
var analysisSkipDirs = map[string]bool{
	"node_modules": true,
	"__pycache__":  true,
	"venv":         true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
}

// Analysis is the model's understanding of a repository, carried into
// the generation prompt.
type Analysis struct {
	// Summary is the model's free-text analysis of the codebase.
	Summary string
	// Files are relative paths of (non-hidden, non-build) files found.
	Files []string
	// Directories are relative paths of directories found.
	Directories []string
	// KeyFiles maps key file names to their (possibly truncated) content.
	KeyFiles map[string]string
}

// RepoStructure walks a repository and collects the file and directory
// listing used for analysis, skipping hidden and build/cache entries.
func RepoStructure(repoPath string) (files, dirs []string, err error) {
	err = filepath.WalkDir(repoPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == repoPath {
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if strings.HasPrefix(name, ".") || analysisSkipDirs[name] {
				return filepath.SkipDir
			}
			rel, rerr := filepath.Rel(repoPath, path)
			if rerr != nil {
				return rerr
			}
			dirs = append(dirs, rel)
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		rel, rerr := filepath.Rel(repoPath, path)
		if rerr != nil {
			return rerr
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walk repository: %w", err)
	}
	return files, dirs, nil
}

// ReadKeyFiles reads the recognized project files from the repository
// root, truncating oversized content. Unreadable files are skipped.
func ReadKeyFiles(repoPath string) map[string]string {
	keyFiles := make(map[string]string)
	for _, name := range keyFileNames {
		data, err := os.ReadFile(filepath.Join(repoPath, name))
		if err != nil {
			continue
		}
		content := string(data)
		if len(content) > maxKeyFileBytes {
			content = content[:maxKeyFileBytes] + "\n... (truncated)"
		}
		keyFiles[name] = content
	}
	return keyFiles
}

// buildAnalysisPrompt renders the codebase analysis request.
func buildAnalysisPrompt(files, dirs []string, keyFiles map[string]string, userPrompt string) string {
	var sb strings.Builder

	sb.WriteString("I need you to analyze this codebase and understand its structure to help implement the following change:\n\n")
	fmt.Fprintf(&sb, "**User Request:** %s\n\n", userPrompt)

	sb.WriteString("**Files:**\n")
	for i, f := range files {
		if i >= maxStructureFiles {
			break
		}
		fmt.Fprintf(&sb, "- %s\n", f)
	}

	sb.WriteString("\n**Directories:**\n")
	for i, d := range dirs {
		if i >= maxStructureDirs {
			break
		}
		fmt.Fprintf(&sb, "- %s/\n", d)
	}

	if len(keyFiles) > 0 {
		sb.WriteString("\n**Key Files Content:**\n")
		for name, content := range keyFiles {
			fmt.Fprintf(&sb, "\n### %s\n```\n%s\n```\n", name, content)
		}
	}

	sb.WriteString(`
Please provide:
1. What type of project this is (web app, library, CLI tool, etc.)
2. What technologies/frameworks are being used
3. The main entry points and important modules
4. How the requested change should be implemented
5. What files will likely need to be modified

Provide a clear, concise analysis that will guide code generation.
`)
	return sb.String()
}
