package progress

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/ShimantoBhowmik/zen-code/internal/pipeline"
)

// Printer writes pipeline events as plain lines, for non-interactive
// terminals and log capture.
type Printer struct {
	out io.Writer

	okColor   *color.Color
	failColor *color.Color
	dimColor  *color.Color
}

// NewPrinter creates a printer writing to out.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{
		out:       out,
		okColor:   color.New(color.FgGreen),
		failColor: color.New(color.FgRed),
		dimColor:  color.New(color.Faint),
	}
}

// Consume drains the event stream to completion, printing one line per
// event. It returns when the channel closes.
func (p *Printer) Consume(events <-chan pipeline.Event) {
	for event := range events {
		p.print(event)
	}
}

func (p *Printer) print(event pipeline.Event) {
	label := eventLabel(event.Type)

	switch event.Type {
	case pipeline.EventValidationFailed, pipeline.EventError:
		p.failColor.Fprintf(p.out, "✗ %s", label)
		if event.Message != "" {
			fmt.Fprintf(p.out, ": %s", event.Message)
		}
		fmt.Fprintln(p.out)

	case pipeline.EventCloneComplete, pipeline.EventAnalyzeComplete, pipeline.EventGenerateComplete,
		pipeline.EventApplyComplete, pipeline.EventCommitComplete, pipeline.EventPushComplete,
		pipeline.EventPRComplete, pipeline.EventDone:
		p.okColor.Fprintf(p.out, "✓ %s", label)
		if event.Message != "" {
			fmt.Fprintf(p.out, ": %s", event.Message)
		}
		fmt.Fprintln(p.out)

	default:
		p.dimColor.Fprintf(p.out, "… %s", label)
		if event.Message != "" {
			fmt.Fprintf(p.out, ": %s", event.Message)
		}
		fmt.Fprintln(p.out)
	}
}

// eventLabel is the human-readable name for an event type.
func eventLabel(t pipeline.EventType) string {
	switch t {
	case pipeline.EventCloneStart:
		return "Cloning repository"
	case pipeline.EventCloneComplete:
		return "Repository cloned"
	case pipeline.EventAnalyzeStart:
		return "Analyzing codebase"
	case pipeline.EventAnalyzeComplete:
		return "Codebase analyzed"
	case pipeline.EventGenerateStart:
		return "Generating changes"
	case pipeline.EventGenerateComplete:
		return "Changes generated"
	case pipeline.EventApplyStart:
		return "Validating and applying changes"
	case pipeline.EventApplyComplete:
		return "Changes applied"
	case pipeline.EventCommitStart:
		return "Committing"
	case pipeline.EventCommitComplete:
		return "Committed"
	case pipeline.EventPushStart:
		return "Pushing"
	case pipeline.EventPushComplete:
		return "Pushed"
	case pipeline.EventPRStart:
		return "Opening pull request"
	case pipeline.EventPRComplete:
		return "Pull request opened"
	case pipeline.EventValidationFailed:
		return "Validation failed"
	case pipeline.EventError:
		return "Error"
	case pipeline.EventDone:
		return "Done"
	default:
		return string(t)
	}
}
