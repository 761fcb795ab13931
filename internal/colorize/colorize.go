package colorize

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// StderrPrefix marks child-process stderr passthrough lines in the log.
const StderrPrefix = "[stderr]"

var (
	styleDim          = lipgloss.NewStyle().Faint(true)
	styleClient       = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)  // cyan
	styleServer       = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)  // green
	styleErrorWord    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true) // red
	styleRequest      = lipgloss.NewStyle().Bold(true)
	styleResponse     = lipgloss.NewStyle().Bold(true)
	styleNotification = lipgloss.NewStyle().Faint(true)
	styleInitialize   = lipgloss.NewStyle().Foreground(lipgloss.Color("13")) // magenta
	styleTools        = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	styleResources    = lipgloss.NewStyle().Foreground(lipgloss.Color("14")) // cyan
	stylePrompts      = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
	styleNotifyFamily = lipgloss.NewStyle().Foreground(lipgloss.Color("12")) // blue
	styleErrorLine    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

var (
	reTimestamp    = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}\.\d{3}`)
	reClientPair   = regexp.MustCompile(`→ CLIENT`)
	reServerPair   = regexp.MustCompile(`← SERVER`)
	reErrorWord    = regexp.MustCompile(`\bERROR\b`)
	reRequest      = regexp.MustCompile(`\brequest\b`)
	reResponse     = regexp.MustCompile(`\bresponse\b`)
	reNotification = regexp.MustCompile(`\bnotification\b`)
	reInitialize   = regexp.MustCompile(`initialize\w*`)
	reTools        = regexp.MustCompile(`tools/[\w-]+`)
	reResources    = regexp.MustCompile(`resources/[\w-]+`)
	rePrompts      = regexp.MustCompile(`prompts/[\w-]+`)
	reNotifyFamily = regexp.MustCompile(`notifications/[\w-]+`)
	reRequestID    = regexp.MustCompile(`#[\w.-]+`)
	reElapsed      = regexp.MustCompile(`\b\d+ms\b`)
	reErrorDetail  = regexp.MustCompile(`^\s+\[-?\d+\]`)
)

// pass is one ordered substitution over the line.
type pass struct {
	re    *regexp.Regexp
	style lipgloss.Style
}

// Ordering matters: later passes run over the output of earlier ones. The
// notifications family runs before the initialize family so that a method
// matching both (notifications/initialized) accumulates both markers — the
// initialize regex still finds its suffix inside the already-wrapped token,
// while the reverse order would leave escape bytes where the notifications
// regex expects word characters.
var passes = []pass{
	{reTimestamp, styleDim},
	{reClientPair, styleClient},
	{reServerPair, styleServer},
	{reErrorWord, styleErrorWord},
	{reNotification, styleNotification},
	{reRequest, styleRequest},
	{reResponse, styleResponse},
	{reNotifyFamily, styleNotifyFamily},
	{reInitialize, styleInitialize},
	{reTools, styleTools},
	{reResources, styleResources},
	{rePrompts, stylePrompts},
	{reRequestID, styleDim},
	{reElapsed, styleDim},
}

// Line highlights one formatted log line. With enabled false the input is
// returned unchanged. The whole-line wraps at the end are guards, not
// substitutions, and their order is contractual: an indented line that also
// looks like an error detail is dimmed, not reddened.
func Line(line string, enabled bool) string {
	if !enabled {
		return line
	}

	out := line
	for _, p := range passes {
		style := p.style
		out = p.re.ReplaceAllStringFunc(out, func(m string) string {
			return style.Render(m)
		})
	}

	switch {
	case strings.HasPrefix(line, "    "):
		return styleDim.Render(out)
	case strings.HasPrefix(line, StderrPrefix):
		return styleDim.Render(out)
	case reErrorDetail.MatchString(line):
		return styleErrorLine.Render(out)
	}
	return out
}
