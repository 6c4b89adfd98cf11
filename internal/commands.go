package internal

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// Commander handles the administrative slash commands. Handlers operate
// on the directory and the external registries; none of them route
// messages.
type Commander struct {
	cfg          Config
	directory    *Directory
	backend      SessionBackend
	skills       SkillRegistry
	integrations IntegrationRegistry
}

// NewCommander wires the command handlers.
func NewCommander(cfg Config, directory *Directory, backend SessionBackend, skills SkillRegistry, integrations IntegrationRegistry) *Commander {
	return &Commander{
		cfg:          cfg,
		directory:    directory,
		backend:      backend,
		skills:       skills,
		integrations: integrations,
	}
}

// IsCommand reports whether text is addressed to the command surface.
func IsCommand(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "/")
}

// Handle dispatches one slash command and returns the reply text.
func (c *Commander) Handle(ctx context.Context, chat ChatID, text string) string {
	if !c.cfg.Allowed(chat) {
		return formatError(DefaultTag, &UnauthorizedError{Chat: chat})
	}

	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 {
		return c.usage()
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "/new":
		return c.handleNew(ctx, chat)
	case "/status":
		return c.handleStatus(ctx, chat)
	case "/skills":
		return c.handleSkills(ctx)
	case "/servers":
		return c.handleServers(ctx)
	case "/reset":
		return c.handleReset(ctx, chat, args)
	case "/help", "/start":
		return c.usage()
	default:
		return fmt.Sprintf("unknown command %s\n\n%s", cmd, c.usage())
	}
}

func (c *Commander) handleNew(ctx context.Context, chat ChatID) string {
	rec, err := c.directory.Create(ctx, chat)
	if err != nil {
		LogError("chat %s: /new failed: %v", chat, err)
		return formatError(DefaultTag, err)
	}
	return fmt.Sprintf("created session @%s; address it with \"%c%s your message\"", rec.Tag, tagMarker, rec.Tag)
}

func (c *Commander) handleStatus(ctx context.Context, chat ChatID) string {
	records := c.directory.List(chat)
	if len(records) == 0 {
		return "no sessions yet; send a message or run /new"
	}

	var b strings.Builder
	b.WriteString("sessions:\n")
	for _, rec := range records {
		state := "unknown"
		logSize := "-"
		if status, err := c.backend.Status(ctx, rec.SessionID); err == nil {
			state = string(status.State)
			logSize = humanize.Bytes(uint64(status.LogBytes))
		} else {
			LogWarn("chat %s: status of %s failed: %v", chat, rec.Tag, err)
		}
		fmt.Fprintf(&b, "  @%s  %s  log %s  active %s\n",
			rec.Tag, state, logSize, humanize.Time(rec.LastActive))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (c *Commander) handleSkills(ctx context.Context) string {
	if !c.cfg.Features.Skills {
		return "skill listing is disabled"
	}
	skills, err := c.skills.Skills(ctx)
	if err != nil {
		LogError("/skills failed: %v", err)
		return formatError(DefaultTag, err)
	}
	if len(skills) == 0 {
		return "no skills installed"
	}

	var b strings.Builder
	b.WriteString("skills:\n")
	for _, s := range skills {
		fmt.Fprintf(&b, "  %s v%s: %s", s.Name, s.Version, s.Description)
		if len(s.Tags) > 0 {
			fmt.Fprintf(&b, " [%s]", strings.Join(s.Tags, ", "))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (c *Commander) handleServers(ctx context.Context) string {
	if !c.cfg.Features.Integrations {
		return "integration listing is disabled"
	}
	integrations, err := c.integrations.Integrations(ctx)
	if err != nil {
		LogError("/servers failed: %v", err)
		return formatError(DefaultTag, err)
	}
	if len(integrations) == 0 {
		return "no integrations connected"
	}

	var b strings.Builder
	b.WriteString("integrations:\n")
	for _, in := range integrations {
		state := "disconnected"
		if in.Connected {
			state = "connected"
		}
		fmt.Fprintf(&b, "  %s  %s  %d tools", in.Name, state, in.ToolCount)
		if in.LastError != "" {
			fmt.Fprintf(&b, "  last error: %s", in.LastError)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// handleReset resets only the default session unless an explicit tag is
// given; users running several sessions should never lose one by
// accident.
func (c *Commander) handleReset(ctx context.Context, chat ChatID, args []string) string {
	tag := DefaultTag
	if len(args) > 0 {
		ident := strings.TrimPrefix(args[0], string(tagMarker))
		if err := validateTag(ident); err != nil {
			return formatError(DefaultTag, err)
		}
		tag = SessionTag(strings.ToLower(ident))
	}

	if err := c.directory.Reset(ctx, chat, tag); err != nil {
		return formatError(tag, err)
	}
	return fmt.Sprintf("session @%s reset; the next message starts fresh", tag)
}

func (c *Commander) usage() string {
	return strings.TrimSpace(`
commands:
  /new           create a new session and get its tag
  /status        list sessions with state, log size and last activity
  /skills        list installed skills
  /servers       list connected integrations
  /reset [tag]   reset the default session, or @tag if given
  /help          show this help

address a specific session by including its tag: "@s1 hello"
`)
}
