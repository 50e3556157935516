package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	modelchat "github.com/zhouzirui/resort-concierge/backend/internal/model/chat"
	"github.com/zhouzirui/resort-concierge/backend/internal/service/chat"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("114"))
	statusStyle    = lipgloss.NewStyle().Faint(true)
)

// maxLineBytes bounds one pasted question.
const maxLineBytes = 1 << 20

type repl struct {
	svc      *chat.Service
	in       io.Reader
	out      io.Writer
	styled   bool
	markdown *glamour.TermRenderer

	sessionID string
}

func newREPL(svc *chat.Service, in io.Reader, out io.Writer, styled bool) *repl {
	r := &repl{svc: svc, in: in, out: out, styled: styled}
	if styled {
		md, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(80),
		)
		if err == nil {
			r.markdown = md
		}
	}
	return r
}

func (r *repl) style(s lipgloss.Style, text string) string {
	if !r.styled {
		return text
	}
	return s.Render(text)
}

func (r *repl) run(ctx context.Context) error {
	if err := r.startSession(ctx); err != nil {
		return err
	}

	p := r.svc.Profile()
	fmt.Fprintln(r.out, r.style(titleStyle, p.Title))
	fmt.Fprintln(r.out, p.OpeningLine)
	fmt.Fprintln(r.out, p.Tagline)
	fmt.Fprintln(r.out, r.style(statusStyle, p.Placeholder+"  (/new, /history, /quit)"))

	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for {
		fmt.Fprint(r.out, r.style(userStyle, "> "))
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}

		line := scanner.Text()
		switch strings.TrimSpace(line) {
		case "/quit", "/exit":
			return nil
		case "/new":
			_, err := r.svc.Reset(ctx, r.sessionID)
			if errors.Is(err, chat.ErrSessionNotFound) {
				err = r.startSession(ctx)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(r.out, r.style(statusStyle, chat.StatusNewChat))
			continue
		case "/history":
			if err := r.history(ctx); err != nil {
				return err
			}
			continue
		}

		if err := r.ask(ctx, line); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (r *repl) startSession(ctx context.Context) error {
	session, err := r.svc.CreateSession(ctx)
	if err != nil {
		return err
	}
	r.sessionID = session.ID
	return nil
}

// ask runs one turn. An expired session is replaced and the question asked
// again in the new one.
func (r *repl) ask(ctx context.Context, question string) error {
	err := r.askOnce(ctx, question)
	if !errors.Is(err, chat.ErrSessionNotFound) {
		return err
	}

	if err := r.startSession(ctx); err != nil {
		return err
	}
	fmt.Fprintln(r.out, r.style(statusStyle, chat.StatusSessionExpired))
	return r.askOnce(ctx, question)
}

func (r *repl) askOnce(ctx context.Context, question string) error {
	streamed := false

	_, err := r.svc.Ask(ctx, r.sessionID, question, func(e chat.Event) {
		switch e.Type {
		case chat.EventStatus:
			if e.Status == chat.StatusGenerating {
				fmt.Fprintln(r.out, r.style(statusStyle, e.Status))
				fmt.Fprint(r.out, r.style(assistantStyle, "Assistant: "))
			}
		case chat.EventDelta:
			streamed = true
			fmt.Fprint(r.out, e.Delta)
		case chat.EventMessage:
			if !streamed {
				fmt.Fprint(r.out, e.Message.Content)
			}
			fmt.Fprintln(r.out)
		}
	})

	if errors.Is(err, chat.ErrBlankQuestion) {
		fmt.Fprintln(r.out, r.style(statusStyle, chat.BlankQuestionMessage))
		return nil
	}
	return err
}

func (r *repl) history(ctx context.Context) error {
	messages, err := r.svc.Transcript(ctx, r.sessionID)
	if errors.Is(err, chat.ErrSessionNotFound) {
		if err := r.startSession(ctx); err != nil {
			return err
		}
		fmt.Fprintln(r.out, r.style(statusStyle, chat.StatusSessionExpired))
		messages, err = nil, nil
	}
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		fmt.Fprintln(r.out, r.style(statusStyle, "No messages yet."))
		return nil
	}

	text := transcriptMarkdown(messages)
	if r.markdown != nil {
		if rendered, err := r.markdown.Render(text); err == nil {
			text = rendered
		}
	}
	fmt.Fprint(r.out, text)
	return nil
}

func transcriptMarkdown(messages []modelchat.Message) string {
	var b strings.Builder
	for _, m := range messages {
		label := "You"
		if m.Role == modelchat.RoleAssistant {
			label = "Assistant"
		}
		fmt.Fprintf(&b, "**%s:**\n\n%s\n\n", label, m.Content)
	}
	return b.String()
}
