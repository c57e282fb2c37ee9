// Package tui is the interactive terminal client: an inbox list of
// conversations and a thread view with inline composition. Signals from
// other instances arrive over the broadcaster and refresh the inbox in
// place.
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ismaelvargas20/motochat/internal/broadcast"
	"github.com/ismaelvargas20/motochat/internal/chat"
	"github.com/ismaelvargas20/motochat/internal/models"
	"github.com/ismaelvargas20/motochat/internal/session"
)

type viewID int

const (
	viewInbox viewID = iota
	viewThread
)

const signalSubscription = "tui"

// Config wires the TUI to the already-built application graph.
type Config struct {
	Store       *chat.Store
	Inbox       *chat.Inbox
	Thread      *chat.Thread
	Session     *session.Manager
	Broadcaster *broadcast.Broadcaster
}

type conversationsMsg struct {
	conversations []models.Conversation
	err           error
}

type threadMsg struct {
	conversationID string
	messages       []models.Message
	err            error
}

type sentMsg struct {
	message models.Message
	err     error
}

type signalMsg struct {
	signal models.Signal
}

type Model struct {
	cfg     Config
	ctx     context.Context
	signals chan models.Signal

	view     viewID
	cursor   int
	convs    []models.Conversation
	messages []models.Message
	openID   string
	input    string
	status   string
	err      error

	width  int
	height int
}

func NewModel(ctx context.Context, cfg Config) *Model {
	return &Model{
		cfg:     cfg,
		ctx:     ctx,
		signals: make(chan models.Signal, 16),
	}
}

// Run starts the TUI and blocks until the user quits.
func Run(ctx context.Context, cfg Config) error {
	m := NewModel(ctx, cfg)

	if err := cfg.Broadcaster.Start(ctx); err != nil && err != broadcast.ErrAlreadyStarted {
		return err
	}
	err := cfg.Broadcaster.Subscribe(signalSubscription, func(sig models.Signal) {
		select {
		case m.signals <- sig:
		default:
		}
	})
	if err != nil {
		return err
	}
	defer func() { _ = cfg.Broadcaster.Unsubscribe(signalSubscription) }()

	program := tea.NewProgram(m, tea.WithAltScreen())
	_, err = program.Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadConversations(), m.waitForSignal())
}

func (m *Model) loadConversations() tea.Cmd {
	return func() tea.Msg {
		err := m.cfg.Inbox.Refresh(m.ctx)
		return conversationsMsg{conversations: m.cfg.Store.List(), err: err}
	}
}

func (m *Model) openConversation(id string) tea.Cmd {
	return func() tea.Msg {
		messages, err := m.cfg.Thread.Open(m.ctx, id)
		return threadMsg{conversationID: id, messages: messages, err: err}
	}
}

func (m *Model) sendMessage(text string) tea.Cmd {
	return func() tea.Msg {
		msg, err := m.cfg.Thread.Send(m.ctx, text)
		return sentMsg{message: msg, err: err}
	}
}

func (m *Model) waitForSignal() tea.Cmd {
	return func() tea.Msg {
		sig, ok := <-m.signals
		if !ok {
			return nil
		}
		return signalMsg{signal: sig}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case conversationsMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.convs = msg.conversations
			if m.cursor >= len(m.convs) {
				m.cursor = max(0, len(m.convs)-1)
			}
		}
		return m, nil

	case threadMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.view = viewThread
		m.openID = msg.conversationID
		m.messages = msg.messages
		m.cfg.Session.SetOpenConversation(msg.conversationID)
		if draft, ok := m.cfg.Session.Draft(msg.conversationID); ok {
			m.input = draft
		}
		return m, nil

	case sentMsg:
		m.messages = m.cfg.Thread.Messages()
		if msg.err != nil {
			m.status = "not delivered, press enter to retry"
			return m, nil
		}
		m.status = ""
		m.input = ""
		m.cfg.Session.SetDraft(m.openID, "")
		return m, nil

	case signalMsg:
		m.cfg.Inbox.HandleSignal(m.ctx, msg.signal)
		cmds := []tea.Cmd{m.waitForSignal()}
		if m.view == viewThread && msg.signal.ConversationID == m.openID {
			cmds = append(cmds, m.openConversation(m.openID))
		} else {
			cmds = append(cmds, m.loadConversations())
		}
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.view == viewThread {
		return m.handleThreadKey(msg)
	}
	return m.handleInboxKey(msg)
}

func (m *Model) handleInboxKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.convs)-1 {
			m.cursor++
		}
	case "r":
		return m, m.loadConversations()
	case "enter":
		if m.cursor < len(m.convs) {
			return m, m.openConversation(m.convs[m.cursor].ID)
		}
	}
	return m, nil
}

func (m *Model) handleThreadKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.cfg.Session.SetDraft(m.openID, m.input)
		m.cfg.Session.SetOpenConversation("")
		m.view = viewInbox
		m.openID = ""
		m.input = ""
		m.status = ""
		return m, m.loadConversations()
	case tea.KeyEnter:
		text := strings.TrimSpace(m.input)
		if text == "" {
			return m, nil
		}
		return m, m.sendMessage(text)
	case tea.KeyBackspace:
		if len(m.input) > 0 {
			runes := []rune(m.input)
			m.input = string(runes[:len(runes)-1])
		}
		return m, nil
	case tea.KeySpace:
		m.input += " "
		return m, nil
	case tea.KeyRunes:
		m.input += string(msg.Runes)
		return m, nil
	}
	return m, nil
}

func (m *Model) View() string {
	if m.view == viewThread {
		return m.threadView()
	}
	return m.inboxView()
}

func (m *Model) inboxView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Conversations"))
	b.WriteString("\n\n")

	if len(m.convs) == 0 {
		b.WriteString(dimStyle.Render("No conversations."))
		b.WriteString("\n")
	}
	for i, c := range m.convs {
		line := fmt.Sprintf("%-24s %s", truncate(c.DisplayTitle, 24), truncate(c.Last.Body, 48))
		if c.UnreadCount > 0 {
			line = fmt.Sprintf("%s %s", line, unreadStyle.Render(fmt.Sprintf("(%d)", c.UnreadCount)))
		}
		if i == m.cursor {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.statusLine("enter open · r refresh · q quit"))
	return b.String()
}

func (m *Model) threadView() string {
	var b strings.Builder

	title := m.openID
	if conv, ok := m.cfg.Store.Get(m.openID); ok {
		title = conv.DisplayTitle
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	for _, msg := range m.messages {
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(inputStyle.Width(max(20, m.width-4)).Render(m.input + "█"))
	b.WriteString("\n")
	b.WriteString(m.statusLine("enter send · esc back"))
	return b.String()
}

func (m *Model) renderMessage(msg models.Message) string {
	when := dimStyle.Render(msg.Timestamp.Local().Format("15:04"))
	body := msg.DisplayBody()

	var styled string
	switch {
	case msg.Deleted():
		styled = deletedStyle.Render(body)
	case msg.Pending:
		styled = pendingStyle.Render(body + " …")
	case msg.Side == models.SenderYou:
		check := ""
		if msg.ReadByOther {
			check = " ✓"
		}
		styled = youStyle.Render(body) + dimStyle.Render(check)
	default:
		styled = themStyle.Render(body)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, when, " ", styled)
}

func (m *Model) statusLine(help string) string {
	if m.err != nil {
		return errorStyle.Render("error: " + m.err.Error())
	}
	if m.status != "" {
		return errorStyle.Render(m.status)
	}
	return statusStyle.Render(" " + help + " ")
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
