// Package chat provides the interactive terminal console for talking to the
// CuePoint assistant. Messages run through the keyword rulebook and matched
// interests feed a local context engine, so the suggestion footer adapts as
// the conversation goes on.
package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"cuepoint/internal/chat"
	"cuepoint/internal/engine"
)

// Message is one chat transcript line.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// Model is the bubbletea model for the chat console.
type Model struct {
	responder *chat.Responder
	store     *engine.Store

	input    textinput.Model
	viewport viewport.Model
	history  []Message
	ready    bool

	styles styles
}

type styles struct {
	user       lipgloss.Style
	assistant  lipgloss.Style
	body       lipgloss.Style
	suggestion lipgloss.Style
	footer     lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		user:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		assistant:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		body:       lipgloss.NewStyle().PaddingLeft(2),
		suggestion: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		footer:     lipgloss.NewStyle().Faint(true),
	}
}

// New creates the chat console model. The store may be shared with other
// components; the console only dispatches interest updates through it.
func New(responder *chat.Responder, store *engine.Store) Model {
	input := textinput.New()
	input.Placeholder = "Ask about cues, tables, training, stores..."
	input.Focus()
	input.CharLimit = 280

	return Model{
		responder: responder,
		store:     store,
		input:     input,
		styles:    defaultStyles(),
		history: []Message{
			{Role: "assistant", Content: "Welcome to CuePoint! Ask me about our gear, stores, coaching or bookings."},
		},
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		footerHeight := 4
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-footerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - footerHeight
		}
		m.input.Width = msg.Width - 4
		m.viewport.SetContent(m.renderHistory())
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			m.input.Reset()
			m.submit(text)
			m.viewport.SetContent(m.renderHistory())
			m.viewport.GotoBottom()
			return m, nil
		}
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// submit answers one message and folds matched interests into the engine.
func (m *Model) submit(text string) {
	m.history = append(m.history, Message{Role: "user", Content: text})

	resp := m.responder.Respond(text)
	if len(resp.Interests) > 0 {
		m.store.Dispatch(engine.UpdateInterests(resp.Interests...))
	}
	m.store.RefreshRecommendations()

	m.history = append(m.history, Message{Role: "assistant", Content: resp.Reply})
}

func (m Model) renderHistory() string {
	var sb strings.Builder
	for _, msg := range m.history {
		switch msg.Role {
		case "user":
			sb.WriteString(m.styles.user.Render("You") + "\n")
		default:
			sb.WriteString(m.styles.assistant.Render("CuePoint") + "\n")
		}
		sb.WriteString(m.styles.body.Render(msg.Content))
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func (m Model) View() string {
	if !m.ready {
		return "Starting chat console..."
	}

	var footer strings.Builder
	recs := m.store.State().Organs.Recommendations
	if len(recs) > 0 {
		footer.WriteString(m.styles.suggestion.Render("Suggestions: " + strings.Join(recs, " | ")))
		footer.WriteString("\n")
	}
	footer.WriteString(m.input.View())
	footer.WriteString("\n")
	footer.WriteString(m.styles.footer.Render("Enter to send, Esc to quit"))

	return m.viewport.View() + "\n" + footer.String()
}

// Run starts the console and blocks until the user quits.
func Run(responder *chat.Responder, store *engine.Store) error {
	program := tea.NewProgram(New(responder, store), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
