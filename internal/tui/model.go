package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"repoanalyst/internal/domain"
)

// QueryPort is the TUI-facing subset of the pipeline session.
type QueryPort interface {
	Execute(ctx context.Context, query string) domain.FinalAnswer
	HistoryTurns() []domain.ConversationTurn
	ClearHistory()
}

// answerMsg carries a completed pipeline run back into the update loop.
type answerMsg struct {
	query  string
	answer domain.FinalAnswer
}

// Model is the Bubble Tea model for the interactive chat.
type Model struct {
	session  QueryPort
	input    textinput.Model
	viewport viewport.Model
	log      []string
	status   string
	queries  int
	busy     bool
	ready    bool
}

// New creates the chat model. summary is shown in the status line on start.
func New(session QueryPort, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about the repository, or type /help"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{session: session, input: ti, viewport: vp, status: summary}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ch := chatBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header, status, input frame, spacer
		vh := msg.Height - reserved - ch
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = vh
		m.viewport.SetContent(strings.Join(m.log, "\n"))
		return m, nil
	case answerMsg:
		m.busy = false
		m.appendAnswer(msg)
		m.viewport.SetContent(strings.Join(m.log, "\n"))
		m.viewport.GotoBottom()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.String() == "enter" && !m.busy {
			q := strings.TrimSpace(m.input.Value())
			if q == "" {
				break
			}
			m.input.SetValue("")
			if cmd, handled := m.handleCommand(q); handled {
				return m, cmd
			}
			m.log = append(m.log, userStyle.Render("You: ")+q)
			m.viewport.SetContent(strings.Join(m.log, "\n"))
			m.viewport.GotoBottom()
			m.busy = true
			m.status = "Thinking..."
			return m, m.runQuery(q)
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// runQuery executes the pipeline off the update loop.
func (m Model) runQuery(q string) tea.Cmd {
	session := m.session
	return func() tea.Msg {
		return answerMsg{query: q, answer: session.Execute(context.Background(), q)}
	}
}

func (m *Model) handleCommand(q string) (tea.Cmd, bool) {
	switch q {
	case "/quit", "/exit":
		return tea.Quit, true
	case "/clear":
		m.session.ClearHistory()
		m.log = nil
		m.viewport.SetContent("")
		m.status = "History cleared."
		return nil, true
	case "/history":
		turns := m.session.HistoryTurns()
		if len(turns) == 0 {
			m.status = "No retained turns."
			return nil, true
		}
		var b strings.Builder
		for i, t := range turns {
			fmt.Fprintf(&b, "%d. %s\n   %s\n", i+1, t.Query, firstLine(t.Answer))
		}
		m.log = append(m.log, faintStyle.Render(strings.TrimRight(b.String(), "\n")))
		m.viewport.SetContent(strings.Join(m.log, "\n"))
		m.viewport.GotoBottom()
		return nil, true
	case "/help":
		m.log = append(m.log, faintStyle.Render("/clear drops history, /history lists retained turns, /quit exits"))
		m.viewport.SetContent(strings.Join(m.log, "\n"))
		return nil, true
	}
	return nil, false
}

func (m *Model) appendAnswer(msg answerMsg) {
	label := assistantStyle.Render("Assistant: ")
	m.log = append(m.log, label+msg.answer.Answer, "")
	m.queries++
	var verdict string
	switch {
	case msg.answer.Err != "":
		verdict = "Error."
	case msg.answer.JudgeScore != nil:
		verdict = fmt.Sprintf("Done. Judge score %d/6.", *msg.answer.JudgeScore)
	default:
		verdict = "Done."
	}
	m.status = fmt.Sprintf("%s Query %d, %d turns retained.", verdict, m.queries, len(m.session.HistoryTurns()))
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Repository Analyst")
	chat := chatBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := faintStyle.Render(m.status)
	return header + "\n" + chat + "\n" + input + "\n" + status
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

var (
	chatBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	faintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
