package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"districtguide/pubsub"
	"districtguide/rag"
	"districtguide/rag/corpus"
	"districtguide/rag/pipeline"
)

// GuidePort is the TUI-facing subset of the pipeline.
type GuidePort interface {
	Ensure(ctx context.Context) error
	Ask(ctx context.Context, question string) (rag.Answer, error)
	Invalidate(ctx context.Context) error
	Status(ctx context.Context) pipeline.Status
}

type (
	readyMsg  struct{ err error }
	answerMsg struct {
		answer rag.Answer
		err    error
	}
	progressMsg pubsub.Event[corpus.Progress]
	closedMsg   struct{}
)

// Model is the Bubble Tea model for the question/answer screen.
type Model struct {
	guide    GuidePort
	eventsCh <-chan pubsub.Event[corpus.Progress]
	input    textinput.Model
	viewport viewport.Model
	renderer *glamour.TermRenderer

	answer   rag.Answer
	status   string
	progress string
	keySet   bool
	thinking bool
	ready    bool
	width    int
}

// InitialModel creates the TUI model. keySet reports whether the provider
// credential was found at startup, for the status line.
func InitialModel(guide GuidePort, events pubsub.Subscriber[corpus.Progress], keySet bool) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "e.g. Who is on the board of trustees?"
	ti.Focus()
	ti.CharLimit = 0

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(0),
	)

	var ch <-chan pubsub.Event[corpus.Progress]
	if events != nil {
		ch = events.Subscribe(context.Background())
	}

	return Model{
		guide:    guide,
		eventsCh: ch,
		input:    ti,
		viewport: viewport.New(0, 0),
		renderer: renderer,
		keySet:   keySet,
		status:   "Building knowledge base...",
	}
}

// Init kicks off the initial build and starts listening for scrape progress.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.ensureCmd(), m.listenCmd())
}

func (m Model) ensureCmd() tea.Cmd {
	return func() tea.Msg {
		return readyMsg{err: m.guide.Ensure(context.Background())}
	}
}

func (m Model) askCmd(question string) tea.Cmd {
	return func() tea.Msg {
		ans, err := m.guide.Ask(context.Background(), question)
		return answerMsg{answer: ans, err: err}
	}
}

func (m Model) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		if err := m.guide.Invalidate(context.Background()); err != nil {
			return readyMsg{err: err}
		}
		return readyMsg{err: m.guide.Ensure(context.Background())}
	}
}

// listenCmd forwards one broker event into the Bubble Tea loop; it is
// re-armed after every received event.
func (m Model) listenCmd() tea.Cmd {
	if m.eventsCh == nil {
		return nil
	}
	ch := m.eventsCh
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return closedMsg{}
		}
		return progressMsg(event)
	}
}

// Update handles key, window and pipeline events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = max(5, msg.Height-9)
		m.viewport.SetContent(m.renderAnswer())
		return m, nil

	case readyMsg:
		if msg.err != nil {
			m.ready = false
			m.status = "Initialization failed: " + msg.err.Error()
			if _, ok := msg.err.(*rag.ConfigurationError); ok {
				m.status += " (set the key and restart)"
			}
		} else {
			m.ready = true
			m.progress = ""
			m.status = "Knowledge base ready. Ask away."
		}
		return m, nil

	case progressMsg:
		p := msg.Payload
		switch msg.Type {
		case pubsub.FinishedEvent:
			m.progress = ""
		case pubsub.ErrorEvent:
			m.progress = fmt.Sprintf("Skipped %s (%d/%d)", p.URL, p.Done, p.Total)
		default:
			m.progress = fmt.Sprintf("Scraping %s (%d/%d)", p.URL, p.Done, p.Total)
		}
		return m, m.listenCmd()

	case closedMsg:
		return m, nil

	case answerMsg:
		m.thinking = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error() + " - try rephrasing, or check your API key"
		} else {
			m.answer = msg.answer
			m.status = "Answered. Ask another question."
		}
		m.viewport.SetContent(m.renderAnswer())
		m.viewport.GotoTop()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyCtrlR:
			m.ready = false
			m.answer = rag.Answer{}
			m.status = "Refreshing data..."
			m.viewport.SetContent("")
			return m, m.refreshCmd()
		case tea.KeyEnter:
			question := strings.TrimSpace(m.input.Value())
			if question == "" || m.thinking {
				return m, nil
			}
			m.thinking = true
			m.status = "Searching for information..."
			return m, m.askCmd(question)
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

// renderAnswer renders the answer markdown plus its top sources.
func (m Model) renderAnswer() string {
	if m.answer.Result == "" {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.answer.Result)
	if len(m.answer.Sources) > 0 {
		b.WriteString("\n\n## Sources\n\n")
		for i, doc := range m.answer.Sources {
			if i >= 3 {
				break
			}
			fmt.Fprintf(&b, "%d. %s\n", i+1, doc.Source)
		}
	}

	if m.renderer != nil {
		if out, err := m.renderer.Render(b.String()); err == nil {
			return out
		}
	}
	return b.String()
}

// View draws header, status line, answer viewport, input and help.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("District Guide"))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render("Ask any question about the district"))
	b.WriteString("\n\n")

	b.WriteString(m.statusLine())
	b.WriteString("\n\n")

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter: ask - ctrl+r: refresh data - esc: quit"))
	return b.String()
}

func (m Model) statusLine() string {
	key := statusBadBadge.Render("key: missing")
	if m.keySet {
		key = statusOKBadge.Render("key: configured")
	}

	db := statusWarnBadge.Render("index: building")
	st := m.guide.Status(context.Background())
	if st.Ready {
		db = statusOKBadge.Render(fmt.Sprintf("index: ready (%d docs)", st.Documents))
	}

	line := key + " " + db
	if m.progress != "" {
		line += " " + helpStyle.Render(m.progress)
	}
	if m.status != "" {
		line += "\n" + statusStyle.Render(m.status)
	}
	return line
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
