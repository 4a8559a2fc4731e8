package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/realmistic/long-term-news-llm-rag/internal/browser"
	"github.com/realmistic/long-term-news-llm-rag/internal/rag"
)

type askState int

const (
	stateInput askState = iota
	stateThinking
	stateAnswered
)

type answerMsg struct {
	question string
	resp     *rag.Response
}

type answerErrMsg struct {
	err error
}

// Session is the interactive ask loop: type a question, watch the spinner,
// read the answer, ask again.
type Session struct {
	answerer    *rag.Answerer
	showSources bool

	input   textinput.Model
	spinner spinner.Model

	state    askState
	question string
	resp     *rag.Response
	err      error

	width int
}

func NewSession(answerer *rag.Answerer, showSources bool) *Session {
	ti := textinput.New()
	ti.Placeholder = "What are the latest developments for NVDA?"
	ti.Prompt = promptStyle.Render("? ")
	ti.CharLimit = 300
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = spinnerStyle

	return &Session{
		answerer:    answerer,
		showSources: showSources,
		input:       ti,
		spinner:     sp,
		state:       stateInput,
	}
}

// Run blocks until the user quits the session.
func Run(answerer *rag.Answerer, showSources bool) error {
	_, err := tea.NewProgram(NewSession(answerer, showSources)).Run()
	return err
}

func (s *Session) Init() tea.Cmd {
	return textinput.Blink
}

func (s *Session) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = msg.Width
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return s, tea.Quit
		case "enter":
			if s.state != stateThinking {
				question := strings.TrimSpace(s.input.Value())
				if question == "" {
					return s, nil
				}
				s.question = question
				s.state = stateThinking
				s.err = nil
				return s, tea.Batch(s.spinner.Tick, s.ask(question))
			}
		case "ctrl+o":
			// A plain letter would collide with typing the next question
			if s.state == stateAnswered && s.resp != nil {
				if link := topSourceLink(s.resp); link != "" {
					browser.Open(link)
				}
			}
			return s, nil
		}

	case answerMsg:
		s.state = stateAnswered
		s.resp = msg.resp
		s.input.SetValue("")
		return s, nil

	case answerErrMsg:
		s.state = stateInput
		s.err = msg.err
		return s, nil

	case spinner.TickMsg:
		if s.state == stateThinking {
			var cmd tea.Cmd
			s.spinner, cmd = s.spinner.Update(msg)
			return s, cmd
		}
		return s, nil
	}

	if s.state != stateThinking {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *Session) ask(question string) tea.Cmd {
	return func() tea.Msg {
		resp, err := s.answerer.Answer(context.Background(), question)
		if err != nil {
			return answerErrMsg{err: err}
		}
		return answerMsg{question: question, resp: resp}
	}
}

func (s *Session) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("newsrag · ask the news"))
	b.WriteString("\n\n")
	b.WriteString(s.input.View())
	b.WriteString("\n")

	switch s.state {
	case stateThinking:
		b.WriteString(fmt.Sprintf("\n%s answering %q...\n", s.spinner.View(), s.question))
	case stateAnswered:
		if s.resp != nil {
			b.WriteString(headlineStyle.Render(rag.Headline(s.resp.Sources)))
			b.WriteString("\n")
			b.WriteString(answerStyle.Render(wrap(s.resp.Answer, s.width)))
			b.WriteString("\n")
			if s.showSources {
				b.WriteString(sourceStyle.Render(renderSources(s.resp)))
				b.WriteString("\n")
			}
		}
	}

	if s.err != nil {
		b.WriteString("\n")
		b.WriteString(errStyle.Render("error: " + s.err.Error()))
		b.WriteString("\n")
	}

	hints := "enter ask · esc quit"
	if s.state == stateAnswered {
		hints = "enter ask again · ctrl+o open top source · esc quit"
	}
	b.WriteString(hintStyle.Render(hints))
	b.WriteString("\n")

	return b.String()
}

func renderSources(resp *rag.Response) string {
	var b strings.Builder
	b.WriteString("Sources:\n")
	for i, doc := range resp.Sources {
		ticker, _ := doc.Metadata["ticker"].(string)
		start, _ := doc.Metadata["start_date"].(string)
		end, _ := doc.Metadata["end_date"].(string)
		link, _ := doc.Metadata["link"].(string)
		fmt.Fprintf(&b, "  %d. %s %s..%s %s\n", i+1, ticker, start, end, link)
	}
	return strings.TrimRight(b.String(), "\n")
}

func topSourceLink(resp *rag.Response) string {
	for _, doc := range resp.Sources {
		if link, _ := doc.Metadata["link"].(string); link != "" {
			return link
		}
	}
	return ""
}

func wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	return lipgloss.NewStyle().Width(min(width-2, 100)).Render(s)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
