package terminal

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bft-labs/dancer/pkg/prompt"
)

// maxDetailLines keeps long crash details from pushing the options off screen.
const maxDetailLines = 12

// promptModel is the bubbletea model of one prompt.
type promptModel struct {
	req     prompt.Request
	styles  Styles
	cursor  int
	checked bool
	answer  prompt.Answer
	done    bool
}

func newPromptModel(req prompt.Request, styles Styles) promptModel {
	return promptModel{req: req, styles: styles, cursor: req.DefaultIndex()}
}

func (m promptModel) Init() tea.Cmd {
	return nil
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "esc", "q":
		m.answer = prompt.Aborted
		m.done = true
		return m, tea.Quit
	case "left", "up", "h", "k", "shift+tab":
		if m.cursor > 0 {
			m.cursor--
		}
	case "right", "down", "l", "j", "tab":
		if m.cursor < len(m.req.Options)-1 {
			m.cursor++
		}
	case " ", "x":
		if m.req.HasCheckbox() {
			m.checked = !m.checked
		}
	case "enter":
		m.answer = prompt.Answer{Chosen: true, Checked: m.checked}
		if len(m.req.Options) > 0 {
			m.answer.Option = m.req.Options[m.cursor]
		}
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m promptModel) View() string {
	if m.done {
		return ""
	}
	s := m.styles

	var b strings.Builder
	b.WriteString(s.Title(m.req.Severity).Render(m.req.Title))
	b.WriteString("\n\n")
	b.WriteString(s.Message.Render(m.req.Message))
	b.WriteString("\n")

	if m.req.Details != "" {
		lines := strings.Split(strings.TrimRight(m.req.Details, "\n"), "\n")
		if len(lines) > maxDetailLines {
			lines = append(lines[:maxDetailLines], "…")
		}
		b.WriteString("\n")
		b.WriteString(s.Details.Render(strings.Join(lines, "\n")))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	for i, opt := range m.req.Options {
		if i == m.cursor {
			b.WriteString(s.Selected.Render(opt))
		} else {
			b.WriteString(s.Option.Render(opt))
		}
		b.WriteString(" ")
	}
	b.WriteString("\n")

	if m.req.HasCheckbox() {
		box := "[ ] "
		if m.checked {
			box = "[x] "
		}
		b.WriteString("\n")
		b.WriteString(s.Checkbox.Render(box + m.req.Checkbox))
		b.WriteString("\n")
	}

	help := "←/→ select • enter confirm • esc cancel"
	if m.req.HasCheckbox() {
		help = "←/→ select • space toggle • enter confirm • esc cancel"
	}
	b.WriteString("\n")
	b.WriteString(s.Help.Render(help))

	return s.Box.Render(b.String()) + "\n"
}
