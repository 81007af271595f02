package tui

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

// Choice is one selectable entry of a Picker.
type Choice struct {
	Value       string
	Description string
}

// Picker is a single-choice list. It satisfies tea.Model.
type Picker struct {
	title     string
	choices   []Choice
	cursor    int
	chosen    int
	cancelled bool
	keys      pickerKeys
}

type pickerKeys struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Quit   key.Binding
}

func defaultPickerKeys() pickerKeys {
	return pickerKeys{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q/esc", "quit"),
		),
	}
}

// NewPicker creates a Picker with the cursor on initial, or on the first
// choice when initial is not among choices.
func NewPicker(title string, choices []Choice, initial string) Picker {
	p := Picker{
		title:   title,
		choices: choices,
		chosen:  -1,
		keys:    defaultPickerKeys(),
	}
	for i, c := range choices {
		if c.Value == initial {
			p.cursor = i
		}
	}
	return p
}

// Init implements tea.Model.
func (p Picker) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (p Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}

	switch {
	case key.Matches(keyMsg, p.keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
	case key.Matches(keyMsg, p.keys.Down):
		if p.cursor < len(p.choices)-1 {
			p.cursor++
		}
	case key.Matches(keyMsg, p.keys.Select):
		if len(p.choices) > 0 {
			p.chosen = p.cursor
		}
		return p, tea.Quit
	case key.Matches(keyMsg, p.keys.Quit):
		p.cancelled = true
		return p, tea.Quit
	}
	return p, nil
}

// View implements tea.Model.
func (p Picker) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render(p.title))
	b.WriteString("\n\n")

	for i, c := range p.choices {
		style := MutedStyle
		marker := "  ○ "
		if i == p.cursor {
			style = PathStyle.Bold(true)
			marker = "● "
		}
		b.WriteString(style.Render(marker + c.Value))
		b.WriteString("\n")
		if c.Description != "" {
			b.WriteString(MutedStyle.Render("    " + c.Description))
			b.WriteString("\n")
		}
	}

	b.WriteString(MutedStyle.Render("\n↑/↓ navigate • enter select • q quit"))
	b.WriteString("\n")
	return b.String()
}

// Value returns the chosen value, or "" when nothing was chosen.
func (p Picker) Value() string {
	if p.chosen >= 0 && p.chosen < len(p.choices) {
		return p.choices[p.chosen].Value
	}
	return ""
}

// Cancelled reports whether the user quit without choosing.
func (p Picker) Cancelled() bool {
	return p.cancelled
}

// ErrCancelled is returned by Pick when the user quits the list.
var ErrCancelled = errors.New("cancelled")

// Pick runs a Picker on in and out and returns the chosen value.
func Pick(in io.Reader, out io.Writer, title string, choices []Choice, initial string) (string, error) {
	program := tea.NewProgram(NewPicker(title, choices, initial), tea.WithInput(in), tea.WithOutput(out))
	model, err := program.Run()
	if err != nil {
		return "", err
	}

	picker := model.(Picker)
	if picker.Cancelled() || picker.Value() == "" {
		return "", ErrCancelled
	}
	return picker.Value(), nil
}

// IsInteractive reports whether in and out are terminals a person can answer
// prompts on. The switches that force plain output disable it too.
func IsInteractive(in io.Reader, out io.Writer) bool {
	inFile, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(inFile.Fd())) {
		return false
	}
	outFile, ok := out.(*os.File)
	if !ok {
		return false
	}
	return DetectMode(outFile) == ModeStyled
}
