// Package tui is a terminal front end for the todo server.
//
// Every action is a request against the HTTP API; after a successful
// mutation the model reloads the list so the screen always shows what the
// server has stored.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"todos/internal/todo"
)

const defaultTimeout = 5 * time.Second

// API is the part of the HTTP client the UI needs.
type API interface {
	List(ctx context.Context, filter todo.Filter) ([]todo.Todo, error)
	Create(ctx context.Context, text string) (todo.Todo, error)
	SetCompleted(ctx context.Context, id string, completed bool) (todo.Todo, error)
	Delete(ctx context.Context, id string) error
	ClearCompleted(ctx context.Context) ([]todo.Todo, error)
}

// ---------- Messages ----------

type loadedMsg struct{ todos []todo.Todo }

type changedMsg struct{}

type errMsg struct{ err error }

// ---------- Keys ----------

type keyMap struct {
	Add     key.Binding
	Toggle  key.Binding
	Delete  key.Binding
	Filter  key.Binding
	Clear   key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Add:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Toggle:  key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle")),
		Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Filter:  key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
		Clear:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear done")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) bindings() []key.Binding {
	return []key.Binding{k.Add, k.Toggle, k.Delete, k.Filter, k.Clear, k.Refresh}
}

// ---------- List items ----------

type item struct{ todo.Todo }

func (i item) Title() string       { return i.Text }
func (i item) Description() string { return "" }
func (i item) FilterValue() string { return i.Text }

type itemDelegate struct{}

func (d itemDelegate) Height() int                             { return 1 }
func (d itemDelegate) Spacing() int                            { return 0 }
func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, li list.Item) {
	it, ok := li.(item)
	if !ok {
		return
	}
	box, text := mutedStyle.Render(boxUnchecked), it.Text
	if it.Completed {
		box, text = successStyle.Render(boxChecked), doneStyle.Render(it.Text)
	}
	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintf(w, "%s%s %s", prefix, box, text)
}

// ---------- Model ----------

// Model is the Bubble Tea model of the todo UI.
type Model struct {
	api     API
	timeout time.Duration
	keys    keyMap

	list   list.Model
	input  textinput.Model
	adding bool
	filter todo.Filter
	todos  []todo.Todo
	err    error
}

// New creates a model that talks to api, bounding every request by timeout.
func New(api API, timeout time.Duration) Model {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	keys := defaultKeys()

	l := list.New(nil, itemDelegate{}, 0, 0)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(true)
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.AdditionalShortHelpKeys = keys.bindings
	l.AdditionalFullHelpKeys = keys.bindings

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "What needs to be done?"
	ti.CharLimit = 500

	return Model{
		api:     api,
		timeout: timeout,
		keys:    keys,
		list:    l,
		input:   ti,
		filter:  todo.FilterAll,
	}
}

// Init loads the first page of todos.
func (m Model) Init() tea.Cmd { return m.load() }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-4)
		return m, nil

	case loadedMsg:
		m.err = nil
		m.todos = msg.todos
		items := make([]list.Item, len(msg.todos))
		for i, t := range msg.todos {
			items[i] = item{t}
		}
		return m, m.list.SetItems(items)

	case changedMsg:
		return m, m.load()

	case errMsg:
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		if m.adding {
			return m.updateAdding(msg)
		}
		return m.updateBrowsing(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateAdding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			m.err = errors.New("text is required")
			return m, nil
		}
		m.adding = false
		m.input.SetValue("")
		m.input.Blur()
		return m, m.create(text)
	case "esc":
		m.adding = false
		m.input.SetValue("")
		m.input.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Add):
		m.adding = true
		m.err = nil
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Toggle):
		if t, ok := m.selected(); ok {
			return m, m.setCompleted(t.ID, !t.Completed)
		}
		return m, nil
	case key.Matches(msg, m.keys.Delete):
		if t, ok := m.selected(); ok {
			return m, m.remove(t.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.Filter):
		m.filter = nextFilter(m.filter)
		return m, m.load()
	case key.Matches(msg, m.keys.Clear):
		return m, m.clearCompleted()
	case key.Matches(msg, m.keys.Refresh):
		return m, m.load()
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	done := 0
	for _, t := range m.todos {
		if t.Completed {
			done++
		}
	}
	fmt.Fprintf(&b, "%s   %s %d  %s %d  %s %s\n\n",
		titleStyle.Render("Todos"),
		successStyle.Render("✔"), done,
		pendingStyle.Render("•"), len(m.todos)-done,
		accentStyle.Render("filter:"), m.filter,
	)

	if m.adding {
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
	}
	if len(m.todos) == 0 {
		b.WriteString(mutedStyle.Render("  nothing here"))
		b.WriteString("\n")
	}
	b.WriteString(m.list.View())
	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("✖ " + m.err.Error()))
	}
	return b.String()
}

// Filter returns the active list filter.
func (m Model) Filter() todo.Filter { return m.filter }

// Todos returns the todos currently shown.
func (m Model) Todos() []todo.Todo { return m.todos }

// Err returns the last request error, if any.
func (m Model) Err() error { return m.err }

func (m Model) selected() (todo.Todo, bool) {
	it, ok := m.list.SelectedItem().(item)
	if !ok {
		return todo.Todo{}, false
	}
	return it.Todo, true
}

func nextFilter(f todo.Filter) todo.Filter {
	switch f {
	case todo.FilterAll:
		return todo.FilterActive
	case todo.FilterActive:
		return todo.FilterCompleted
	default:
		return todo.FilterAll
	}
}

// ---------- Commands ----------

func (m Model) call(fn func(ctx context.Context) (tea.Msg, error)) tea.Cmd {
	timeout := m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		msg, err := fn(ctx)
		if err != nil {
			return errMsg{err}
		}
		return msg
	}
}

func (m Model) load() tea.Cmd {
	api, filter := m.api, m.filter
	return m.call(func(ctx context.Context) (tea.Msg, error) {
		todos, err := api.List(ctx, filter)
		return loadedMsg{todos}, err
	})
}

func (m Model) create(text string) tea.Cmd {
	api := m.api
	return m.call(func(ctx context.Context) (tea.Msg, error) {
		_, err := api.Create(ctx, text)
		return changedMsg{}, err
	})
}

func (m Model) setCompleted(id string, completed bool) tea.Cmd {
	api := m.api
	return m.call(func(ctx context.Context) (tea.Msg, error) {
		_, err := api.SetCompleted(ctx, id, completed)
		return changedMsg{}, err
	})
}

func (m Model) remove(id string) tea.Cmd {
	api := m.api
	return m.call(func(ctx context.Context) (tea.Msg, error) {
		return changedMsg{}, api.Delete(ctx, id)
	})
}

func (m Model) clearCompleted() tea.Cmd {
	api := m.api
	return m.call(func(ctx context.Context) (tea.Msg, error) {
		_, err := api.ClearCompleted(ctx)
		return changedMsg{}, err
	})
}
