package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/yard/internal/models"
)

type fakeStore struct {
	containers []*models.Container
	listErr    error
}

func (f *fakeStore) Grid() models.Grid { return models.DefaultGrid }

func (f *fakeStore) ListContainers(context.Context) ([]*models.Container, error) {
	return f.containers, f.listErr
}

func (f *fakeStore) FindContainerByNumber(_ context.Context, number string) (*models.Container, error) {
	for _, c := range f.containers {
		if c.Number() == number {
			return c, nil
		}
	}
	return nil, nil
}

func newContainer(number string, row, col int) *models.Container {
	return models.NewContainer(models.ContainerFields{
		Number: number, Origin: "Rotterdam", Destination: "Singapore", RowPos: row, ColPos: col, Owner: "Maersk",
	})
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// drive runs cmd and feeds its message back into the model, returning the model.
func drive(t *testing.T, m *Model, cmd tea.Cmd) *Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	msg := cmd()
	if _, ok := msg.(Msg); !ok {
		return m
	}
	next, _ := m.Update(msg)
	return next.(*Model)
}

func setup(t *testing.T, store *fakeStore) *Model {
	t.Helper()
	m := NewModel(context.Background(), store)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return drive(t, m, m.Init())
}

func TestModel(t *testing.T) {
	store := &fakeStore{containers: []*models.Container{
		newContainer("CNT001", 1, 2),
		newContainer("CNT002", 3, 3),
	}}

	t.Run("loads containers into the list", func(t *testing.T) {
		m := setup(t, store)

		if m.State() != ListView {
			t.Fatalf("expected list view, got %v", m.State())
		}
		if len(m.list.Items()) != 2 {
			t.Fatalf("expected 2 items, got %d", len(m.list.Items()))
		}
		view := m.View()
		if !strings.Contains(view, "Containers (2)") || !strings.Contains(view, "CNT001") {
			t.Errorf("list view missing content:\n%s", view)
		}
	})

	t.Run("enter opens details", func(t *testing.T) {
		m := setup(t, store)

		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		if m.State() != DetailView {
			t.Fatalf("expected detail view, got %v", m.State())
		}
		view := m.View()
		for _, want := range []string{"Container CNT001", "Rotterdam", "row 1, column 2", "Maersk"} {
			if !strings.Contains(view, want) {
				t.Errorf("detail view missing %q:\n%s", want, view)
			}
		}

		m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		if m.State() != ListView {
			t.Errorf("esc should return to list, got %v", m.State())
		}
	})

	t.Run("grid view", func(t *testing.T) {
		m := setup(t, store)

		m.Update(keyRunes("g"))
		if m.State() != GridView {
			t.Fatalf("expected grid view, got %v", m.State())
		}
		view := m.View()
		for _, want := range []string{"Yard 5x5", "CNT001", "CNT002", "2 of 25 slots occupied"} {
			if !strings.Contains(view, want) {
				t.Errorf("grid view missing %q:\n%s", want, view)
			}
		}
	})

	t.Run("search found", func(t *testing.T) {
		m := setup(t, store)

		m.Update(keyRunes("s"))
		if m.State() != SearchView {
			t.Fatalf("expected search view, got %v", m.State())
		}

		for _, r := range "CNT002" {
			m.Update(keyRunes(string(r)))
		}
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m = drive(t, m, cmd)

		view := m.View()
		if !strings.Contains(view, "✓ CNT002") || !strings.Contains(view, "row 3, column 3") {
			t.Errorf("search view missing result:\n%s", view)
		}
	})

	t.Run("search not found", func(t *testing.T) {
		m := setup(t, store)

		m.Update(keyRunes("s"))
		for _, r := range "qq9" {
			m.Update(keyRunes(string(r)))
		}
		if m.State() != SearchView {
			t.Fatalf("typing q in search must not quit, state %v", m.State())
		}

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m = drive(t, m, cmd)

		if !strings.Contains(m.View(), `No container found with number "qq9"`) {
			t.Errorf("expected not-found message:\n%s", m.View())
		}
	})

	t.Run("empty search is ignored", func(t *testing.T) {
		m := setup(t, store)

		m.Update(keyRunes("s"))
		if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
			t.Error("expected no command for empty query")
		}
	})

	t.Run("quit", func(t *testing.T) {
		m := setup(t, store)

		_, cmd := m.Update(keyRunes("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})

	t.Run("help toggles", func(t *testing.T) {
		m := setup(t, store)

		m.Update(keyRunes("?"))
		if !m.help.ShowAll {
			t.Fatal("expected full help")
		}
		if !strings.Contains(m.View(), "refresh") {
			t.Errorf("full help should list refresh:\n%s", m.View())
		}
	})
}

func TestModelLoadError(t *testing.T) {
	store := &fakeStore{listErr: errors.New("database unavailable")}
	m := setup(t, store)

	if !strings.Contains(m.View(), "database unavailable") {
		t.Errorf("expected error view:\n%s", m.View())
	}

	m.Update(keyRunes("g"))
	if m.State() != ListView {
		t.Errorf("navigation should be blocked while the list failed to load")
	}

	store.listErr = nil
	store.containers = []*models.Container{newContainer("CNT001", 1, 1)}

	_, cmd := m.Update(keyRunes("r"))
	m = drive(t, m, cmd)
	if strings.Contains(m.View(), "Error") {
		t.Errorf("refresh should clear the error:\n%s", m.View())
	}
}

func TestRenderGrid(t *testing.T) {
	grid := models.Grid{Rows: 2, Cols: 2}
	out := renderGrid(grid.Layout([]*models.Container{newContainer("CNT001", 2, 1)}))

	if !strings.Contains(out, "CNT001") {
		t.Errorf("grid missing label:\n%s", out)
	}
	if strings.Count(out, "·") != 3 {
		t.Errorf("expected 3 empty slots:\n%s", out)
	}
	if renderGrid(nil) != "" {
		t.Error("expected empty output")
	}
}
