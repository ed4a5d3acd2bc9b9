package ui

import (
	"reflect"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func press(m picker, msgs ...tea.KeyMsg) picker {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(picker)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func checkedRows(labels ...string) []Row {
	rows := make([]Row, len(labels))
	for i, l := range labels {
		rows[i] = Row{Label: l, Title: "Title " + l, Checked: true}
	}
	return rows
}

func checks(rows []Row) []bool {
	out := make([]bool, len(rows))
	for i, r := range rows {
		out[i] = r.Checked
	}
	return out
}

func titles(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Title
	}
	return out
}

func TestPickerKeys(t *testing.T) {
	tests := []struct {
		name string
		keys []tea.KeyMsg
		want []bool
	}{
		{"untouched", nil, []bool{true, true, true}},
		{"toggle first", []tea.KeyMsg{{Type: tea.KeySpace}}, []bool{false, true, true}},
		{"move and toggle", []tea.KeyMsg{{Type: tea.KeyDown}, runes("j"), runes("x")}, []bool{true, true, false}},
		{"cursor stops at end", []tea.KeyMsg{{Type: tea.KeyDown}, {Type: tea.KeyDown}, {Type: tea.KeyDown}, {Type: tea.KeySpace}}, []bool{true, true, false}},
		{"cursor stops at top", []tea.KeyMsg{{Type: tea.KeyUp}, runes("k"), {Type: tea.KeySpace}}, []bool{false, true, true}},
		{"none then one", []tea.KeyMsg{runes("n"), {Type: tea.KeyDown}, {Type: tea.KeySpace}}, []bool{false, true, false}},
		{"none then all", []tea.KeyMsg{runes("n"), runes("a")}, []bool{true, true, true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := press(newPicker("Videos", checkedRows("a", "b", "c")), tt.keys...)
			if got := checks(m.rows); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("checked = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPickerEditTitle(t *testing.T) {
	backspaces := func(n int) []tea.KeyMsg {
		out := make([]tea.KeyMsg, n)
		for i := range out {
			out[i] = tea.KeyMsg{Type: tea.KeyBackspace}
		}
		return out
	}
	seq := func(parts ...[]tea.KeyMsg) []tea.KeyMsg {
		var out []tea.KeyMsg
		for _, p := range parts {
			out = append(out, p...)
		}
		return out
	}

	tests := []struct {
		name   string
		keys   []tea.KeyMsg
		titles []string
		checks []bool
	}{
		{
			name:   "append to second",
			keys:   []tea.KeyMsg{{Type: tea.KeyDown}, runes("e"), runes(" (HD)"), {Type: tea.KeyEnter}},
			titles: []string{"Title a", "Title b (HD)"},
			checks: []bool{true, true},
		},
		{
			name:   "replace first",
			keys:   seq([]tea.KeyMsg{runes("e")}, backspaces(7), []tea.KeyMsg{runes("Renamed"), {Type: tea.KeyEnter}}),
			titles: []string{"Renamed", "Title b"},
			checks: []bool{true, true},
		},
		{
			name:   "esc discards",
			keys:   []tea.KeyMsg{runes("e"), runes("xyz"), {Type: tea.KeyEsc}},
			titles: []string{"Title a", "Title b"},
			checks: []bool{true, true},
		},
		{
			name:   "blank keeps old title",
			keys:   seq([]tea.KeyMsg{runes("e")}, backspaces(7), []tea.KeyMsg{runes("  "), {Type: tea.KeyEnter}}),
			titles: []string{"Title a", "Title b"},
			checks: []bool{true, true},
		},
		{
			name:   "picker keys are typed while editing",
			keys:   []tea.KeyMsg{runes("e"), runes("n"), runes("q"), runes(" "), runes("x"), {Type: tea.KeyEnter}},
			titles: []string{"Title anq x", "Title b"},
			checks: []bool{true, true},
		},
		{
			name:   "keys work again after commit",
			keys:   []tea.KeyMsg{runes("e"), {Type: tea.KeyEnter}, runes("n")},
			titles: []string{"Title a", "Title b"},
			checks: []bool{false, false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := press(newPicker("Videos", checkedRows("a", "b")), tt.keys...)
			if m.editing {
				t.Fatal("still editing")
			}
			if m.cancelled || m.done {
				t.Fatalf("done=%v cancelled=%v", m.done, m.cancelled)
			}
			if got := titles(m.rows); !reflect.DeepEqual(got, tt.titles) {
				t.Errorf("titles = %q, want %q", got, tt.titles)
			}
			if got := checks(m.rows); !reflect.DeepEqual(got, tt.checks) {
				t.Errorf("checked = %v, want %v", got, tt.checks)
			}
		})
	}
}

func TestPickerEditView(t *testing.T) {
	m := press(newPicker("Videos", checkedRows("a")), runes("e"))
	if !m.editing {
		t.Fatal("e should start editing")
	}
	view := m.View()
	for _, want := range []string{"title: ", "enter save"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if got := next.(picker); !got.cancelled || cmd == nil {
		t.Error("ctrl+c should cancel while editing")
	}
}

func TestPickerConfirmAndCancel(t *testing.T) {
	m := newPicker("Videos", checkedRows("a"))

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if got := next.(picker); !got.done || got.cancelled {
		t.Errorf("enter: done=%v cancelled=%v", got.done, got.cancelled)
	}
	if cmd == nil {
		t.Error("enter should quit the program")
	}

	next, _ = m.Update(runes("q"))
	if got := next.(picker); !got.cancelled {
		t.Error("q should cancel")
	}
}

func TestPickerDoesNotAliasInput(t *testing.T) {
	in := []Row{{Label: "a", Title: "A", Checked: true}, {Label: "b"}}
	m := press(newPicker("Videos", in), tea.KeyMsg{Type: tea.KeySpace}, runes("e"), runes("!"), tea.KeyMsg{Type: tea.KeyEnter})
	if !in[0].Checked || in[0].Title != "A" {
		t.Errorf("picker mutated the caller's slice: %+v", in[0])
	}
	if m.rows[0].Checked || m.rows[0].Title != "A!" {
		t.Errorf("rows[0] = %+v", m.rows[0])
	}
}

func TestPickerView(t *testing.T) {
	m := newPicker("Videos", []Row{
		{Label: "https://cdn.example.com/a.mp4", Title: "First clip", Checked: true},
		{Label: "https://cdn.example.com/b.mp4"},
	})
	view := m.View()
	for _, want := range []string{"Videos (1/2 selected)", "a.mp4", "First clip", "b.mp4", "[x]", "[ ]", "edit title"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}

	m.done = true
	if m.View() != "" {
		t.Error("View() should be empty after confirming")
	}
}

func TestMultiSelectEmpty(t *testing.T) {
	if _, err := MultiSelect("Videos", nil); err == nil {
		t.Error("empty rows should fail")
	}
}
