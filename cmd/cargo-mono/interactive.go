package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fbkclanna/cargo-mono/internal/bump"
	"github.com/fbkclanna/cargo-mono/internal/graph"
	"github.com/fbkclanna/cargo-mono/internal/semver"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	dimStyle      = lipgloss.NewStyle().Faint(true)
	selectedStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

const maxVisible = 10

type pkgChoice struct {
	name      string
	version   semver.Version
	published semver.Version // zero when never published
}

type bumpSelection struct {
	Package         string
	Kind            semver.Kind
	Breaking        bool
	ForceDependents bool
}

type selectStage int

const (
	stagePackage selectStage = iota
	stageKind
)

var kindChoices = []semver.Kind{semver.KindPatch, semver.KindMinor, semver.KindMajor}

// selectModel lets the user filter and pick a package, then a bump kind and
// whether dependents are force-bumped.
type selectModel struct {
	filter   textinput.Model
	packages []pkgChoice
	matches  []int
	cursor   int

	stage      selectStage
	chosen     int
	kindCursor int
	force      bool

	done    bool
	aborted bool
}

func newSelectModel(packages []pkgChoice, query string, force bool) selectModel {
	ti := textinput.New()
	ti.Placeholder = "filter packages"
	ti.SetValue(query)
	ti.Focus()
	return selectModel{
		filter:   ti,
		packages: packages,
		matches:  filterPackages(packages, query),
		force:    force,
	}
}

// filterPackages returns the indexes of packages whose name contains query,
// ignoring case.
func filterPackages(packages []pkgChoice, query string) []int {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]int, 0, len(packages))
	for i, p := range packages {
		if q == "" || strings.Contains(strings.ToLower(p.name), q) {
			out = append(out, i)
		}
	}
	return out
}

func (m selectModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		if m.stage == stagePackage {
			var cmd tea.Cmd
			m.filter, cmd = m.filter.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "esc":
		m.aborted = true
		return m, tea.Quit
	}

	if m.stage == stageKind {
		switch key.String() {
		case "up", "k", "left", "h":
			if m.kindCursor > 0 {
				m.kindCursor--
			}
		case "down", "j", "right", "l", "tab":
			if m.kindCursor < len(kindChoices)-1 {
				m.kindCursor++
			}
		case "d", " ":
			m.force = !m.force
		case "enter":
			m.done = true
			return m, tea.Quit
		}
		return m, nil
	}

	switch key.String() {
	case "up", "ctrl+p":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "ctrl+n":
		if m.cursor < len(m.matches)-1 {
			m.cursor++
		}
		return m, nil
	case "enter":
		if len(m.matches) == 0 {
			return m, nil
		}
		m.chosen = m.matches[m.cursor]
		m.stage = stageKind
		return m, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.matches = filterPackages(m.packages, m.filter.Value())
	if m.cursor >= len(m.matches) {
		m.cursor = max(len(m.matches)-1, 0)
	}
	return m, cmd
}

func (m selectModel) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder
	if m.stage == stageKind {
		p := m.packages[m.chosen]
		b.WriteString(titleStyle.Render("Bump "+p.name) + "\n")
		if !p.published.IsZero() {
			b.WriteString(dimStyle.Render("published "+p.published.String()) + "\n")
		}
		for i, k := range kindChoices {
			line := fmt.Sprintf("%-5s %s -> %s", k, p.version, bump.Next(p.version, p.published, k))
			if i == m.kindCursor {
				line = selectedStyle.Render("> " + line)
			} else {
				line = "  " + line
			}
			b.WriteString(line + "\n")
		}
		check := " "
		if m.force {
			check = "x"
		}
		_, _ = fmt.Fprintf(&b, "[%s] patch-bump every dependent\n", check)
		b.WriteString(dimStyle.Render("d to toggle dependents, enter to confirm, esc to abort") + "\n")
		return b.String()
	}

	b.WriteString(titleStyle.Render("Select a package to bump") + "\n")
	b.WriteString(m.filter.View() + "\n")
	if len(m.matches) == 0 {
		b.WriteString(dimStyle.Render("  no match") + "\n")
		return b.String()
	}
	start := 0
	if m.cursor >= maxVisible {
		start = m.cursor - maxVisible + 1
	}
	end := min(start+maxVisible, len(m.matches))
	for i := start; i < end; i++ {
		p := m.packages[m.matches[i]]
		line := fmt.Sprintf("%s %s", p.name, dimStyle.Render(p.version.String()))
		if i == m.cursor {
			line = selectedStyle.Render("> "+p.name) + " " + dimStyle.Render(p.version.String())
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

// selection returns the user's choice once the model is done.
func (m selectModel) selection() bumpSelection {
	p := m.packages[m.chosen]
	k := kindChoices[m.kindCursor]
	return bumpSelection{
		Package:         p.name,
		Kind:            k,
		Breaking:        k == semver.BreakingKind(p.version) || k == semver.KindMajor,
		ForceDependents: m.force,
	}
}

// bumpChoices lists the versioned packages of g in discovery order, with
// their published versions when known.
func bumpChoices(g *graph.Graph, published map[string]semver.Version) []pkgChoice {
	var out []pkgChoice
	for _, p := range g.Packages() {
		if !p.HasVersion() {
			continue
		}
		v, err := semver.ParseVersion(p.Version)
		if err != nil {
			continue
		}
		out = append(out, pkgChoice{name: p.Name, version: v, published: published[p.Name]})
	}
	return out
}

// selectBump runs the interactive selector. query pre-fills the filter and
// force the dependents toggle.
func selectBump(g *graph.Graph, query string, published map[string]semver.Version, force bool) (bumpSelection, error) {
	choices := bumpChoices(g, published)
	if len(choices) == 0 {
		return bumpSelection{}, fmt.Errorf("no package with a version to bump")
	}
	result, err := tea.NewProgram(newSelectModel(choices, query, force)).Run()
	if err != nil {
		return bumpSelection{}, err
	}
	m := result.(selectModel)
	if m.aborted || !m.done {
		return bumpSelection{}, fmt.Errorf("user aborted")
	}
	return m.selection(), nil
}
