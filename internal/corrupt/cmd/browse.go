package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/v2/list"
	"github.com/charmbracelet/bubbles/v2/spinner"
	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/spf13/cobra"

	"corrupt/internal/analysis"
	"corrupt/internal/corrupt/styles"
	"corrupt/internal/disasm"
	"corrupt/internal/gba"
	"corrupt/internal/rom"
	"corrupt/internal/ui/colorize"
)

// maxBrowseWords caps the listing so large images stay responsive.
const maxBrowseWords = 1 << 16

var browseCmd = &cobra.Command{
	Use:   "browse <rom>",
	Short: "Browse the disassembly and verdicts interactively",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, err := rom.Load(args[0])
		if err != nil {
			return err
		}

		program := tea.NewProgram(
			newBrowseModel(img),
			tea.WithAltScreen(),
			tea.WithContext(cmd.Context()),
		)
		if _, err := program.Run(); err != nil {
			slog.Error("TUI run error", "error", err)
			return fmt.Errorf("TUI error: %v", err)
		}
		return nil
	},
}

type viewMode int

const (
	viewInfo viewMode = iota
	viewListing
	viewDetails
)

type wordItem struct {
	inst    disasm.Inst
	verdict analysis.Verdict
}

func (i wordItem) FilterValue() string {
	return fmt.Sprintf("%08x %s %s", i.inst.VA, i.inst.Text, i.verdict.Rule)
}

type wordDelegate struct{}

func (d wordDelegate) Height() int                               { return 1 }
func (d wordDelegate) Spacing() int                              { return 0 }
func (d wordDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d wordDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(wordItem)
	if !ok {
		return
	}

	indicator := " "
	addrStyle := styles.Address
	if index == m.Index() {
		indicator = ">"
		addrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))
	}

	text, _ := colorize.ColorizeAssembly(fmt.Sprintf("%-32s", i.inst.Text))
	fmt.Fprintf(w, " %s  %s  %s  %s %s",
		indicator,
		addrStyle.Render(fmt.Sprintf("%08x", i.inst.VA)),
		styles.VerdictLabel(i.verdict.Eligible, true),
		text,
		styles.Muted.Render(i.verdict.Rule))
}

type loadedMsg struct {
	summary analysis.Summary
	digest  string
	items   []list.Item
}

func loadCmd(img *rom.Image) tea.Cmd {
	return func() tea.Msg {
		data := img.Bytes()
		words := min((img.Len()-gba.HeaderSize)/disasm.WordSize, maxBrowseWords)

		stream := disasm.Disassemble(data, gba.ROMBase, gba.HeaderSize, words)
		items := make([]list.Item, 0, len(stream))
		for _, in := range stream {
			v, _ := analysis.Classify(data, in.Offset)
			items = append(items, wordItem{inst: in, verdict: v})
		}

		return loadedMsg{
			summary: analysis.Survey(data, gba.HeaderSize, 0),
			digest:  img.Digest(),
			items:   items,
		}
	}
}

type browseModel struct {
	info    viewport.Model
	words   list.Model
	details viewport.Model
	spinner spinner.Model
	mode    viewMode
	img     *rom.Image
	summary *analysis.Summary
	digest  string
	count   int
	width   int
	height  int
}

func newBrowseModel(img *rom.Image) browseModel {
	info := viewport.New()
	info.SetWidth(80)
	info.SetHeight(24)

	words := list.New([]list.Item{}, wordDelegate{}, 80, 24)
	words.SetShowStatusBar(false)
	words.SetFilteringEnabled(true)
	words.Title = "Words"
	words.Styles.Title = lipgloss.NewStyle().
		Foreground(lipgloss.Color("99")).
		MarginLeft(2)
	words.SetShowHelp(true)

	details := viewport.New()
	details.SetWidth(80)
	details.SetHeight(24)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))

	m := browseModel{
		info:    info,
		words:   words,
		details: details,
		spinner: s,
		mode:    viewInfo,
		img:     img,
		width:   80,
		height:  24,
	}
	m.updateInfo()
	return m
}

func (m browseModel) Init() tea.Cmd {
	return tea.Batch(loadCmd(m.img), m.spinner.Tick)
}

func (m browseModel) loading() bool {
	return m.summary == nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case loadedMsg:
		m.summary = &msg.summary
		m.digest = msg.digest
		m.count = len(msg.items)
		m.words.SetItems(msg.items)
		m.words.Title = fmt.Sprintf("Words (%d)", m.count)
		m.updateInfo()
		return m, nil

	case spinner.TickMsg:
		if !m.loading() {
			return m, nil
		}
		m.spinner, cmd = m.spinner.Update(msg)
		m.updateInfo()
		return m, cmd

	case tea.WindowSizeMsg:
		if msg.Width != m.width || msg.Height != m.height {
			m.width = msg.Width
			m.height = msg.Height
			m.info.SetWidth(msg.Width)
			m.info.SetHeight(msg.Height - 2)
			m.words.SetWidth(msg.Width)
			m.words.SetHeight(msg.Height - 2)
			m.details.SetWidth(msg.Width)
			m.details.SetHeight(msg.Height - 2)
			m.updateInfo()
		}

	case tea.KeyMsg:
		// Keys go to the filter input while the list is filtering
		if m.mode == viewListing && m.words.FilterState() == list.Filtering {
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			break
		}

		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "i":
			m.mode = viewInfo
			return m, nil
		case "l":
			if m.count > 0 {
				m.mode = viewListing
			}
			return m, nil
		case "enter":
			if m.mode == viewListing {
				if item, ok := m.words.SelectedItem().(wordItem); ok {
					m.showDetails(item)
					m.mode = viewDetails
				}
			}
			return m, nil
		case "tab":
			m.mode = m.nextMode(1)
			return m, nil
		case "shift+tab":
			m.mode = m.nextMode(-1)
			return m, nil
		}
	}

	switch m.mode {
	case viewListing:
		m.words, cmd = m.words.Update(msg)
	case viewDetails:
		m.details, cmd = m.details.Update(msg)
	default:
		m.info, cmd = m.info.Update(msg)
	}
	return m, cmd
}

// nextMode cycles through the views, skipping the listing until it is loaded.
func (m browseModel) nextMode(step int) viewMode {
	mode := m.mode
	for range 3 {
		mode = viewMode((int(mode) + step + 3) % 3)
		if mode == viewInfo || m.count > 0 {
			return mode
		}
	}
	return m.mode
}

func (m browseModel) View() string {
	var content, menu string
	switch m.mode {
	case viewListing:
		content = m.words.View()
		menu = " Enter: word details • I: info • Tab: cycle • Q: quit "
	case viewDetails:
		content = m.details.View()
		menu = " I: info • L: listing • Tab: cycle • Q: quit "
	default:
		content = m.info.View()
		if m.count > 0 {
			menu = " L: listing • Tab: cycle • Q: quit "
		} else {
			menu = " Q: quit "
		}
	}

	menuStyle := lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("252")).
		Padding(0, 1).
		Width(m.width)

	return content + "\n" + menuStyle.Render(menu)
}

func (m *browseModel) updateInfo() {
	h := m.img.Header()

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n```\n", analysis.DisplayField(h.Title))
	fmt.Fprintf(&b, "; %s\n", m.img.Path)
	fmt.Fprintf(&b, "; %s %s v%d, %d bytes\n", analysis.DisplayField(h.GameCode), analysis.DisplayField(h.MakerCode), h.Version, m.img.Len())
	if m.digest != "" {
		fmt.Fprintf(&b, "; %s\n", m.digest)
	}
	b.WriteString("```\n")

	if m.loading() {
		fmt.Fprintf(&b, "\n%s Classifying...\n", m.spinner.View())
	} else {
		s := m.summary
		fmt.Fprintf(&b, "\n## Eligibility\n\n**%d** of %d body bytes may be corrupted (%.1f%%).\n\n",
			s.Eligible, s.End-s.Start, 100*s.Ratio())
		for _, name := range analysis.Rules() {
			if n := s.ByRule[name]; n > 0 {
				fmt.Fprintf(&b, "- %s: %d\n", name, n)
			}
		}
	}

	m.info.SetContent(strings.TrimSuffix(styles.RenderMarkdown(b.String(), m.width-2), "\n"))
}

func (m *browseModel) showDetails(item wordItem) {
	f := item.inst.Fields

	var b strings.Builder
	fmt.Fprintf(&b, "## %08x  `%s`\n\n", item.inst.VA, item.inst.Text)
	b.WriteString("| Field | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| File offset | `0x%06x` |\n", item.inst.Offset)
	fmt.Fprintf(&b, "| Word | `%08x` |\n", f.Instruction)
	fmt.Fprintf(&b, "| Condition | `0x%02x` |\n", f.Condition)
	fmt.Fprintf(&b, "| Opcode1 | `0x%02x` |\n", f.Opcode1)
	fmt.Fprintf(&b, "| Opcode2 | `0x%x` |\n", f.Opcode2)
	fmt.Fprintf(&b, "| Class | %s |\n", item.verdict.Class)
	fmt.Fprintf(&b, "| Rule | %s |\n", item.verdict.Rule)
	if item.verdict.Eligible {
		b.WriteString("\nAll four bytes of this word may be corrupted.\n")
	} else {
		b.WriteString("\nThis word is protected.\n")
	}

	m.details.SetContent(strings.TrimSuffix(styles.RenderMarkdown(b.String(), m.width-2), "\n"))
	m.details.GotoTop()
}

func init() {
	rootCmd.AddCommand(browseCmd)
}
