package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"mapexec/internal/sanitize"
	"mapexec/internal/state"
	"mapexec/internal/widget"
)

const historyRows = 8

type TUIView struct {
	th     Theme
	width  int
	height int
}

func NewTUIView(theme string) *TUIView {
	return &TUIView{th: themePresets()[themeIndexByName(theme)]}
}

func (v *TUIView) SetSize(width, height int) {
	v.width = width
	v.height = height
}

func (v *TUIView) View(model *TUIModel, controller *TUIController) string {
	if v.width == 0 {
		return "Loading..."
	}
	snap := model.Snapshot()

	var b strings.Builder
	b.WriteString(v.renderHeader(controller))
	b.WriteString("\n\n")

	if controller.showHelp {
		b.WriteString(v.helpView())
		return b.String()
	}

	b.WriteString(v.renderOptions(snap))
	b.WriteString("\n")
	b.WriteString(v.renderFile(controller))
	b.WriteString("\n")
	if controller.pathOn {
		b.WriteString(v.th.label.Render("Path: "))
		b.WriteString(controller.pathInput.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(v.renderSubmit(snap.Submit, controller))
	b.WriteString("\n\n")
	b.WriteString(v.renderMessage(snap.Message))
	b.WriteString("\n")

	if controller.showHistory {
		b.WriteString("\n")
		b.WriteString(v.renderHistory(snap.History))
	}
	b.WriteString("\n")
	b.WriteString(v.th.footer.Render("↑/↓ move • enter/space select • o file • x execute • r reload • h history • ? help • q quit"))
	return b.String()
}

func (v *TUIView) renderHeader(controller *TUIController) string {
	s := controller.ctrl.Settings()
	title := v.th.title.Render("Mapping Execution")
	limit := v.th.label.Render(fmt.Sprintf("  %s  •  max file %s", s.BaseURL.Redacted(), sanitize.FormatBytes(s.MaxFileSizeBytes)))
	return title + limit
}

func (v *TUIView) renderOptions(snap Snapshot) string {
	if len(snap.Options) == 0 {
		return v.th.label.Render("(no mappings)") + "\n"
	}
	width := v.width - 8
	if width < 20 {
		width = 20
	}
	var b strings.Builder
	for _, o := range snap.Options {
		cursor := "  "
		if o.ElementID == snap.Focused || (snap.Focused == "" && o.TabIndex == 0) {
			cursor = v.th.focused.Render("› ")
		}
		mark := "( )"
		style := v.th.row
		if o.Selected {
			mark = "(•)"
			style = v.th.selected
		}
		line := style.Render(mark + " " + truncateMiddle(o.Title, width))
		if o.Type != "" {
			line += v.th.label.Render(" [" + o.Type + "]")
		}
		b.WriteString(cursor + line + "\n")
		if o.Description != "" {
			b.WriteString("      " + v.th.label.Render(truncateMiddle(o.Description, width)) + "\n")
		}
	}
	return b.String()
}

func (v *TUIView) renderFile(controller *TUIController) string {
	f, ok := controller.picker.Active()
	if !ok {
		return v.th.label.Render("File: ") + "none (press o to choose)"
	}
	return v.th.label.Render("File: ") + f.Name + v.th.label.Render(" ("+humanize.IBytes(uint64(max(f.Size, 0)))+")")
}

func (v *TUIView) renderSubmit(s widget.Submit, controller *TUIController) string {
	label := "[ " + s.Label + " ]"
	switch {
	case s.Busy:
		return controller.spin.View() + " " + v.th.label.Render(s.Label)
	case s.Enabled:
		return v.th.button.Render(s.Label)
	default:
		return v.th.label.Render(label)
	}
}

// renderMessage draws a sanitized message; ERROR messages are styled as alerts.
func (v *TUIView) renderMessage(m widget.Message) string {
	if m.HTML == "" {
		return ""
	}
	base := v.th.row
	if m.Kind == widget.Error {
		base = v.th.bad
	}
	var b strings.Builder
	for _, seg := range sanitize.Segments(m.HTML) {
		if seg.Break {
			b.WriteString("\n")
			continue
		}
		st := base
		if seg.Bold {
			st = st.Bold(true)
		}
		if seg.Italic {
			st = st.Italic(true)
		}
		if seg.Icon {
			st = v.th.bad
		}
		b.WriteString(st.Render(seg.Text))
	}
	return b.String()
}

func (v *TUIView) renderHistory(rows []state.ExecutionRow) string {
	var b strings.Builder
	b.WriteString(v.th.head.Render("Executions this session"))
	b.WriteString("\n")
	if len(rows) == 0 {
		b.WriteString(v.th.label.Render("none yet"))
		b.WriteString("\n")
		return b.String()
	}
	if len(rows) > historyRows {
		rows = rows[:historyRows]
	}
	for _, r := range rows {
		status := v.th.ok.Render(r.Status)
		if r.Status != state.StatusSucceeded {
			status = v.th.bad.Render(r.Status)
		}
		detail := r.ResultPath
		if detail == "" {
			detail = r.Error
		}
		fmt.Fprintf(&b, "%-12s %-10s %-20s %-24s %s\n",
			humanize.RelTime(r.StartedAt, time.Now(), "ago", "from now"),
			status,
			truncateMiddle(r.MappingID, 20),
			truncateMiddle(r.FileName, 24),
			truncateMiddle(detail, 40))
	}
	return b.String()
}

func (v *TUIView) helpView() string {
	help := `
Mapping Execution Help

Mappings:
  ↑/k ←     Previous mapping
  ↓/j →     Next mapping
  home/end  First / last mapping
  enter     Select or deselect the focused mapping
  space     Same as enter

File and execution:
  o         Choose the input file (tab completes paths)
  x         Execute the selected mapping
  r         Reload the mapping list
  h         Toggle execution history
  q         Quit
  ?         Toggle help
`
	return help
}
