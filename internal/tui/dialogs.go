package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/upsconsole/internal/api"
	"github.com/jask/upsconsole/internal/console"
)

// Dialog templates the list controllers ask for.
const (
	tmplApplicationForm   = "application-form"
	tmplApplicationRemove = "application-remove"
	tmplVariantForm       = "variant-form"
	tmplVariantRemove     = "variant-remove"
)

type formField struct {
	key      string
	label    string
	value    string
	required bool
}

// formDialog edits a set of text fields and resolves its session with the value
// build produces from them.
type formDialog struct {
	sessionID string
	title     string
	fields    []formField
	inputs    []textinput.Model
	focus     int
	problem   string
	build     func(values map[string]string) any
}

func newFormDialog(sessionID, title string, fields []formField, build func(map[string]string) any) *formDialog {
	inputs := make([]textinput.Model, 0, len(fields))
	for i, f := range fields {
		in := textinput.New()
		in.Cursor.SetMode(cursor.CursorStatic)
		label := f.label
		if f.required {
			label += "*"
		}
		in.Prompt = label + ": "
		in.CharLimit = 255
		in.SetValue(f.value)
		if i == 0 {
			in.Focus()
		}
		inputs = append(inputs, in)
	}
	return &formDialog{sessionID: sessionID, title: title, fields: fields, inputs: inputs, build: build}
}

func (d *formDialog) Title() string { return d.title }
func (d *formDialog) Scope() string { return scopeForm }

func (d *formDialog) values() map[string]string {
	out := make(map[string]string, len(d.fields))
	for i, f := range d.fields {
		out[f.key] = strings.TrimSpace(d.inputs[i].Value())
	}
	return out
}

// missing returns the label of the first required field left empty.
func (d *formDialog) missing() string {
	vals := d.values()
	for _, f := range d.fields {
		if f.required && vals[f.key] == "" {
			return f.label
		}
	}
	return ""
}

func (d *formDialog) Update(msg tea.Msg) (Screen, tea.Cmd, bool) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "esc":
			return d, console.Cancel(d.sessionID), true
		case "tab", "shift+tab", "down", "up":
			step := 1
			if k.String() == "shift+tab" || k.String() == "up" {
				step = -1
			}
			d.inputs[d.focus].Blur()
			d.focus = (d.focus + step + len(d.inputs)) % len(d.inputs)
			d.inputs[d.focus].Focus()
			return d, nil, false
		case "enter":
			if label := d.missing(); label != "" {
				d.problem = label + " is required"
				return d, nil, false
			}
			return d, console.Confirm(d.sessionID, d.build(d.values())), true
		}
	}
	d.problem = ""
	var cmd tea.Cmd
	d.inputs[d.focus], cmd = d.inputs[d.focus].Update(msg)
	return d, cmd, false
}

func (d *formDialog) View(width, height int) string {
	lines := []string{titleStyle.Render(d.title), ""}
	for _, in := range d.inputs {
		in.Width = max(width-len(in.Prompt)-8, 10)
		lines = append(lines, in.View())
	}
	if d.problem != "" {
		lines = append(lines, "", errTextStyle.Render(d.problem))
	}
	lines = append(lines, "", mutedStyle.Render("enter: save  esc: cancel  tab: next field"))
	return strings.Join(lines, "\n")
}

// confirmDialog asks a yes/no question.
type confirmDialog struct {
	sessionID string
	title     string
	prompt    string
}

func (d *confirmDialog) Title() string { return d.title }
func (d *confirmDialog) Scope() string { return scopeConfirm }

func (d *confirmDialog) Update(msg tea.Msg) (Screen, tea.Cmd, bool) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return d, nil, false
	}
	switch k.String() {
	case "y", "enter":
		return d, console.Confirm(d.sessionID, nil), true
	case "n", "esc":
		return d, console.Cancel(d.sessionID), true
	}
	return d, nil, false
}

func (d *confirmDialog) View(width, height int) string {
	return strings.Join([]string{
		titleStyle.Render(d.title),
		"",
		warnTextStyle.Render(d.prompt),
		"",
		mutedStyle.Render("y: confirm  n: cancel"),
	}, "\n")
}

// dialogHost turns dialog requests into screens.
type dialogHost struct {
	builders map[string]func(console.DialogRequest) Screen
}

func newDialogHost() *dialogHost {
	return &dialogHost{builders: map[string]func(console.DialogRequest) Screen{
		tmplApplicationForm:   applicationForm,
		tmplApplicationRemove: removeConfirm("application"),
		tmplVariantForm:       variantForm,
		tmplVariantRemove:     removeConfirm("android variant"),
	}}
}

// Open pushes the dialog for req. A request for a template nobody registered
// resolves at once as cancelled so the caller's session still closes.
func (h *dialogHost) Open(req console.DialogRequest) tea.Cmd {
	build, ok := h.builders[req.Template]
	if !ok {
		return console.Cancel(req.SessionID)
	}
	return pushScreen(build(req))
}

func applicationForm(req console.DialogRequest) Screen {
	app, _ := req.Value.(api.Application)
	title := "New application"
	if req.Kind == console.DialogEdit {
		title = fmt.Sprintf("Edit application %q", app.Name)
	}
	fields := []formField{
		{key: "name", label: "Name", value: app.Name, required: true},
		{key: "description", label: "Description", value: app.Description},
	}
	return newFormDialog(req.SessionID, title, fields, func(v map[string]string) any {
		out := app
		out.Name = v["name"]
		out.Description = v["description"]
		return out
	})
}

func variantForm(req console.DialogRequest) Screen {
	variant, _ := req.Value.(api.AndroidVariant)
	title := "New android variant"
	if req.Kind == console.DialogEdit {
		title = fmt.Sprintf("Edit android variant %q", variant.Name)
	}
	fields := []formField{
		{key: "name", label: "Name", value: variant.Name, required: true},
		{key: "description", label: "Description", value: variant.Description},
		{key: "googleKey", label: "Server key", value: variant.GoogleKey, required: true},
		{key: "projectNumber", label: "Sender ID", value: variant.ProjectNumber},
	}
	return newFormDialog(req.SessionID, title, fields, func(v map[string]string) any {
		out := variant
		out.Name = v["name"]
		out.Description = v["description"]
		out.GoogleKey = v["googleKey"]
		out.ProjectNumber = v["projectNumber"]
		return out
	})
}

func removeConfirm(noun string) func(console.DialogRequest) Screen {
	return func(req console.DialogRequest) Screen {
		label := ""
		if l, ok := req.Value.(interface{ Label() string }); ok {
			label = l.Label()
		}
		return &confirmDialog{
			sessionID: req.SessionID,
			title:     "Remove " + noun,
			prompt:    fmt.Sprintf("Remove %s %q? This cannot be undone.", noun, label),
		}
	}
}
