package ui

import (
	"bytes"
	"html/template"
)

var confirmHTML = template.Must(template.New("confirm").Parse(
	`<div class="confirm-overlay">` +
		`<div class="confirm-modal" role="{{.Role}}" aria-modal="true" aria-labelledby="{{.LabelledBy}}"{{if .AriaBusy}} aria-busy="true"{{end}}>` +
		`<h2 id="{{.TitleID}}">{{.Title}}</h2>` +
		`<p>{{.Message}}</p>` +
		`<div class="confirm-actions">` +
		`{{with .Cancel}}<button type="button" class="btn btn-secondary" data-action="cancel"{{if .Disabled}} disabled{{end}}>{{.Label}}</button>{{end}}` +
		`{{with .Confirm}}<button type="button" class="btn btn-danger" data-action="confirm"{{if .Disabled}} disabled{{end}}>{{.Label}}</button>{{end}}` +
		`</div></div></div>`))

// RenderConfirmHTML renders the dialog as accessible markup for web hosts.
// A closed dialog renders as the empty string.
func RenderConfirmHTML(cfg ConfirmConfig) (string, error) {
	state := ResolveConfirm(cfg)
	if !state.Visible {
		return "", nil
	}
	var buf bytes.Buffer
	if err := confirmHTML.Execute(&buf, state); err != nil {
		return "", err
	}
	return buf.String(), nil
}
