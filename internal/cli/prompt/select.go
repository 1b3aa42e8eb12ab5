package prompt

import (
	"github.com/manifoldco/promptui"
)

// SelectOption is an item of a selection list.
type SelectOption struct {
	Label       string
	Value       string
	Description string
}

// Select prompts for one of options and returns its Value.
func Select(label string, options []SelectOption) (string, error) {
	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Label | cyan }}",
		Inactive: "  {{ .Label | white }}",
		Selected: "* {{ .Label | green }}",
	}
	if len(options) > 0 && options[0].Description != "" {
		templates.Details = `
{{ "Description:" | faint }}	{{ .Description }}`
	}

	p := promptui.Select{
		Label:     label,
		Items:     options,
		Templates: templates,
		Size:      10,
	}
	i, _, err := p.Run()
	if err != nil {
		return "", wrapError(err)
	}
	return options[i].Value, nil
}

// SelectString prompts for one of items.
func SelectString(label string, items []string) (string, error) {
	p := promptui.Select{Label: label, Items: items, Size: 10}
	_, result, err := p.Run()
	return result, wrapError(err)
}
