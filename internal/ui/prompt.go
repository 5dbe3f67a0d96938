package ui

import (
	"context"
	"fmt"
	"strings"

	"pkger/internal/cache"

	"github.com/manifoldco/promptui"
)

// Confirm prompts the user for yes/no confirmation.
func Confirm(prompt string, defaultYes bool) (bool, error) {
	label := prompt
	if defaultYes {
		label += " [Y/n]"
	} else {
		label += " [y/N]"
	}

	p := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	if defaultYes {
		p.Default = "y"
	}

	result, err := p.Run()
	if err != nil {
		if err == promptui.ErrAbort {
			return false, nil
		}
		return defaultYes, nil
	}

	result = strings.ToLower(strings.TrimSpace(result))
	if result == "" {
		return defaultYes, nil
	}

	return result == "y" || result == "yes", nil
}

// PasswordPrompter reads the elevation secret from the terminal with masked
// input. It implements the credential broker's Prompter.
type PasswordPrompter struct{}

// PromptSecret asks for the secret. The returned buffer belongs to the
// caller, which zeroes it after use.
func (PasswordPrompter) PromptSecret(ctx context.Context, prompt string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p := promptui.Prompt{
		Label: prompt,
		Mask:  '*',
	}
	result, err := p.Run()
	if err != nil {
		return nil, err
	}
	return []byte(result), nil
}

// SelectRecord prompts the user to pick one package from search results.
func SelectRecord(records []cache.Record, prompt string) (*cache.Record, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("no packages to select from")
	}

	if len(records) == 1 {
		return &records[0], nil
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "▸ {{ .Name | cyan }} {{ .Version | green }} [{{ .Repository | magenta }}]",
		Inactive: "  {{ .Name }} {{ .Version | faint }} [{{ .Repository | faint }}]",
		Selected: "✓ {{ .Name | cyan }} {{ .Version | green }} [{{ .Repository | magenta }}]",
		Details: `
--------- Package ----------
{{ "Name:" | faint }}	{{ .Name }}
{{ "Version:" | faint }}	{{ .Version }}
{{ "Repository:" | faint }}	{{ .Repository }}
{{ "Description:" | faint }}	{{ .Description }}`,
	}

	searcher := func(input string, index int) bool {
		name := strings.ToLower(records[index].Name)
		return strings.Contains(name, strings.ToLower(input))
	}

	p := promptui.Select{
		Label:     prompt,
		Items:     records,
		Templates: templates,
		Size:      10,
		Searcher:  searcher,
	}

	index, _, err := p.Run()
	if err != nil {
		return nil, err
	}

	return &records[index], nil
}
