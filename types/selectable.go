package types

import (
	"strings"

	"github.com/fatih/color"
)

type Selectable interface {
	Label() string
	Selected() string
	Details() string
	Match(input string) bool
}

// ProfileSelectable is a config profile offered in a selector.
type ProfileSelectable struct {
	Name     string
	Endpoint string
	Active   bool
}

func (p ProfileSelectable) Label() string {
	if p.Active {
		return color.GreenString(p.Name) + color.New(color.Faint).Sprint(" (active)")
	}

	return color.CyanString(p.Name)
}

func (p ProfileSelectable) Selected() string {
	return p.Name
}

func (p ProfileSelectable) Details() string {
	if p.Endpoint == "" {
		return ""
	}

	return color.New(color.Faint).Sprint("Endpoint: ") + p.Endpoint
}

func (p ProfileSelectable) Match(input string) bool {
	return strings.Contains(strings.ToLower(p.Name), strings.ToLower(input))
}
