// SPDX-License-Identifier: MPL-2.0

// Package descriptor reads the few fields scd needs from component
// descriptors: etc/module.xml for modules and theme.xml for themes.
package descriptor

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMissingModuleName is returned when a module.xml has no <module name="...">.
var ErrMissingModuleName = errors.New("module descriptor has no module name")

type (
	// ModuleDescriptor is the subset of etc/module.xml scd uses.
	ModuleDescriptor struct {
		Name     string
		Sequence []string
	}

	// ThemeDescriptor is the subset of theme.xml scd uses.
	ThemeDescriptor struct {
		Title string
		// Parent is empty for a theme without a parent.
		Parent string
	}

	moduleXML struct {
		XMLName xml.Name `xml:"config"`
		Module  struct {
			Name     string `xml:"name,attr"`
			Sequence struct {
				Modules []struct {
					Name string `xml:"name,attr"`
				} `xml:"module"`
			} `xml:"sequence"`
		} `xml:"module"`
	}

	themeXML struct {
		XMLName xml.Name `xml:"theme"`
		Title   string   `xml:"title"`
		Parent  string   `xml:"parent"`
	}
)

// ParseModule reads a module.xml document. A <sequence> holding one entry
// and one holding many produce the same shape.
func ParseModule(r io.Reader) (ModuleDescriptor, error) {
	var doc moduleXML
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return ModuleDescriptor{}, fmt.Errorf("parse module descriptor: %w", err)
	}

	name := strings.TrimSpace(doc.Module.Name)
	if name == "" {
		return ModuleDescriptor{}, ErrMissingModuleName
	}

	desc := ModuleDescriptor{Name: name}
	for _, m := range doc.Module.Sequence.Modules {
		if dep := strings.TrimSpace(m.Name); dep != "" {
			desc.Sequence = append(desc.Sequence, dep)
		}
	}
	return desc, nil
}

// ParseTheme reads a theme.xml document.
func ParseTheme(r io.Reader) (ThemeDescriptor, error) {
	var doc themeXML
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return ThemeDescriptor{}, fmt.Errorf("parse theme descriptor: %w", err)
	}
	return ThemeDescriptor{
		Title:  strings.TrimSpace(doc.Title),
		Parent: strings.TrimSpace(doc.Parent),
	}, nil
}
