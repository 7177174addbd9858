package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/hashicorp/hcl/v2/ext/typeexpr"
	"github.com/spf13/cobra"
	"github.com/specialistvlad/contractgrid/internal/app"
	"github.com/specialistvlad/contractgrid/internal/catalog"
	"gopkg.in/yaml.v3"
)

const formatTable = "table"
const formatYAML = "yaml"

type catalogView struct {
	Categories []categoryView `yaml:"categories"`
	Templates  []templateView `yaml:"templates"`
}

type categoryView struct {
	Name      string `yaml:"name"`
	Section   string `yaml:"section"`
	Namespace string `yaml:"namespace,omitempty"`
	Named     bool   `yaml:"named,omitempty"`
	NameProp  string `yaml:"name_property,omitempty"`
	Singleton bool   `yaml:"singleton,omitempty"`
}

type templateView struct {
	ID          string         `yaml:"id"`
	Category    string         `yaml:"category"`
	Description string         `yaml:"description,omitempty"`
	Cost        int            `yaml:"cost"`
	Links       []string       `yaml:"links,omitempty"`
	Properties  []propertyView `yaml:"properties,omitempty"`
}

type propertyView struct {
	Name     string   `yaml:"name"`
	Type     string   `yaml:"type"`
	Required bool     `yaml:"required,omitempty"`
	Check    string   `yaml:"check,omitempty"`
	OneOf    []string `yaml:"one_of,omitempty,flow"`
}

func newCatalogView(cat *catalog.Catalog) catalogView {
	var v catalogView
	for _, c := range cat.Categories() {
		v.Categories = append(v.Categories, categoryView{
			Name:      c.Name,
			Section:   string(c.Section),
			Namespace: c.Namespace,
			Named:     c.Named,
			NameProp:  c.NameProperty,
			Singleton: c.Singleton,
		})
	}
	for _, t := range cat.Templates() {
		tv := templateView{
			ID:          t.ID,
			Category:    t.Category.Name,
			Description: t.Description,
			Cost:        t.Cost,
			Links:       t.Links,
		}
		for _, p := range t.Properties {
			tv.Properties = append(tv.Properties, propertyView{
				Name:     p.Name,
				Type:     typeexpr.TypeString(p.Type),
				Required: p.Required,
				Check:    string(p.Check),
				OneOf:    p.OneOf,
			})
		}
		v.Templates = append(v.Templates, tv)
	}
	return v
}

func newCatalogCommand(g *globalFlags) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the component templates available on the canvas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format, formatTable, formatYAML); err != nil {
				return err
			}
			a, err := newApp(cmd, g, app.Config{})
			if err != nil {
				return err
			}
			view := newCatalogView(a.Catalog())

			out := cmd.OutOrStdout()
			if format == formatYAML {
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(view); err != nil {
					return failure(err)
				}
				if err := enc.Close(); err != nil {
					return failure(err)
				}
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TEMPLATE\tCATEGORY\tCOST\tPROPERTIES\tDESCRIPTION")
			for _, t := range view.Templates {
				names := make([]string, 0, len(t.Properties))
				for _, p := range t.Properties {
					names = append(names, p.Name)
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", t.ID, t.Category, t.Cost, strings.Join(names, ","), t.Description)
			}
			if err := tw.Flush(); err != nil {
				return failure(err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", formatTable, "Output format (table, yaml)")
	return cmd
}
