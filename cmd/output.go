package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/seventv/cloudctl/api"
	"github.com/seventv/cloudctl/types"
	"gopkg.in/yaml.v3"
)

// Table is a tabular rendering of a result. A nil header prints rows only.
type Table interface {
	Header() []string
	Rows() [][]string
}

type Printer struct {
	Format string
	Out    io.Writer
}

func (p *Printer) Print(v any, table Table) error {
	switch p.Format {
	case "json":
		enc := json.NewEncoder(p.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(p.Out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "table", "":
		return p.table(table)
	}

	return types.InvalidValue("--format", p.Format, fmt.Errorf("must be one of: table, json, yaml"))
}

func (p *Printer) table(t Table) error {
	buf := bytes.NewBuffer(nil)
	tw := tabwriter.NewWriter(buf, 0, 4, 2, ' ', 0)

	header := t.Header()
	if len(header) > 0 {
		fmt.Fprintln(tw, strings.Join(header, "\t"))
	}
	for _, row := range t.Rows() {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	out := buf.String()
	// the header is coloured after alignment so escape codes do not skew the columns
	if len(header) > 0 {
		first, rest, _ := strings.Cut(out, "\n")
		out = color.New(color.Bold).Sprint(strings.TrimRight(first, " ")) + "\n" + rest
	}

	_, err := io.WriteString(p.Out, out)
	return err
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return "-"
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+labels[k])
	}

	return strings.Join(pairs, ",")
}

func formatStatus(status string) string {
	switch status {
	case "running", "available", api.ActionStatusSuccess:
		return color.GreenString(status)
	case "off", "stopping", api.ActionStatusError:
		return color.RedString(status)
	case "":
		return "-"
	}

	return color.YellowString(status)
}

// kvTable renders key/value rows without a header.
type kvTable [][2]string

func (kvTable) Header() []string {
	return nil
}

func (t kvTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, kv := range t {
		rows = append(rows, []string{color.New(color.Faint).Sprint(kv[0] + ":"), kv[1]})
	}
	return rows
}

type serverTable []api.Server

func (serverTable) Header() []string {
	return []string{"ID", "NAME", "STATUS", "TYPE", "IMAGE", "LOCATION", "IPV4", "LABELS", "CREATED"}
}

func (t serverTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, s := range t {
		rows = append(rows, []string{
			fmt.Sprint(s.ID),
			s.Name,
			orDash(s.Status),
			orDash(s.ServerType),
			orDash(s.Image),
			orDash(s.Location),
			orDash(s.PublicIPv4),
			formatLabels(s.Labels),
			formatTime(s.Created),
		})
	}
	return rows
}

func serverDetail(s api.Server) kvTable {
	return kvTable{
		{"ID", fmt.Sprint(s.ID)},
		{"Name", s.Name},
		{"Status", formatStatus(s.Status)},
		{"Type", orDash(s.ServerType)},
		{"Image", orDash(s.Image)},
		{"Location", orDash(s.Location)},
		{"IPv4", orDash(s.PublicIPv4)},
		{"Labels", formatLabels(s.Labels)},
		{"Created", formatTime(s.Created)},
	}
}

type volumeTable []api.Volume

func (volumeTable) Header() []string {
	return []string{"ID", "NAME", "SIZE", "STATUS", "LOCATION", "SERVER", "LABELS", "CREATED"}
}

func attachedTo(server *int64) string {
	if server == nil {
		return "-"
	}
	return fmt.Sprint(*server)
}

func (t volumeTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, v := range t {
		rows = append(rows, []string{
			fmt.Sprint(v.ID),
			v.Name,
			fmt.Sprintf("%d GB", v.Size),
			orDash(v.Status),
			orDash(v.Location),
			attachedTo(v.Server),
			formatLabels(v.Labels),
			formatTime(v.Created),
		})
	}
	return rows
}

func volumeDetail(v api.Volume) kvTable {
	return kvTable{
		{"ID", fmt.Sprint(v.ID)},
		{"Name", v.Name},
		{"Size", fmt.Sprintf("%d GB", v.Size)},
		{"Status", formatStatus(v.Status)},
		{"Location", orDash(v.Location)},
		{"Server", attachedTo(v.Server)},
		{"Filesystem", orDash(v.Format)},
		{"Labels", formatLabels(v.Labels)},
		{"Created", formatTime(v.Created)},
	}
}

func actionDetail(a api.Action) kvTable {
	return kvTable{
		{"Action", fmt.Sprint(a.ID)},
		{"Command", a.Command},
		{"Status", formatStatus(a.Status)},
		{"Progress", fmt.Sprintf("%d%%", a.Progress)},
	}
}

type deleted struct {
	Resource string `json:"resource" yaml:"resource"`
	ID       int64  `json:"id" yaml:"id"`
	Deleted  bool   `json:"deleted" yaml:"deleted"`
}

func (d deleted) table() kvTable {
	return kvTable{
		{"Deleted", fmt.Sprintf("%s %d", d.Resource, d.ID)},
	}
}
