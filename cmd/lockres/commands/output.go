package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"text/tabwriter"

	"go.trai.ch/lockres/internal/app"
	"go.trai.ch/lockres/internal/core/domain"
	"go.trai.ch/lockres/internal/engine/scheduler"
)

type specView struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Version     string `json:"version,omitempty"`
	Source      string `json:"source,omitempty"`
	SourceURL   string `json:"source_url,omitempty"`
	Path        string `json:"path,omitempty"`
	URL         string `json:"url,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Status      string `json:"status,omitempty"`
}

type edgeView struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Marker string `json:"marker,omitempty"`
}

type resultView struct {
	Session  string            `json:"session"`
	Lock     string            `json:"lock"`
	Order    []string          `json:"order"`
	Specs    []specView        `json:"specs"`
	Pruned   []edgeView        `json:"pruned,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
	Failures map[string]string `json:"failures,omitempty"`
	Statuses map[string]string `json:"statuses,omitempty"`
}

func newSpecView(spec domain.InstallSpec) specView {
	v := specView{
		Key:         string(spec.Key),
		Name:        spec.Name,
		Kind:        spec.Kind.String(),
		Version:     spec.Version,
		Path:        spec.Path,
		URL:         spec.URL,
		Fingerprint: spec.Fingerprint,
	}
	if spec.Source != nil {
		v.Source = spec.Source.ID
		v.SourceURL = spec.Source.URL
	}
	return v
}

func newResultView(res *app.ResolveResult, report *scheduler.Report) resultView {
	v := resultView{
		Session:  res.SessionID,
		Lock:     res.LockPath,
		Order:    make([]string, 0, len(res.Graph.Order)),
		Specs:    make([]specView, 0, len(res.Specs)),
		Warnings: res.Graph.Warnings,
	}
	for _, k := range res.Graph.Order {
		v.Order = append(v.Order, string(k))
	}
	for _, spec := range res.Specs {
		sv := newSpecView(spec)
		if report != nil {
			sv.Status = string(report.Statuses[spec.Key])
		}
		v.Specs = append(v.Specs, sv)
	}
	for _, e := range res.Graph.Pruned {
		ev := edgeView{From: string(e.From), To: string(e.To)}
		if e.Marker != nil {
			ev.Marker = e.Marker.String()
		}
		v.Pruned = append(v.Pruned, ev)
	}
	if len(res.Resolution.Failures) > 0 {
		v.Failures = make(map[string]string, len(res.Resolution.Failures))
		for k, err := range res.Resolution.Failures {
			v.Failures[string(k)] = err.Error()
		}
	}
	if report != nil {
		v.Statuses = make(map[string]string, len(report.Statuses))
		for k, s := range report.Statuses {
			v.Statuses[string(k)] = string(s)
		}
		for k, err := range report.Errors {
			if v.Failures == nil {
				v.Failures = make(map[string]string)
			}
			v.Failures[string(k)] = err.Error()
		}
	}
	return v
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeSpecs(w io.Writer, res *app.ResolveResult, report *scheduler.Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	header := "KEY\tKIND\tTARGET"
	if report != nil {
		header += "\tSTATUS"
	}
	_, _ = fmt.Fprintln(tw, header)

	for _, spec := range res.Specs {
		target := spec.Target()
		if target == "" && spec.Source != nil {
			target = fmt.Sprintf("%s==%s (%s)", spec.Name, spec.Version, spec.Source.URL)
		}
		line := fmt.Sprintf("%s\t%s\t%s", spec.Key, spec.Kind, target)
		if report != nil {
			line += "\t" + string(report.Statuses[spec.Key])
		}
		_, _ = fmt.Fprintln(tw, line)
	}
	for _, k := range slices.Sorted(maps.Keys(res.Resolution.Failures)) {
		line := fmt.Sprintf("%s\t-\tunresolved", k)
		if report != nil {
			line += "\t" + string(report.Statuses[k])
		}
		_, _ = fmt.Fprintln(tw, line)
	}
	return tw.Flush()
}
