// Package tui renders plans, outputs and run reports for the terminal.
// Output is styled with lipgloss on an interactive terminal and plain
// otherwise, so that it can be piped and diffed.
package tui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/imamik/fleetstack/internal/provisioning"
	"github.com/imamik/fleetstack/internal/topology"
)

// Renderer writes human-readable reports to w.
type Renderer struct {
	w io.Writer
	p palette
}

// NewRenderer creates a renderer. styled selects lipgloss styling.
func NewRenderer(w io.Writer, styled bool) *Renderer {
	p := plainPalette()
	if styled {
		p = styledPalette()
	}
	return &Renderer{w: w, p: p}
}

// Plan prints the entities of topo in materialization order with their
// dependencies, followed by any warnings.
func (r *Renderer) Plan(topo *topology.Topology, warnings []provisioning.ValidationError) error {
	order, err := topo.Graph().TopologicalOrder()
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString(r.p.title(fmt.Sprintf("fleetstack: %s", topo.Name)))
	b.WriteString(r.p.dim(fmt.Sprintf(" (%d entities, %d fleet regions, access in %s)", len(order), len(topo.Regions), topo.Access.Node.Region)))
	b.WriteString("\n")

	b.WriteString(r.p.section("Materialization order"))
	b.WriteString("\n")
	for i, k := range order {
		fmt.Fprintf(&b, "  %3d. %s", i+1, k)
		if deps := topo.Graph().Dependencies(k); len(deps) > 0 {
			names := make([]string, 0, len(deps))
			for _, d := range deps {
				names = append(names, d.String())
			}
			b.WriteString(r.p.dim(" <- " + strings.Join(names, ", ")))
		}
		b.WriteString("\n")
	}

	if len(warnings) > 0 {
		b.WriteString(r.p.section("Warnings"))
		b.WriteString("\n")
		for _, w := range warnings {
			fmt.Fprintf(&b, "  %s %s\n", r.p.warning(warnMark), w.Message)
		}
	}

	_, err = io.WriteString(r.w, b.String())
	return err
}

// Outputs prints the realized identifiers.
func (r *Renderer) Outputs(out *provisioning.Outputs) error {
	var b strings.Builder
	b.WriteString(r.p.title(fmt.Sprintf("fleetstack: %s", out.Topology)))
	b.WriteString("\n")

	if out.TableID != "" {
		fmt.Fprintf(&b, "  %-24s %s\n", provisioning.OutputTableID, out.TableID)
	}

	for _, reg := range out.Regions {
		b.WriteString(r.p.section(fmt.Sprintf("%s %s", r.p.ready(checkMark), reg.Region)))
		b.WriteString("\n")
		for _, row := range [][2]string{
			{provisioning.OutputLoadBalancerDNSName, reg.EdgeDNSName},
			{provisioning.OutputARNLoadBalancer, reg.EdgeARN},
			{provisioning.OutputHostedZoneLoadBalancer, reg.EdgeHostedZone},
			{provisioning.OutputARNAutoScalingGroup, reg.FleetARN},
			{provisioning.OutputVPCID, reg.NetworkID},
		} {
			fmt.Fprintf(&b, "  %-24s %s\n", row[0], row[1])
		}
	}

	for _, region := range out.FailedRegions {
		b.WriteString(r.p.section(fmt.Sprintf("%s %s", r.p.failed(crossMark), region)))
		b.WriteString("\n")
		b.WriteString(r.p.dim("  not materialized"))
		b.WriteString("\n")
	}

	if a := out.Access; a != nil {
		b.WriteString(r.p.section(fmt.Sprintf("%s %s (access)", r.p.ready(checkMark), a.Region)))
		b.WriteString("\n")
		fmt.Fprintf(&b, "  %-24s %s\n", provisioning.OutputBastionID, a.NodeID)
		fmt.Fprintf(&b, "  %-24s %s\n", provisioning.OutputVPCID, a.NetworkID)
	}

	_, err := io.WriteString(r.w, b.String())
	return err
}

// Failure prints the entities a partial run or teardown left behind. It
// writes nothing for other errors.
func (r *Renderer) Failure(err error) error {
	var b strings.Builder

	var pf *provisioning.PartialFailureError
	var pt *provisioning.PartialTeardownError
	switch {
	case errors.As(err, &pf):
		b.WriteString(r.p.section("Incomplete"))
		b.WriteString("\n")
		r.keys(&b, r.p.failed(crossMark), pf.Failed, pf.Errors)
		r.keys(&b, r.p.warning(warnMark), pf.Blocked, nil)
		r.keys(&b, r.p.dim(pending), pf.Pending, nil)
	case errors.As(err, &pt):
		b.WriteString(r.p.section("Left in place"))
		b.WriteString("\n")
		r.keys(&b, r.p.failed(crossMark), pt.Failed, pt.Errors)
		r.keys(&b, r.p.warning(warnMark), pt.Blocked, nil)
	default:
		return nil
	}

	_, werr := io.WriteString(r.w, b.String())
	return werr
}

func (r *Renderer) keys(b *strings.Builder, mark string, keys []topology.Key, errs map[topology.Key]error) {
	for _, k := range keys {
		fmt.Fprintf(b, "  %s %s", mark, k)
		if err, ok := errs[k]; ok {
			b.WriteString(r.p.dim(": " + err.Error()))
		}
		b.WriteString("\n")
	}
}
