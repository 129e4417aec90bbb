package network

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/bnsearch/pkg/catalogue/cataloguetest"
	"github.com/matzehuels/bnsearch/pkg/order"
	"github.com/matzehuels/bnsearch/pkg/scoring"
)

func chainReport(t *testing.T) scoring.Report {
	t.Helper()
	rep, err := scoring.New(cataloguetest.Chain(3)).Check(order.Identity(3))
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	return rep
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(chainReport(t), Options{})

	for _, want := range []string{"v0 -> v1;", "v0 -> v2;", "v1 -> v2;", `v2 [label="2"]`} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "dashed") {
		t.Errorf("consistent ordering should have no dashed edges:\n%s", dot)
	}
}

func TestToDOTOptions(t *testing.T) {
	dot := ToDOT(chainReport(t), Options{Scores: true, Names: []string{"smoker", "", "cancer"}})

	for _, want := range []string{`label="smoker\n100"`, `label="1\n90"`, `label="cancer\n79"`, `label="score 269"`} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestToDOTInvalidEdge(t *testing.T) {
	rep := scoring.Report{
		Entries: []scoring.Entry{
			{Position: 0, Var: 1, Parents: []int{0}, Valid: false},
			{Position: 1, Var: 0, Valid: true},
		},
	}
	dot := ToDOT(rep, Options{})
	if !strings.Contains(dot, "v0 -> v1 [style=dashed, color=red];") {
		t.Errorf("backward edge should be dashed:\n%s", dot)
	}
	if !strings.Contains(dot, `v1 [label="1", color=red, penwidth=2]`) {
		t.Errorf("invalid child should be outlined:\n%s", dot)
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(chainReport(t), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Errorf("output is not SVG: %.80s", svg)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="62pt" height="44pt" viewBox="0.00 0.00 62.00 44.00"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `width="62" height="44"`) {
		t.Errorf("normalizeViewBox = %s", out)
	}
	if got := normalizeViewBox([]byte("<svg>")); string(got) != "<svg>" {
		t.Errorf("svg without viewBox should be unchanged, got %s", got)
	}
}
