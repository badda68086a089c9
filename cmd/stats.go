package cmd

import (
	"bytes"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/chazu/lumen/pkg/kernel"
	"github.com/chazu/lumen/pkg/render"
)

func displayFrameStats(res *render.Result, total time.Duration) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Pass", "Worker", "Tiles", "Pixels", "% of frame", "Busy"})

	frame := res.Image.Width * res.Image.Height
	for i, pass := range res.Passes {
		for _, w := range pass.Workers {
			pct := 0.0
			if frame > 0 {
				pct = 100 * float64(w.Pixels) / float64(frame)
			}
			table.Append([]string{
				fmt.Sprintf("%d", i+1),
				fmt.Sprintf("%d", w.ID),
				fmt.Sprintf("%d", w.Tiles),
				fmt.Sprintf("%d", w.Pixels),
				fmt.Sprintf("%02.1f %%", pct),
				w.Busy.String(),
			})
		}
	}
	table.SetFooter([]string{"", "", "", "", "TOTAL", total.String()})

	table.Render()
	logger.Noticef("frame statistics\n%s", buf.String())
}

func displayMeshStats(meshes []*kernel.Mesh) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"SDF", "Material", "Vertices", "Triangles"})

	total := 0
	for _, m := range meshes {
		table.Append([]string{
			m.Name,
			fmt.Sprintf("%d", m.Material),
			fmt.Sprintf("%d", m.VertexCount()),
			fmt.Sprintf("%d", m.TriangleCount()),
		})
		total += m.TriangleCount()
	}
	table.SetFooter([]string{"", "", "TOTAL", fmt.Sprintf("%d", total)})

	table.Render()
	logger.Noticef("mesh statistics\n%s", buf.String())
}
