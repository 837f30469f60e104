package main

import (
	"fmt"
	"os"

	"github.com/guptarohit/asciigraph"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/san-kum/monte/internal/analysis"
	"github.com/san-kum/monte/internal/completion"
	"github.com/san-kum/monte/internal/storage"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openBackend()
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "CAMPAIGN", "RUN", "TIME", "CONDITIONS", "REASON", "PASSES", "SAMPLES"})
	for _, run := range runs {
		t.AppendRow(table.Row{
			run.ID,
			run.Campaign,
			run.Run,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Initial.String(),
			run.Reason,
			run.Passes,
			run.Samples,
		})
	}
	if markdown {
		fmt.Println(t.RenderMarkdown())
		return nil
	}
	fmt.Println(t.Render())
	return nil
}

func showRun(cmd *cobra.Command, args []string) error {
	st, err := openBackend()
	if err != nil {
		return err
	}
	defer st.Close()

	meta, err := st.Load(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run:        %s\n", meta.ID)
	fmt.Printf("campaign:   %s #%d\n", meta.Campaign, meta.Run)
	fmt.Printf("conditions: %s\n", meta.Initial)
	fmt.Printf("reason:     %s", meta.Reason)
	if meta.Limit != "" {
		fmt.Printf(" (%s)", meta.Limit)
	}
	fmt.Printf("\npasses:     %d  samples: %d  time: %g  skipped: %d\n\n", meta.Passes, meta.Samples, meta.Time, meta.Skipped)

	if len(meta.Criteria) == 0 {
		fmt.Println("no convergence criteria evaluated")
		return nil
	}
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"OBSERVABLE", "COMPONENT", "N", "MEAN", "HALF-WIDTH", "PRECISION", "CONF", "TAU", "OK"})
	for _, cr := range meta.Criteria {
		comp := fmt.Sprint(cr.Component)
		if cr.Name != "" {
			comp = cr.Name
		}
		t.AppendRow(table.Row{
			cr.Observable, comp, cr.Estimate.N,
			fmt.Sprintf("%.6g", cr.Estimate.Mean),
			fmt.Sprintf("%.4g", cr.Estimate.HalfWidth),
			cr.Precision, cr.Confidence,
			fmt.Sprintf("%.2f", cr.Estimate.Tau),
			cr.Satisfied,
		})
	}
	fmt.Println(t.Render())
	for _, cr := range meta.Criteria {
		if cr.Error != "" {
			fmt.Printf("%s[%d]: %s\n", cr.Observable, cr.Component, cr.Error)
		}
	}
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	st, err := openBackend()
	if err != nil {
		return err
	}
	defer st.Close()

	runID := args[0]
	meta, err := st.Load(cmd.Context(), runID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("conditions: %s\n\n", meta.Initial)

	plotted := 0
	for _, o := range meta.Observables {
		if plotObservable != "" && o.Name != plotObservable {
			continue
		}
		samples, err := st.LoadSeries(cmd.Context(), runID, o.Name)
		if err != nil {
			return err
		}
		if len(samples) == 0 {
			continue
		}
		for j := range samples[0].Values {
			data := make([]float64, len(samples))
			for i, s := range samples {
				data[i] = s.Values[j]
			}
			caption := o.Name
			if j < len(o.Components) {
				caption += " " + o.Components[j]
			} else if len(samples[0].Values) > 1 {
				caption += fmt.Sprintf(" [%d]", j)
			}
			fmt.Println(asciigraph.Plot(data,
				asciigraph.Height(10),
				asciigraph.Width(80),
				asciigraph.Caption(caption+" vs sample"),
			))
			fmt.Println()
			plotted++
		}
	}
	if plotted == 0 {
		return fmt.Errorf("no data to plot")
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st, err := openBackend()
	if err != nil {
		return err
	}
	defer st.Close()

	samples, err := st.LoadSeries(cmd.Context(), args[0], observable)
	if err != nil {
		return err
	}
	if len(samples) < 2 {
		return fmt.Errorf("%s: need at least 2 samples, have %d", observable, len(samples))
	}
	if component < 0 || component >= len(samples[0].Values) {
		return fmt.Errorf("%s has %d components", observable, len(samples[0].Values))
	}

	data := make([]float64, len(samples))
	for i, s := range samples {
		data[i] = s.Values[component]
	}

	fmt.Printf("autocorrelation: %s[%d], %d samples\n\n", observable, component, len(data))
	if rho := analysis.Autocorrelation(data); len(rho) > 1 {
		lags := min(len(rho), 200)
		fmt.Println(asciigraph.Plot(rho[:lags],
			asciigraph.Height(12),
			asciigraph.Width(80),
			asciigraph.Caption("autocorrelation vs lag"),
		))
		fmt.Println()
		fmt.Printf("integrated autocorrelation time: %.3f samples\n\n",
			analysis.IntegratedTime(rho, analysis.SokalWindow))
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ESTIMATOR", "MEAN", "HALF-WIDTH", "BATCHES", "TAU"})
	for _, m := range []analysis.Method{analysis.BatchMeans, analysis.IntegratedAutocorrelation} {
		est, ok := m.Estimate(data, completion.DefaultConfidence)
		if !ok {
			continue
		}
		t.AppendRow(table.Row{m, fmt.Sprintf("%.6g", est.Mean), fmt.Sprintf("%.4g", est.HalfWidth), est.Batches, fmt.Sprintf("%.2f", est.Tau)})
	}
	fmt.Println(t.Render())
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st, err := openBackend()
	if err != nil {
		return err
	}
	defer st.Close()

	if outFile == "" {
		return storage.Export(cmd.Context(), st, args[0], os.Stdout)
	}
	if err := storage.ExportFile(cmd.Context(), st, args[0], outFile); err != nil {
		return err
	}
	fmt.Printf("exported %s to %s\n", args[0], outFile)
	return nil
}
