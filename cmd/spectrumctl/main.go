package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/signalsfoundry/spectrum-deconfliction/model"
	spectrumsdk "github.com/signalsfoundry/spectrum-deconfliction/sdk/go"
)

var rootCmd = &cobra.Command{
	Use:   "spectrumctl",
	Short: "Spectrum deconfliction CLI",
	Long: `spectrumctl talks to a spectrum deconfliction server.

The workflow is decide-then-commit: 'request' asks for a decision and, when
approved, returns an authorization id; 'allocate' commits that authorization
into the active allocation table. 'plan', 'interference', 'emitter', and
'coa' query the shared electromagnetic picture.`,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("SPECTRUM")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().String("server", "http://localhost:8080", "base URL of the deconfliction server")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	_ = viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func registerCommands() {
	rootCmd.AddCommand(requestCmd())
	rootCmd.AddCommand(allocateCmd())
	rootCmd.AddCommand(planCmd())
	rootCmd.AddCommand(interferenceCmd())
	rootCmd.AddCommand(emitterCmd())
	rootCmd.AddCommand(coaCmd())
}

func client() *spectrumsdk.Client {
	return spectrumsdk.New(viper.GetString("server"))
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" || s == "now" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: use RFC3339 or 'now'", s)
	}
	return t.UTC(), nil
}

func requestCmd() *cobra.Command {
	var (
		asset    string
		freq     float64
		bw       float64
		power    float64
		lat, lon float64
		start    string
		duration int
		priority string
		purpose  string
	)
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Request a deconfliction decision",
		RunE: func(cmd *cobra.Command, args []string) error {
			startTime, err := parseTime(start)
			if err != nil {
				return err
			}
			decision, err := client().RequestDeconfliction(cmd.Context(), spectrumsdk.DeconflictionParams{
				AssetID:         asset,
				FrequencyMHz:    freq,
				BandwidthKHz:    bw,
				PowerDBm:        power,
				Location:        model.Location{Lat: lat, Lon: lon},
				StartTime:       startTime,
				DurationMinutes: duration,
				Priority:        priority,
				Purpose:         purpose,
			})
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(decision)
			}
			fmt.Printf("%s: %s\n", decision.Status, decision.Justification)
			if decision.AuthorizationID != "" {
				fmt.Printf("authorization id: %s\n", decision.AuthorizationID)
			}
			for _, c := range decision.Conflicts {
				fmt.Printf("  conflict [%s] %s (severity %.2f): %s\n",
					c.Type, c.ConflictingAsset, c.Severity, c.Description)
			}
			if len(decision.AlternativeFrequencies) > 0 {
				fmt.Printf("alternatives (MHz): %v\n", decision.AlternativeFrequencies)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&asset, "asset", "", "asset identifier")
	cmd.Flags().Float64Var(&freq, "freq", 0, "center frequency in MHz")
	cmd.Flags().Float64Var(&bw, "bandwidth", 25, "bandwidth in kHz")
	cmd.Flags().Float64Var(&power, "power", 30, "transmit power in dBm")
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude in degrees")
	cmd.Flags().Float64Var(&lon, "lon", 0, "longitude in degrees")
	cmd.Flags().StringVar(&start, "start", "now", "window start (RFC3339 or 'now')")
	cmd.Flags().IntVar(&duration, "duration", 60, "window duration in minutes")
	cmd.Flags().StringVar(&priority, "priority", "ROUTINE", "ROUTINE, PRIORITY, IMMEDIATE, or FLASH")
	cmd.Flags().StringVar(&purpose, "purpose", "", "what the transmission is for")
	_ = cmd.MarkFlagRequired("asset")
	_ = cmd.MarkFlagRequired("freq")
	return cmd
}

func allocateCmd() *cobra.Command {
	var (
		asset    string
		freq     float64
		bw       float64
		power    float64
		lat, lon float64
		duration int
		authID   string
		priority string
		purpose  string
	)
	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Commit an approved request into the allocation table",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client().AllocateFrequency(cmd.Context(), spectrumsdk.AllocationParams{
				AssetID:         asset,
				FrequencyMHz:    freq,
				BandwidthKHz:    bw,
				PowerDBm:        power,
				Location:        model.Location{Lat: lat, Lon: lon},
				DurationMinutes: duration,
				AuthorizationID: authID,
				Priority:        priority,
				Purpose:         purpose,
			})
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(result)
			}
			fmt.Printf("%s: %s\n", result.Status, result.Message)
			if result.ExpiresAt != nil {
				fmt.Printf("expires: %s\n", result.ExpiresAt.Format(time.RFC3339))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&asset, "asset", "", "asset identifier")
	cmd.Flags().Float64Var(&freq, "freq", 0, "center frequency in MHz")
	cmd.Flags().Float64Var(&bw, "bandwidth", 25, "bandwidth in kHz")
	cmd.Flags().Float64Var(&power, "power", 30, "transmit power in dBm")
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude in degrees")
	cmd.Flags().Float64Var(&lon, "lon", 0, "longitude in degrees")
	cmd.Flags().IntVar(&duration, "duration", 60, "window duration in minutes")
	cmd.Flags().StringVar(&authID, "auth-id", "", "authorization id from an approved request")
	cmd.Flags().StringVar(&priority, "priority", "ROUTINE", "ROUTINE, PRIORITY, IMMEDIATE, or FLASH")
	cmd.Flags().StringVar(&purpose, "purpose", "", "what the transmission is for")
	_ = cmd.MarkFlagRequired("asset")
	_ = cmd.MarkFlagRequired("freq")
	_ = cmd.MarkFlagRequired("auth-id")
	return cmd
}

func planCmd() *cobra.Command {
	var start, end, area string
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the allocation plan for a time window",
		RunE: func(cmd *cobra.Command, args []string) error {
			startTime, err := parseTime(start)
			if err != nil {
				return err
			}
			endTime, err := parseTime(end)
			if err != nil {
				return err
			}
			plan, err := client().SpectrumPlan(cmd.Context(), area, startTime, endTime)
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(plan)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"Asset", "Freq (MHz)", "BW (kHz)", "Power (dBm)", "Start", "End", "Priority"})
			for _, a := range plan.Allocations {
				tw.AppendRow(table.Row{
					a.AssetID, a.FrequencyMHz, a.BandwidthKHz, a.PowerDBm,
					a.StartTime.Format(time.RFC3339), a.EndTime.Format(time.RFC3339), a.Priority,
				})
			}
			tw.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&start, "start", "now", "window start (RFC3339 or 'now')")
	cmd.Flags().StringVar(&end, "end", "", "window end (RFC3339)")
	cmd.Flags().StringVar(&area, "area", "", "area of operations as a GeoJSON polygon")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func interferenceCmd() *cobra.Command {
	var (
		lat, min float64
		lon, max float64
	)
	cmd := &cobra.Command{
		Use:   "interference",
		Short: "Report aggregate interference at a location",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := client().InterferenceReport(cmd.Context(),
				model.Location{Lat: lat, Lon: lon},
				model.FrequencyRange{MinMHz: min, MaxMHz: max})
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(report)
			}
			fmt.Printf("noise floor: %.1f dBm (%d sources)\n", report.TotalNoiseFloorDBm, len(report.Sources))
			for _, s := range report.Sources {
				fmt.Printf("  %s at %.1f MHz: %.1f dBm, azimuth %.0f\n",
					s.SourceID, s.FrequencyMHz, s.InterferenceLevel, s.AzimuthDegrees)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude in degrees")
	cmd.Flags().Float64Var(&lon, "lon", 0, "longitude in degrees")
	cmd.Flags().Float64Var(&min, "min", 0, "lower edge of the band in MHz")
	cmd.Flags().Float64Var(&max, "max", 0, "upper edge of the band in MHz")
	_ = cmd.MarkFlagRequired("min")
	_ = cmd.MarkFlagRequired("max")
	return cmd
}

func emitterCmd() *cobra.Command {
	var (
		lat, lon   float64
		freq, bw   float64
		waveform   string
		modulation string
		prf        float64
		confidence float64
	)
	cmd := &cobra.Command{
		Use:   "emitter",
		Short: "Report a detected emitter",
		RunE: func(cmd *cobra.Command, args []string) error {
			sig := model.SignalCharacteristics{
				Waveform:   waveform,
				Modulation: modulation,
			}
			if prf > 0 {
				sig.PRFHz = &prf
			}
			report, err := client().ReportEmitter(cmd.Context(), spectrumsdk.EmitterParams{
				Location:      model.Location{Lat: lat, Lon: lon},
				FrequencyMHz:  freq,
				BandwidthKHz:  bw,
				Signal:        sig,
				DetectionTime: time.Now().UTC(),
				Confidence:    confidence,
			})
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(report)
			}
			fmt.Printf("recorded emitter %s\n", report.EmitterID)
			if ta := report.ThreatAssessment; ta != nil {
				fmt.Printf("assessment: %s threat, level %s", ta.Type, ta.Level)
				if ta.MatchesKnownSystem != "" {
					fmt.Printf(", matches %s", ta.MatchesKnownSystem)
				}
				fmt.Println()
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude in degrees")
	cmd.Flags().Float64Var(&lon, "lon", 0, "longitude in degrees")
	cmd.Flags().Float64Var(&freq, "freq", 0, "center frequency in MHz")
	cmd.Flags().Float64Var(&bw, "bandwidth", 0, "bandwidth in kHz")
	cmd.Flags().StringVar(&waveform, "waveform", "", "observed waveform description")
	cmd.Flags().StringVar(&modulation, "modulation", "", "observed modulation")
	cmd.Flags().Float64Var(&prf, "prf", 0, "pulse repetition frequency in Hz, if pulsed")
	cmd.Flags().Float64Var(&confidence, "confidence", 0.5, "detection confidence in [0,1]")
	_ = cmd.MarkFlagRequired("freq")
	return cmd
}

func coaCmd() *cobra.Command {
	var coaID, actionsPath string
	cmd := &cobra.Command{
		Use:   "coa",
		Short: "Analyze the electromagnetic impact of a course of action",
		Long: `Reads friendly actions as a JSON array from --actions (or stdin when
the path is '-') and submits them for impact analysis.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if actionsPath == "-" {
				data, err = io.ReadAll(os.Stdin)
			} else {
				data, err = os.ReadFile(actionsPath)
			}
			if err != nil {
				return err
			}
			var actions []model.FriendlyAction
			if err := json.Unmarshal(data, &actions); err != nil {
				return fmt.Errorf("parsing actions: %w", err)
			}
			analysis, err := client().AnalyzeCOAImpact(cmd.Context(), coaID, actions)
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(analysis)
			}
			fmt.Printf("impact score: %.2f\n", analysis.ImpactScore)
			fmt.Printf("risk: %s\n", analysis.RiskSummary)
			for _, a := range analysis.AffectedAssets {
				fmt.Printf("  friendly %s: %s (severity %.2f)\n", a.AssetID, a.ImpactType, a.Severity)
			}
			if len(analysis.EnemyEffects.AffectedSystems) > 0 {
				fmt.Printf("enemy systems degraded: %v (%.0f%% probability)\n",
					analysis.EnemyEffects.AffectedSystems,
					analysis.EnemyEffects.ProbabilityOfDegradation*100)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&coaID, "id", "", "course of action identifier")
	cmd.Flags().StringVar(&actionsPath, "actions", "-", "path to a JSON array of friendly actions, '-' for stdin")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}
