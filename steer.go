package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/alDuncanson/manifold/circle"
	"github.com/alDuncanson/manifold/dataset"
	"github.com/alDuncanson/manifold/projection"
	"github.com/alDuncanson/manifold/qdrant"
	"github.com/alDuncanson/manifold/steering"
	"github.com/alDuncanson/manifold/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
)

// addDataFlags registers the data source and projection flags shared by steer,
// fit and view.
func addDataFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("input", "", "CSV or JSON dataset (label/text columns, remaining columns are features)")
	flags.Bool("qdrant", false, "load labeled embeddings from Qdrant")
	flags.Bool("cluster", false, "relabel points with HDBSCAN before fitting")
	flags.Int("min-cluster-size", projection.DefaultHDBSCANConfig().MinClusterSize, "HDBSCAN minimum cluster size")
	flags.String("method", "", "projection method: pca, kernel_pca or umap")
	flags.String("kernel", "", "kernel for kernel_pca: rbf, cosine, sigmoid, poly or linear")
	flags.Bool("standardize", false, "z-score features before projecting")
	flags.Int("clusters", 0, "synthetic data: number of clusters")
	flags.Int64("seed", 0, "synthetic data and UMAP seed")
}

// addSteeringFlags registers the steering parameters.
func addSteeringFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.Float64("step-size", 0, "radians per step")
	flags.Int("direction", 0, "1 for counterclockwise, -1 for clockwise")
	flags.Float64("strength", 0, "fraction of the steering vector applied, in [0, 1]")
	flags.Int("steps", 0, "number of steps")
}

// applyFlags copies every flag the user set onto the configuration and validates
// the result.
func (a *app) applyFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	cfg := a.cfg

	if flags.Changed("method") {
		cfg.Projection.Method, _ = flags.GetString("method")
	}
	if flags.Changed("kernel") {
		cfg.Projection.Kernel, _ = flags.GetString("kernel")
	}
	if flags.Changed("standardize") {
		cfg.Projection.Standardize, _ = flags.GetBool("standardize")
	}
	if flags.Changed("clusters") {
		cfg.Synthetic.Clusters, _ = flags.GetInt("clusters")
	}
	if flags.Changed("seed") {
		seed, _ := flags.GetInt64("seed")
		cfg.Synthetic.Seed = seed
		cfg.Projection.UMAP.Seed = seed
	}
	if flags.Changed("step-size") {
		cfg.Steering.StepSize, _ = flags.GetFloat64("step-size")
	}
	if flags.Changed("direction") {
		cfg.Steering.Direction, _ = flags.GetInt("direction")
	}
	if flags.Changed("strength") {
		cfg.Steering.Strength, _ = flags.GetFloat64("strength")
	}
	if flags.Changed("steps") {
		cfg.Steering.Steps, _ = flags.GetInt("steps")
	}

	return cfg.Validate()
}

// loadDataset reads the dataset from the selected source.
func (a *app) loadDataset(cmd *cobra.Command) (*dataset.Dataset, error) {
	flags := cmd.Flags()
	input, _ := flags.GetString("input")
	fromQdrant, _ := flags.GetBool("qdrant")

	var ds *dataset.Dataset
	var err error
	switch {
	case input != "":
		ds, err = dataset.Load(input)
	case fromQdrant:
		ds, err = a.loadFromQdrant(cmd)
	default:
		ds, _, err = dataset.GenerateCircularClusters(a.cfg.CircularClusters())
	}
	if err != nil {
		return nil, err
	}

	if cluster, _ := flags.GetBool("cluster"); cluster {
		minClusterSize, _ := flags.GetInt("min-cluster-size")
		result := projection.Cluster(ds.Rows(), projection.HDBSCANConfig{MinClusterSize: minClusterSize})
		log.Info().Int("clusters", result.NumClusters()).Msg("relabeled with hdbscan")
		if ds, err = ds.WithLabels(result.Labels); err != nil {
			return nil, err
		}
	}

	log.Info().Int("rows", ds.Len()).Int("dim", ds.Dim()).Ints("classes", ds.Classes()).Msg("loaded dataset")
	return ds, nil
}

func (a *app) loadFromQdrant(cmd *cobra.Command) (*dataset.Dataset, error) {
	services := a.cfg.Services
	client, err := qdrant.NewClient(cmd.Context(), services.QdrantAddress, services.QdrantCollection, services.VectorSize)
	if err != nil {
		return nil, fmt.Errorf("connect to qdrant at %s: %w", services.QdrantAddress, err)
	}
	defer client.Close()

	points, err := client.GetAll(cmd.Context())
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("collection %q is empty, run embed first: %w", services.QdrantCollection, errNoData)
	}
	return qdrant.ToDataset(points)
}

// fitSteerer loads the dataset and fits the configured projection and circle.
func (a *app) fitSteerer(cmd *cobra.Command) (*steering.Steerer, error) {
	if err := a.applyFlags(cmd); err != nil {
		return nil, err
	}
	ds, err := a.loadDataset(cmd)
	if err != nil {
		return nil, err
	}
	reducer, err := a.cfg.Projection.Reducer()
	if err != nil {
		return nil, err
	}

	steerer, err := steering.Fit(ds, reducer)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("method", string(steerer.Model().Method())).
		Str("circle", steerer.Circle().String()).
		Msg("fitted")
	return steerer, nil
}

func (a *app) steerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "steer",
		Short: "Steer one dataset point around the fitted circle",
		Long: `steer fits the projection and circle, then moves one dataset row
around the circle for --steps steps and prints every step.

Only PCA has an exact inverse. Kernel PCA and UMAP steer through an
approximate inverse, so the realized angle can differ from the requested one;
with UMAP a step may even move the wrong way or not reverse.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			steerer, err := a.fitSteerer(cmd)
			if err != nil {
				return err
			}

			index, _ := cmd.Flags().GetInt("index")
			points, steps, err := steerer.SteerIndexSteps(index, a.cfg.Params(), a.cfg.Steering.Steps)
			if err != nil {
				return err
			}
			path, err := steerer.Path(points)
			if err != nil {
				return err
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeStepsJSON(cmd.OutOrStdout(), steerer, points[0], steps, path)
			}
			writeStepsTable(cmd.OutOrStdout(), steps, path)
			return nil
		},
	}
	addDataFlags(cmd)
	addSteeringFlags(cmd)
	cmd.Flags().Int("index", 0, "dataset row to steer")
	cmd.Flags().Bool("json", false, "print JSON instead of a table")
	return cmd
}

func writeStepsTable(out io.Writer, steps []steering.Step, path []projection.Point2D) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Step", "From θ", "To θ", "|v|", "Projected"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	table.Append([]string{"0", "", "", "", formatPoint(path[0])})
	for i, step := range steps {
		table.Append([]string{
			strconv.Itoa(i + 1),
			fmt.Sprintf("%.4f", step.PreviousAngle),
			fmt.Sprintf("%.4f", step.NewAngle),
			fmt.Sprintf("%.4f", floats.Norm(step.SteeringVector, 2)),
			formatPoint(path[i+1]),
		})
	}
	table.Render()
}

type stepJSON struct {
	PreviousPoint  []float64  `json:"previous_point"`
	SteeringVector []float64  `json:"steering_vector"`
	Point          []float64  `json:"point"`
	PreviousAngle  float64    `json:"previous_angle"`
	NewAngle       float64    `json:"new_angle"`
	StepSize       float64    `json:"step_size"`
	Direction      string     `json:"direction"`
	Strength       float64    `json:"strength"`
	Projected      [2]float64 `json:"projected"`
}

type steerJSON struct {
	Method string     `json:"method"`
	Center [2]float64 `json:"center"`
	Radius float64    `json:"radius"`
	Start  []float64  `json:"start"`
	Steps  []stepJSON `json:"steps"`
}

func writeStepsJSON(out io.Writer, steerer *steering.Steerer, start []float64, steps []steering.Step, path []projection.Point2D) error {
	c := steerer.Circle()
	report := steerJSON{
		Method: string(steerer.Model().Method()),
		Center: [2]float64{c.Center.X, c.Center.Y},
		Radius: c.Radius,
		Start:  start,
		Steps:  make([]stepJSON, len(steps)),
	}
	for i, step := range steps {
		report.Steps[i] = stepJSON{
			PreviousPoint:  step.PreviousPoint,
			SteeringVector: step.SteeringVector,
			Point:          step.Point,
			PreviousAngle:  step.PreviousAngle,
			NewAngle:       step.NewAngle,
			StepSize:       step.StepSize,
			Direction:      step.Direction.String(),
			Strength:       step.Strength,
			Projected:      [2]float64{path[i+1].X, path[i+1].Y},
		}
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func (a *app) fitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit the projection and circle and print them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			steerer, err := a.fitSteerer(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			model := steerer.Model()
			c := steerer.Circle()
			fmt.Fprintf(out, "method:        %s\n", model.Method())
			fmt.Fprintf(out, "exact inverse: %t\n", model.ExactInverse())
			if pca, ok := model.(*projection.PCAModel); ok {
				ratio := pca.ExplainedVarianceRatio()
				fmt.Fprintf(out, "explained:     %.4f, %.4f\n", ratio[0], ratio[1])
			}
			fmt.Fprintf(out, "circle:        %s\n", c)

			centers, labels, err := circle.ClusterCenters(model.Embedding(), steerer.Dataset().Labels())
			if err != nil {
				return err
			}
			table := tablewriter.NewWriter(out)
			table.SetHeader([]string{"Label", "Center", "Angle", "Distance"})
			for i, center := range centers {
				table.Append([]string{
					strconv.Itoa(labels[i]),
					formatPoint(center),
					fmt.Sprintf("%.4f", c.AngleOf(center)),
					fmt.Sprintf("%.4f", center.Sub(c.Center).Norm()),
				})
			}
			table.Render()
			return nil
		},
	}
	addDataFlags(cmd)
	return cmd
}

func (a *app) viewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Interactively steer points in the terminal",
		Long: `view opens a terminal plot of the projection, the fitted circle and the
steering path of the selected point.

Only PCA has an exact inverse. Kernel PCA and UMAP steer through an
approximate inverse, so the realized angle can differ from the requested one;
with UMAP a step may even move the wrong way or not reverse.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			steerer, err := a.fitSteerer(cmd)
			if err != nil {
				return err
			}

			model := tui.NewModel(steerer, a.cfg.Params(), a.cfg.Steering.Steps, version)
			program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err = program.Run()
			return err
		},
	}
	addDataFlags(cmd)
	addSteeringFlags(cmd)
	return cmd
}

func formatPoint(p projection.Point2D) string {
	return fmt.Sprintf("(%.3f, %.3f)", p.X, p.Y)
}
