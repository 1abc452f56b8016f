// refclone-batch runs one clone pass against a scene file without the TUI.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/refclone/internal/clone"
	"github.com/kingrea/refclone/internal/config"
	"github.com/kingrea/refclone/internal/logbook"
	"github.com/kingrea/refclone/internal/logging"
	"github.com/kingrea/refclone/internal/scene"
)

func main() {
	projectDir := flag.String("project", "", "path to the project directory (defaults to cwd)")
	scenePath := flag.String("scene", "", "scene file to edit (overrides config.yaml)")
	requestFile := flag.String("request", "", "YAML file describing the clone request")
	useSelection := flag.Bool("selection", false, "clone the scene's current selection")
	copies := flag.Int("copies", 0, "copies per source (defaults to config)")
	offset := vecFlag{}
	flag.Var(&offset, "offset", "offset between copies as x,y,z (defaults to config)")
	namespace := flag.String("namespace", "", "custom namespace instead of the source's base namespace")
	group := flag.String("group", "", "group the new items under this name")
	groupSize := flag.Int("group-size", 0, "items per group (defaults to the number of sources)")
	sortKey := flag.String("sort-key", "", "order before grouping: reversed-namespace, lexical, creation")
	dryRun := flag.Bool("dry-run", false, "print the planned positions without changing the scene")
	logLevel := flag.String("log-level", "warn", "trace log level written to stderr")
	var sources stringList
	flag.Var(&sources, "source", "reference node to clone (repeatable)")
	flag.Parse()

	project := *projectDir
	if project == "" {
		var err error
		project, err = os.Getwd()
		if err != nil {
			die("determine working directory: %v", err)
		}
	}
	absoluteProject, err := filepath.Abs(project)
	if err != nil {
		die("resolve project dir: %v", err)
	}
	if err := config.InitDir(absoluteProject); err != nil {
		die("init %s: %v", config.Dir, err)
	}
	cfg, err := config.NewConfig(absoluteProject)
	if err != nil {
		die("load config: %v", err)
	}
	if *scenePath != "" {
		cfg.SetScenePath(*scenePath)
	}
	sc, err := scene.Load(cfg.ScenePath())
	if err != nil {
		die("open scene: %v", err)
	}

	input := requestInput{}
	if path := strings.TrimSpace(*requestFile); path != "" {
		input, err = readRequestFile(path)
		if err != nil {
			die("load request: %v", err)
		}
	}
	input.Sources = append(input.Sources, sources...)
	if *useSelection {
		input.Sources = append(input.Sources, sc.Selection()...)
	}
	if *copies != 0 {
		input.Copies = *copies
	}
	if offset.set {
		input.Offset = &offset.v
	}
	if *namespace != "" {
		input.Namespace = *namespace
	}
	if *group != "" {
		input.Group = *group
	}
	if *groupSize != 0 {
		input.GroupSize = *groupSize
	}
	if *sortKey != "" {
		input.SortKey = *sortKey
	}

	req, err := input.request(cfg.CloneDefaults())
	if err != nil {
		die("build request: %v", err)
	}

	if *dryRun {
		if err := printPlan(sc, req); err != nil {
			die("plan: %v", err)
		}
		return
	}

	logger := logging.NewWriter(os.Stderr, logging.ParseLevel(*logLevel))
	lb, err := logbook.New(cfg.JournalPath())
	if err != nil {
		die("open journal: %v", err)
	}
	orch := clone.New(sc, clone.WithLogger(logger))
	result, cloneErr := orch.Clone(req)
	if cloneErr != nil {
		partial := clone.PartialInstances(cloneErr)
		lb.Error("Batch clone failed: %v", cloneErr)
		if len(partial) > 0 {
			if err := sc.Save(); err != nil {
				die("save scene: %v", err)
			}
			fmt.Fprintf(os.Stderr, "%d instance(s) were created before the failure:\n", len(partial))
			printInstances(os.Stderr, partial)
		}
		die("clone: %v", cloneErr)
	}
	if err := sc.Save(); err != nil {
		die("save scene: %v", err)
	}
	lb.Info("Batch clone %s · %d source(s) × %d → %d instance(s)",
		result.OperationID, len(req.Sources), req.CopiesPerSource, len(result.Instances))
	printInstances(os.Stdout, result.Instances)
	if result.Grouped {
		fmt.Printf("Grouped into %d chunk(s) under %s\n", len(result.Chunks), req.Grouping.Name)
	}
	fmt.Printf("%d items cloned successfully!\n", len(req.Sources))
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// requestInput is the YAML form of a clone request. Unset fields fall back to
// the project defaults.
type requestInput struct {
	Sources   []string    `yaml:"sources"`
	Copies    int         `yaml:"copies"`
	Offset    *clone.Vec3 `yaml:"offset,flow"`
	Namespace string      `yaml:"namespace"`
	Group     string      `yaml:"group"`
	GroupSize int         `yaml:"group_size"`
	SortKey   string      `yaml:"sort_key"`
}

func (s requestInput) request(d config.CloneDefaults) (clone.CloneRequest, error) {
	if len(s.Sources) == 0 {
		return clone.CloneRequest{}, clone.ErrEmptySelection
	}
	req := clone.CloneRequest{
		CopiesPerSource: d.Copies,
		Offset:          d.Offset,
		Namespace:       d.NamespaceMode(),
		Grouping:        d.GroupingMode(),
		Suffix:          d.Suffix,
		GroupSize:       s.GroupSize,
	}
	for _, src := range s.Sources {
		src = strings.TrimSpace(src)
		if src == "" {
			continue
		}
		req.Sources = append(req.Sources, clone.SourceReference{Identifier: src})
	}
	if len(req.Sources) == 0 {
		return clone.CloneRequest{}, clone.ErrEmptySelection
	}
	if s.Copies != 0 {
		req.CopiesPerSource = s.Copies
	}
	if s.Offset != nil {
		req.Offset = *s.Offset
	}
	if ns := strings.TrimSpace(s.Namespace); ns != "" {
		req.Namespace = clone.CustomNamespace(ns)
	}
	if g := strings.TrimSpace(s.Group); g != "" {
		req.Grouping = clone.Grouped(g)
	}
	keyName := d.SortKey
	if s.SortKey != "" {
		keyName = s.SortKey
	}
	key, err := clone.SortKeyByName(keyName)
	if err != nil {
		return clone.CloneRequest{}, err
	}
	req.SortKey = key
	return req, clone.Validate(req)
}

func readRequestFile(path string) (requestInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return requestInput{}, fmt.Errorf("read request file %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return requestInput{}, fmt.Errorf("request file %s is empty", path)
	}
	var input requestInput
	if err := yaml.Unmarshal(data, &input); err != nil {
		return requestInput{}, fmt.Errorf("parse request file %s: %w", path, err)
	}
	return input, nil
}

// printPlan shows where each copy would land without touching the scene.
func printPlan(sc *scene.Scene, req clone.CloneRequest) error {
	suffix := req.Suffix
	if suffix == "" {
		suffix = clone.DefaultSuffix
	}
	for _, src := range req.Sources {
		anchor, err := sc.AnchorPosition(src.Identifier)
		if err != nil {
			return err
		}
		ns := clone.DeriveNamespace(src, req.Namespace, suffix)
		for k, pos := range clone.Layout(anchor, req.Offset, req.CopiesPerSource) {
			fmt.Printf("%s\t#%d\t%s\t%s\n", src.Identifier, k, ns, pos)
		}
	}
	return nil
}

func printInstances(w *os.File, instances []clone.ClonedInstance) {
	for _, inst := range instances {
		fmt.Fprintf(w, "%s\t#%d\t%s\t%s\n", inst.SourceIdentifier, inst.CopyIndex, inst.NewIdentifier, inst.Position)
	}
}

type stringList []string

func (l *stringList) String() string {
	if l == nil {
		return ""
	}
	return strings.Join(*l, ",")
}

func (l *stringList) Set(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("source is empty")
	}
	*l = append(*l, value)
	return nil
}

// vecFlag parses "x,y,z".
type vecFlag struct {
	v   clone.Vec3
	set bool
}

func (f *vecFlag) String() string {
	if f == nil || !f.set {
		return ""
	}
	return f.v.String()
}

func (f *vecFlag) Set(value string) error {
	parts := strings.Split(value, ",")
	if len(parts) != 3 {
		return fmt.Errorf("expected x,y,z, got %q", value)
	}
	var xyz [3]float64
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return fmt.Errorf("offset component %q is not a number", part)
		}
		xyz[i] = v
	}
	f.v = clone.V3(xyz[0], xyz[1], xyz[2])
	f.set = true
	return nil
}
