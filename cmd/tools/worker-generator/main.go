// cmd/tools/worker-generator/main.go
package main

import (
	"bytes"
	"flag"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"neighborhood-matcher/pkg/registry"
)

// WorkerData holds data for templates
type WorkerData struct {
	Name           string
	PackageName    string
	TaskType       string
	Description    string
	Path           string
	InputFields    string
	OutputFields   string
	TimeoutLiteral string
	NeedsJSON      bool
}

// field is one generated struct field.
type field struct {
	Name string
	Type string
	Tag  string
}

func schemaProperties(schema map[string]interface{}) map[string]interface{} {
	if props, ok := schema["properties"].(map[string]interface{}); ok {
		return props
	}
	return map[string]interface{}{}
}

func requiredSet(schema map[string]interface{}) map[string]bool {
	out := map[string]bool{}
	if req, ok := schema["required"].([]interface{}); ok {
		for _, r := range req {
			if s, ok := r.(string); ok {
				out[s] = true
			}
		}
	}
	return out
}

// goType maps JSON schema types to Go types
func goType(details map[string]interface{}) string {
	switch details["type"] {
	case "string":
		return "string"
	case "integer":
		return "int"
	case "number":
		return "float64"
	case "boolean":
		return "bool"
	case "object":
		return "json.RawMessage"
	case "array":
		if items, ok := details["items"].(map[string]interface{}); ok && items["type"] == "string" {
			return "[]string"
		}
		return "[]json.RawMessage"
	default:
		return "json.RawMessage"
	}
}

// structFields renders fields sorted by JSON name so output is stable.
func structFields(schema map[string]interface{}) string {
	props := schemaProperties(schema)
	required := requiredSet(schema)

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]field, 0, len(names))
	for _, name := range names {
		details, _ := props[name].(map[string]interface{})
		tag := name
		if !required[name] {
			tag += ",omitempty"
		}
		fields = append(fields, field{Name: exportedName(name), Type: goType(details), Tag: tag})
	}

	var b strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&b, "\t%s %s `json:\"%s\"`\n", f.Name, f.Type, f.Tag)
	}
	return b.String()
}

// exportedName turns "neighborhoodIds" or "max_results" into "NeighborhoodIDs"
// or "MaxResults".
func exportedName(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == '-' })
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(strings.ToUpper(p[:1]) + p[1:])
	}
	out := b.String()
	for _, initialism := range []string{"Id", "Url"} {
		if strings.HasSuffix(out, initialism) {
			out = strings.TrimSuffix(out, initialism) + strings.ToUpper(initialism)
		} else if strings.HasSuffix(out, initialism+"s") {
			out = strings.TrimSuffix(out, initialism+"s") + strings.ToUpper(initialism) + "s"
		}
	}
	return out
}

func packageName(taskType string) string {
	return strings.NewReplacer("-", "", "_", "", ".", "").Replace(strings.ToLower(taskType))
}

func timeoutLiteral(a *registry.Activity) string {
	d := a.TimeoutDuration()
	if d <= 0 {
		return "30 * time.Second"
	}
	return fmt.Sprintf("%d * time.Millisecond", d.Milliseconds())
}

const configTemplate = `// {{ .Path }}/config.go
package {{ .PackageName }}

import (
	"time"

	"neighborhood-matcher/internal/common/config"
	"neighborhood-matcher/pkg/registry"
)

type Config struct {
	Timeout     time.Duration
	InputSchema map[string]interface{}
}

func LoadConfig(wcfg config.WorkerConfig, activity *registry.Activity) *Config {
	cfg := &Config{Timeout: {{ .TimeoutLiteral }}}
	if wcfg.Timeout > 0 {
		cfg.Timeout = config.GetDuration(wcfg.Timeout)
	}
	if activity != nil {
		cfg.InputSchema = activity.InputSchema
	}
	return cfg
}
`

const modelsTemplate = `// {{ .Path }}/models.go
package {{ .PackageName }}

{{ if .NeedsJSON }}import "encoding/json"

{{ end }}type Input struct {
{{ .InputFields }}}

type Output struct {
{{ .OutputFields }}}
`

const handlerTemplate = `// {{ .Path }}/handler.go
package {{ .PackageName }}

import (
	"context"
	"encoding/json"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"neighborhood-matcher/internal/common/errors"
	"neighborhood-matcher/internal/common/logger"
	"neighborhood-matcher/internal/common/metrics"
	"neighborhood-matcher/internal/common/validation"
)

const TaskType = "{{ .TaskType }}"

type Handler struct {
	config     *Config
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(cfg *Config, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{config: cfg, errHandler: errors.NewErrorHandler(log), logger: log}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.parseAndExecute(ctx, job)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
		h.errHandler.HandleJobError(ctx, client, job, err)
		return
	}

	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		h.errHandler.HandleJobError(ctx, client, job, errors.NewInternalError(err))
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{"jobKey": job.Key, "error": err})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) parseAndExecute(ctx context.Context, job entities.Job) (*Output, error) {
	vars, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInputSchemaInvalidError(err.Error())
	}
	result, err := validation.ValidateAgainst(h.config.InputSchema, vars)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if !result.Valid {
		return nil, errors.NewInputSchemaInvalidError(result.Summary())
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, errors.NewInputSchemaInvalidError(err.Error())
	}
	return h.Execute(ctx, &input)
}

// Execute {{ .Description }}
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return &Output{}, nil
}
`

const testTemplate = `// {{ .Path }}/handler_test.go
package {{ .PackageName }}

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"neighborhood-matcher/internal/common/config"
	"neighborhood-matcher/internal/common/logger"
)

func TestHandler_Execute(t *testing.T) {
	handler := NewHandler(LoadConfig(config.WorkerConfig{}, nil), logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{})
	require.NoError(t, err)
	require.NotNil(t, output)
}
`

var templates = map[string]*template.Template{
	"config.go":       template.Must(template.New("config").Parse(configTemplate)),
	"models.go":       template.Must(template.New("models").Parse(modelsTemplate)),
	"handler.go":      template.Must(template.New("handler").Parse(handlerTemplate)),
	"handler_test.go": template.Must(template.New("test").Parse(testTemplate)),
}

// render executes one template and gofmts the result.
func render(name string, data WorkerData) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates[name].Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format %s: %w", name, err)
	}
	return out, nil
}

func workerData(a *registry.Activity, dir string) WorkerData {
	in, out := structFields(a.InputSchema), structFields(a.OutputSchema)
	description := "runs the " + a.TaskType + " task"
	if a.Description != "" {
		description = strings.TrimSuffix(strings.ToLower(a.Description[:1])+a.Description[1:], ".")
	}
	return WorkerData{
		Name:           a.DisplayName,
		PackageName:    packageName(a.TaskType),
		TaskType:       a.TaskType,
		Description:    description + ".",
		Path:           filepath.ToSlash(dir),
		InputFields:    in,
		OutputFields:   out,
		TimeoutLiteral: timeoutLiteral(a),
		NeedsJSON:      strings.Contains(in+out, "json.RawMessage"),
	}
}

func main() {
	taskType := flag.String("task", "", "Task type from the registry (e.g., validate-catalog-consistency)")
	outputDir := flag.String("output", "internal/workers", "Root directory for generated workers")
	registryPath := flag.String("registry", "configs/activity-registry.json", "Path to the activity registry JSON file")
	force := flag.Bool("force", false, "Overwrite existing files")
	flag.Parse()

	if *taskType == "" {
		fmt.Fprintln(os.Stderr, "Error: -task is required")
		flag.Usage()
		os.Exit(1)
	}

	reg, err := registry.LoadRegistry(*registryPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading registry: %v\n", err)
		os.Exit(1)
	}
	activity := reg.Find(*taskType)
	if activity == nil {
		fmt.Fprintf(os.Stderr, "Error: task type %s not in registry\n", *taskType)
		os.Exit(1)
	}

	dir := filepath.Join(*outputDir, activity.Category, activity.TaskType)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", dir, err)
		os.Exit(1)
	}

	data := workerData(activity, dir)
	names := []string{"config.go", "models.go", "handler.go", "handler_test.go"}
	for _, name := range names {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil && !*force {
			fmt.Printf("skip   %s (exists)\n", path)
			continue
		}
		src, err := render(name, data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(path, src, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("create %s\n", path)
	}

	fmt.Printf("Worker %s scaffolded in %s. Register it in cmd/matcher-manager.\n", activity.TaskType, dir)
}
