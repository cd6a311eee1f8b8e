package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
)

type Config struct {
	HTTPAddr          string
	TemporalHostPort  string
	TemporalNamespace string
	DepartmentsFile   string
	SeedDemo          bool
}

// Load parses flags from args; SHOP_* environment variables override the flag
// defaults but not flags given explicitly.
func Load(args []string) (Config, error) {
	var cfg Config
	fs := flag.NewFlagSet("shopfloor", flag.ContinueOnError)
	fs.StringVar(&cfg.HTTPAddr, "http", envOr("SHOP_HTTP_ADDR", ":8090"), "http listen addr")
	BindTemporal(fs, &cfg)
	fs.StringVar(&cfg.DepartmentsFile, "departments", envOr("SHOP_DEPARTMENTS_FILE", ""), "json file mapping process name to department")
	fs.BoolVar(&cfg.SeedDemo, "seed", true, "load demo jobs and operators")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// BindTemporal registers the Temporal connection flags on fs, so that other
// binaries reach the same cluster and namespace as the api.
func BindTemporal(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.TemporalHostPort, "temporal", envOr("SHOP_TEMPORAL_HOSTPORT", "localhost:7233"), "temporal frontend host:port")
	fs.StringVar(&cfg.TemporalNamespace, "namespace", envOr("SHOP_TEMPORAL_NAMESPACE", "default"), "temporal namespace")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Departments maps a process name to the department performing it. Lookups
// are case-insensitive.
type Departments map[string]string

// DefaultDepartments is used when no mapping file is configured.
var DefaultDepartments = Departments{
	"cutting":    "fabrication",
	"bending":    "fabrication",
	"welding":    "fabrication",
	"milling":    "machining",
	"turning":    "machining",
	"drilling":   "machining",
	"grinding":   "machining",
	"painting":   "finishing",
	"assembly":   "assembly",
	"inspection": "quality",
}

func (d Departments) Department(processName string) (string, bool) {
	dept, ok := d[strings.ToLower(strings.TrimSpace(processName))]
	return dept, ok && dept != ""
}

// LoadDepartments reads a process→department mapping. An empty path or a
// missing file yields DefaultDepartments.
func LoadDepartments(path string) (Departments, error) {
	if path == "" {
		return DefaultDepartments, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultDepartments, nil
		}
		return nil, err
	}
	defer f.Close()

	raw := map[string]string{}
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode departments: %w", err)
	}
	out := make(Departments, len(raw))
	for process, dept := range raw {
		out[strings.ToLower(strings.TrimSpace(process))] = dept
	}
	return out, nil
}
