package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/littlelife/lifectl/internal/appenv"
	"github.com/littlelife/lifectl/internal/doctor"
	"github.com/littlelife/lifectl/internal/envfile"
	"github.com/littlelife/lifectl/internal/launch"
	"github.com/littlelife/lifectl/internal/provision"
)

func parseCommand(name string, args []string, out io.Writer, extra func(*flag.FlagSet)) (toolConfig, error) {
	flagSet := flag.NewFlagSet(name, flag.ContinueOnError)
	flagSet.SetOutput(out)
	configPath := flagSet.String("config", "", "path to lifectl.toml")
	if extra != nil {
		extra(flagSet)
	}
	if err := flagSet.Parse(args); err != nil {
		return toolConfig{}, err
	}
	return loadToolConfig(*configPath)
}

func runProvision(args []string, out io.Writer) error {
	var keep bool
	cfg, err := parseCommand("provision", args, out, func(flags *flag.FlagSet) {
		flags.BoolVar(&keep, "keep", false, "install into the existing environment instead of recreating it")
	})
	if err != nil {
		return err
	}

	p := provision.New(provision.Config{
		Interpreter:  cfg.Interpreter,
		ManifestPath: cfg.resolve(cfg.Manifest),
		EnvDir:       cfg.resolve(cfg.EnvDir),
		KeepExisting: keep,
	}, cfg.runner())
	return p.Run()
}

func runLaunch(args []string, out io.Writer) error {
	cfg, err := parseCommand("launch", args, out, nil)
	if err != nil {
		return err
	}

	l := launch.New(launch.Config{
		ProjectRoot: cfg.ProjectRoot,
		EnvDir:      cfg.EnvDir,
		EnvFile:     cfg.EnvFile,
		EntryModule: cfg.EntryModule,
		SearchRoots: cfg.SearchRoots,
	})
	return l.Run()
}

func runDoctor(args []string, out io.Writer) error {
	cfg, err := parseCommand("doctor", args, out, nil)
	if err != nil {
		return err
	}

	d := doctor.New(doctor.Config{
		Interpreter:  cfg.Interpreter,
		ProjectRoot:  cfg.ProjectRoot,
		EnvDir:       cfg.EnvDir,
		ManifestPath: cfg.Manifest,
		EnvFile:      cfg.EnvFile,
	})

	results := d.Run()
	for _, r := range results {
		fmt.Fprintf(out, "%-4s  %-14s %s\n", r.Status, r.Name, r.Detail)
	}
	if doctor.Failed(results) {
		return errors.New("doctor found problems")
	}
	return nil
}

func runConfig(args []string, out io.Writer) error {
	cfg, err := parseCommand("config", args, out, nil)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "project_root  %s\n", cfg.ProjectRoot)
	fmt.Fprintf(out, "env_dir       %s\n", cfg.EnvDir)
	fmt.Fprintf(out, "manifest      %s\n", cfg.Manifest)
	fmt.Fprintf(out, "env_file      %s\n", cfg.EnvFile)
	fmt.Fprintf(out, "interpreter   %s\n", cfg.Interpreter)
	fmt.Fprintf(out, "entry_module  %s\n", cfg.EntryModule)
	fmt.Fprintf(out, "search_roots  %s\n", strings.Join(cfg.SearchRoots, ", "))
	if cfg.Remote.Enabled {
		fmt.Fprintf(out, "remote        %s@%s\n", cfg.Remote.User, cfg.Remote.Host)
	}

	record, err := decodeAppRecord(cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\napplication record:\n")
	fmt.Fprintf(out, "  camera_enabled  %t\n", record.CameraEnabled)
	if record.CameraDevice != "" {
		fmt.Fprintf(out, "  camera_device   %s\n", record.CameraDevice)
	} else {
		fmt.Fprintf(out, "  camera_index    %d\n", record.CameraIndex)
	}
	fmt.Fprintf(out, "  camera_size     %dx%d\n", record.CameraWidth, record.CameraHeight)
	fmt.Fprintf(out, "  camera_backend  %s\n", record.CameraBackend)
	fmt.Fprintf(out, "  openai_model    %s\n", record.OpenAIModel)
	fmt.Fprintf(out, "  openai_api_key  %s\n", maskKey(record.OpenAIAPIKey))
	return nil
}

// decodeAppRecord resolves the application record the way the launcher
// would: env file overlaid on the inherited environment.
func decodeAppRecord(cfg toolConfig) (appenv.Config, error) {
	environ := os.Environ()
	rec, err := envfile.Load(cfg.resolve(cfg.EnvFile))
	if err == nil {
		environ = rec.Overlay(environ)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return appenv.Config{}, err
	}
	return appenv.Decode(appenv.EnvironLookup(environ))
}

func maskKey(key string) string {
	if key == "" {
		return "(unset)"
	}
	if len(key) <= 8 {
		return "********"
	}
	return key[:4] + "..." + key[len(key)-2:]
}
