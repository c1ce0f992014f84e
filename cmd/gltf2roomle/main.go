// gltf2roomle converts glTF scenes into Roomle component packages.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	roomle "github.com/flywave/go-roomle"
)

type convertFlags struct {
	out         string
	config      string
	catalogID   string
	componentID string
	meshExport  string
	debug       bool
	noMaterials bool
	selected    []string
	logLevel    string
	logFile     string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "gltf2roomle",
		Short:         "Convert glTF scenes into Roomle scripts and material tables",
		Version:       roomle.VERSION,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newConvertCommand())
	return root
}

func newConvertCommand() *cobra.Command {
	f := &convertFlags{}
	cmd := &cobra.Command{
		Use:   "convert <input.gltf|input.glb>",
		Short: "Export a glTF file as a Roomle component",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, f, args[0])
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.out, "out", "o", "", "output directory")
	fl.StringVarP(&f.config, "config", "c", "", "YAML options file")
	fl.StringVar(&f.catalogID, "catalog-id", "", "catalog id")
	fl.StringVar(&f.componentID, "component-id", "", "component id, defaults to the input name")
	fl.StringVar(&f.meshExport, "mesh-export", "", "AUTO, EXTERNAL or INTERNAL")
	fl.BoolVar(&f.debug, "debug", false, "human readable script layout")
	fl.BoolVar(&f.noMaterials, "no-materials", false, "skip material export")
	fl.StringSliceVar(&f.selected, "select", nil, "export only the named nodes")
	fl.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	fl.StringVar(&f.logFile, "log-file", "", "rotating log file")
	cmd.MarkFlagRequired("out")
	return cmd
}

func runConvert(cmd *cobra.Command, f *convertFlags, input string) error {
	opts, err := roomle.LoadOptions(f.config)
	if err != nil {
		return err
	}
	applyFlags(cmd, f, opts)
	if opts.ComponentID == "" {
		opts.ComponentID = roomle.ComponentIDFromPath(input)
	}

	log := roomle.NewLogger(opts.Log)
	defer log.Sync()

	scene, err := roomle.ImportGLTF(input, log)
	if err != nil {
		return err
	}
	if len(f.selected) > 0 {
		if n := scene.Select(f.selected...); n == 0 {
			log.Warn("no node matches the selection", zap.Strings("select", f.selected))
		}
		opts.UseSelection = true
	}

	sess := roomle.NewExportSession(opts, roomle.WithLogger(log))
	res, err := sess.Export(scene, f.out)
	if err != nil {
		return err
	}
	if err := res.WriteFiles(f.out); err != nil {
		return err
	}
	for _, sk := range res.Skipped {
		log.Warn("skipped", zap.String("object", sk.Name), zap.Error(sk.Err))
	}
	log.Info("written", zap.String("file", filepath.Join(f.out, opts.ComponentID+".txt")))
	return nil
}

// applyFlags overrides the loaded options with every flag set explicitly.
func applyFlags(cmd *cobra.Command, f *convertFlags, opts *roomle.Options) {
	fl := cmd.Flags()
	if fl.Changed("catalog-id") {
		opts.CatalogID = f.catalogID
	}
	if fl.Changed("component-id") {
		opts.ComponentID = f.componentID
	}
	if fl.Changed("mesh-export") {
		opts.MeshExport = roomle.MeshExportMode(f.meshExport)
	}
	if fl.Changed("debug") {
		opts.Debug = f.debug
	}
	if fl.Changed("no-materials") {
		opts.ExportMaterials = !f.noMaterials
	}
	if fl.Changed("log-level") {
		opts.Log.Level = f.logLevel
	}
	if fl.Changed("log-file") {
		opts.Log.File = f.logFile
	}
}
