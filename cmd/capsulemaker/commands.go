package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/capsulemaker/internal/assets"
	"github.com/Faultbox/capsulemaker/internal/config"
	"github.com/Faultbox/capsulemaker/internal/logger"
	"github.com/Faultbox/capsulemaker/internal/scene"
	"github.com/Faultbox/capsulemaker/internal/uvmap"
	"github.com/Faultbox/capsulemaker/pkg/capsule"
	"github.com/Faultbox/capsulemaker/pkg/mesh"
)

// setup parses the shared flags, loads the config and starts the logger.
// Extra command flags must be registered on fs before calling it.
func setup(fs *flag.FlagSet, args []string) (*config.Config, error) {
	flags := config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := config.Load(flags)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	logger.Sugar.Debugf("config: %+v", cfg)
	return cfg, nil
}

func outputOptions(cfg *config.Config) assets.Options {
	return assets.Options{
		Flat:           cfg.Flat(),
		ReverseWinding: cfg.Output.ReverseWinding,
		Tangents:       cfg.Output.Tangents,
	}
}

// result describes one produced capsule.
type result struct {
	Name     string
	Mesh     string
	UVMap    string
	Prepared *assets.Prepared
	Object   *scene.Object
}

// produce generates the capsule p as name and writes everything cfg asks for.
func produce(mgr *assets.Manager, cfg *config.Config, p capsule.Params, name string) (*result, error) {
	start := time.Now()

	prepared, err := mgr.Mesh(p, outputOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	res := &result{Name: name, Prepared: prepared}
	res.Mesh, err = assets.Save(prepared, cfg.Output.Dir, name, cfg.Output.Format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	if cfg.Output.UVMap != "" {
		res.UVMap = filepath.Join(cfg.Output.Dir, name+"_uv."+cfg.Output.UVMap)
		if err := writeUVMap(prepared.Buffers, p, cfg.Output.UVMapSize, res.UVMap, cfg.Output.UVMap); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}

	if cfg.Instance.Create {
		policy := scene.Policy{IndexThreshold: cfg.Instance.ColliderIndexThreshold}
		res.Object, err = scene.Instantiate(name, prepared.Buffers, p, policy)
		if err != nil {
			return nil, err
		}
	}

	logger.Info("mesh written",
		zap.String("name", name),
		zap.String("path", res.Mesh),
		zap.Int("vertices", prepared.Buffers.VertexCount()),
		zap.Int("triangles", prepared.Buffers.TriangleCount()),
		logger.Elapsed(start))
	return res, nil
}

func writeUVMap(buf *mesh.Buffers, p capsule.Params, size int, path, format string) error {
	p = p.Normalize()
	img, err := uvmap.Render(buf, p.Profile.Ratio(p), uvmap.DefaultOptions(size))
	if err != nil {
		return err
	}
	return uvmap.Save(path, img, format)
}

func cmdGenerate(args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}
	defer logger.Sync()

	mgr := assets.NewManager()
	defer mgr.Close()

	res, err := produce(mgr, cfg, cfg.Capsule, cfg.Output.Name)
	if err != nil {
		return err
	}

	fmt.Println(res.Mesh)
	if res.UVMap != "" {
		fmt.Println(res.UVMap)
	}
	if res.Object != nil {
		c := res.Object.Collider
		fmt.Printf("Object:   %s (material %s)\n", res.Object.Name, res.Object.Material)
		switch c.Kind {
		case scene.ColliderConvexMesh:
			fmt.Printf("Collider: %s, %d points\n", c.Kind, len(c.Points))
		case scene.ColliderCapsule:
			fmt.Printf("Collider: %s, radius %g, height %g\n", c.Kind, c.Radius, c.Height)
		}
	}
	return nil
}

func cmdFlatten(args []string) error {
	return cmdShade("flatten", assets.Options{Flat: true}, args)
}

func cmdSmooth(args []string) error {
	return cmdShade("smooth", assets.Options{Smooth: true}, args)
}

// cmdShade runs flatten or smooth: both read a mesh, change its shading and
// write it back out.
func cmdShade(name string, opts assets.Options, args []string) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	debug := fs.Bool("debug", false, "Enable debug logging")
	reverse := fs.Bool("reverse", false, "Reverse triangle winding")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("usage: capsulemaker %s <in.cmsh> <out.cmsh|out.obj>", name)
	}
	if *debug {
		if err := logger.Init("debug", ""); err != nil {
			return err
		}
	}

	opts.ReverseWinding = *reverse
	path, err := reshade(fs.Arg(0), fs.Arg(1), opts)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

// reshade applies opts to the mesh at in and writes it to out, choosing the
// format from out's extension. Tangents are recomputed when in has them.
func reshade(in, out string, opts assets.Options) (string, error) {
	src, err := assets.Load(in)
	if err != nil {
		return "", err
	}

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(out)), ".")
	if format != assets.FormatCMSH && format != assets.FormatOBJ {
		return "", fmt.Errorf("unsupported output extension %q", filepath.Ext(out))
	}
	name := strings.TrimSuffix(filepath.Base(out), filepath.Ext(out))

	opts.Tangents = src.HasTangents() && src.HasUVs()
	prepared, err := assets.Prepare(src.Buffers, opts)
	if err != nil {
		return "", fmt.Errorf("reshading %s: %w", in, err)
	}

	logger.Debug("reshaded",
		zap.String("in", in),
		zap.Bool("flat", opts.Flat),
		zap.Bool("smooth", opts.Smooth),
		zap.Int("vertices_before", src.Buffers.VertexCount()),
		zap.Int("vertices_after", prepared.Buffers.VertexCount()))
	return assets.Save(prepared, filepath.Dir(out), name, format)
}

func cmdInfo(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: capsulemaker info <file.cmsh>")
	}
	report, err := info(args[0])
	if err != nil {
		return err
	}
	fmt.Print(report)
	return nil
}

// info describes the CMSH file at path.
func info(path string) (string, error) {
	m, err := assets.Load(path)
	if err != nil {
		return "", err
	}

	buf := m.Buffers
	topo, err := mesh.Analyze(buf, 1e-4)
	if err != nil {
		return "", err
	}
	bounds := mesh.ComputeBounds(buf)
	size := bounds.Size()

	var sb strings.Builder
	fmt.Fprintf(&sb, "File:      %s\n", path)
	fmt.Fprintf(&sb, "Version:   %s\n", m.Version)
	fmt.Fprintf(&sb, "Vertices:  %d\n", buf.VertexCount())
	fmt.Fprintf(&sb, "Triangles: %d\n", buf.TriangleCount())
	fmt.Fprintf(&sb, "UVs:       %t\n", m.HasUVs())
	fmt.Fprintf(&sb, "Tangents:  %t\n", m.HasTangents())
	fmt.Fprintf(&sb, "Size:      %.4g x %.4g x %.4g\n", size.X, size.Y, size.Z)
	fmt.Fprintf(&sb, "Welded:    %d vertices, %d edges\n", topo.Vertices, topo.Edges)
	fmt.Fprintf(&sb, "Closed:    %t\n", topo.Closed())
	fmt.Fprintf(&sb, "Oriented:  %t\n", topo.Oriented())
	fmt.Fprintf(&sb, "Euler:     %d\n", topo.EulerCharacteristic())
	return sb.String(), nil
}

func cmdUVMap(args []string) error {
	fs := flag.NewFlagSet("uvmap", flag.ContinueOnError)
	size := fs.Int("size", 0, "Image size in pixels (default output.uv_map_size)")
	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: capsulemaker uvmap [flags] <out.png|out.webp|out.tga>")
	}
	out := fs.Arg(0)
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(out)), ".")

	if *size <= 0 {
		*size = cfg.Output.UVMapSize
	}

	mgr := assets.NewManager()
	defer mgr.Close()

	prepared, err := mgr.Mesh(cfg.Capsule, assets.Options{})
	if err != nil {
		return err
	}
	if err := writeUVMap(prepared.Buffers, cfg.Capsule, *size, out, format); err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func cmdBatch(args []string) error {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	workers := fs.Int("workers", 0, "Parallel workers (default GOMAXPROCS)")
	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: capsulemaker batch [flags] <presets.yaml>")
	}

	presets, err := config.LoadPresets(fs.Arg(0), cfg.Capsule)
	if err != nil {
		return err
	}

	_, results, errs := batch(cfg, presets, *workers)
	for i, res := range results {
		if errs[i] != nil {
			fmt.Fprintf(os.Stderr, "  %-16s FAILED: %v\n", presets[i].Name, errs[i])
			continue
		}
		fmt.Printf("  %-16s %6d verts %6d tris  %s\n", res.Name,
			res.Prepared.Buffers.VertexCount(), res.Prepared.Buffers.TriangleCount(), res.Mesh)
	}

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d presets failed", failed, len(presets))
	}
	return nil
}
