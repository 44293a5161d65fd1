package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/abworrall/eclipse-postfx/pkg/blit"
	"github.com/abworrall/eclipse-postfx/pkg/fxbuf"
	"github.com/abworrall/eclipse-postfx/pkg/pipeline"
)

var (
	fVerbosity int
	fOutput    string
	fConfig    string
	fPasses    string
	fReference string
	fDumpDir   string
)

func init() {
	flag.IntVar(&fVerbosity, "v", 0, "how verbose to get (1: frame summaries, 2: every command)")
	flag.StringVar(&fOutput, "o", "postfx", "prefix for output files; frame N goes to <prefix>-NN.png and .hdr")
	flag.StringVar(&fConfig, "config", "", "yaml file with pass settings")
	flag.StringVar(&fPasses, "passes", "", "comma separated passes to run, overriding the config: "+fmt.Sprintf("%v", pipeline.PassNames))
	flag.StringVar(&fReference, "reference", "", "also tonemap each input with a reference operator, or 'all': "+pipeline.ListReferences())
	flag.StringVar(&fDumpDir, "dump", "", "write every intermediate blit to this dir, as PNGs")
	flag.Parse()

	log.Printf("postfx starting\n")
}

func main() {
	cfg := pipeline.NewConfig()
	if fConfig != "" {
		c, err := pipeline.LoadConfig(fConfig)
		if err != nil {
			log.Fatal(err)
		}
		cfg = c
	}

	if fVerbosity > 0 {
		cfg.Verbosity = fVerbosity
	}
	if fPasses != "" {
		cfg.Passes = strings.Split(fPasses, ",")
	}
	if fDumpDir != "" {
		cfg.DumpDir = fDumpDir
	}
	if err := cfg.Finalize(); err != nil {
		log.Fatal(err)
	}

	if cfg.Verbosity > 0 {
		level := slog.LevelInfo
		if cfg.Verbosity > 1 {
			level = slog.LevelDebug
		}
		blit.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		log.Printf("Final configuration:-\n\n%s\n", cfg.AsYaml())
	}

	if cfg.DumpDir != "" {
		if err := os.MkdirAll(cfg.DumpDir, 0755); err != nil {
			log.Fatal(err)
		}
	}

	files, err := fxbuf.CollectFiles(flag.Args()...)
	if err != nil {
		log.Fatal(err)
	}
	if len(files) == 0 {
		log.Fatal("no input files (wanted .hdr, .tif or .png)")
	}

	r, err := pipeline.NewRenderer(cfg)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	for i, filename := range files {
		buf, err := fxbuf.LoadFile(filename)
		if err != nil {
			log.Fatal(err)
		}
		prefix := fmt.Sprintf("%s-%02d", fOutput, i)
		log.Printf("frame %d: %s (%dx%d)", i, filename, buf.Dx(), buf.Dy())

		refs := map[string]image.Image{}
		if fReference != "" {
			if refs, err = pipeline.ApplyReference(fReference, buf.Copy()); err != nil {
				log.Fatal(err)
			}
		}

		if err := r.RenderFrame(ctx, buf); err != nil {
			log.Fatal(err)
		}

		for name, img := range refs {
			if err := fxbuf.WritePNG(img, fmt.Sprintf("%s-%s.png", prefix, name)); err != nil {
				log.Fatal(err)
			}

			// Reference operators write sRGB
			diff, err := fxbuf.NewDiff(buf, fxbuf.FromImage(img, true), 0.001, 1)
			if err != nil {
				log.Fatal(err)
			}
			log.Printf("frame %d: filmic vs %s: %s", i, name, diff)
			if cfg.Verbosity > 0 {
				if err := diff.ToImg(name, fmt.Sprintf("%s-diff-%s.png", prefix, name)); err != nil {
					log.Fatal(err)
				}
			}
		}

		if err := fxbuf.WritePNG(buf.ToLDR(), prefix+".png"); err != nil {
			log.Fatal(err)
		}
		if err := fxbuf.WriteHDR(buf, prefix+".hdr"); err != nil {
			log.Fatal(err)
		}
	}

	log.Printf("postfx done, %d frames, %+v\n", len(files), r.Device().Stats())
}
