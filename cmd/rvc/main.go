// Command rvc encodes a sequence of still images into an NRVC video
// container, and decodes an NRVC container back into a sequence of PNGs.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	_ "image/jpeg"

	_ "golang.org/x/image/tiff"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/dlecorfec/rvc"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "encode":
		runEncode(os.Args[2:])
	case "decode":
		runDecode(os.Args[2:])
	default:
		runEncode(os.Args[1:]) // bare invocation defaults to encode, matching spec §6
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: rvc encode [flags] <input images...>")
	fmt.Fprintln(os.Stderr, "       rvc decode [flags] <input.nrvc>")
}

func newLogger(logFile string) *zap.SugaredLogger {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewConsoleEncoder(cfg)

	var sink zapcore.WriteSyncer
	if logFile != "" {
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		})
	} else {
		sink = zapcore.AddSync(os.Stderr)
	}
	core := zapcore.NewCore(encoder, sink, zapcore.InfoLevel)
	return zap.New(core).Sugar()
}

func runEncode(args []string) {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	output := fs.String("output", "", "output container path (required)")
	fps := fs.Float64("fps", 0, "frame rate (required)")
	quality := fs.Float64("quality", 0.95, "quantization quality in [0,1]")
	noMotion := fs.Bool("nomotion", false, "disable inter prediction; code every frame as I")
	rateAccurate := fs.Bool("rate-accurate", false, "use the encoded-size motion search instead of the SAD-threshold one")
	logFile := fs.String("log-file", "", "rotate operational logs to this file instead of stderr")
	fs.Parse(args)

	log := newLogger(*logFile)
	defer log.Sync()

	paths := fs.Args()
	if *output == "" || *fps <= 0 || len(paths) == 0 {
		usage()
		os.Exit(2)
	}

	images := make([]image.Image, 0, len(paths))
	for _, p := range paths {
		img, err := loadImage(p)
		if err != nil {
			log.Fatalw("cannot load input frame", "path", p, "error", err)
		}
		images = append(images, img)
	}
	log.Infow("loaded input frames", "count", len(images))

	out, err := os.Create(*output)
	if err != nil {
		log.Fatalw("cannot create output container", "path", *output, "error", err)
	}
	defer out.Close()

	opt := rvc.Options{
		Quality:      *quality,
		FPS:          float32(*fps),
		NoMotion:     *noMotion,
		RateAccurate: *rateAccurate,
	}
	if err := rvc.Encode(out, images, opt); err != nil {
		log.Fatalw("encode failed", "error", err)
	}
	log.Infow("encode complete", "output", *output, "frames", len(images))
}

func runDecode(args []string) {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	outDir := fs.String("o", "", "directory to write decoded PNG frames into (required)")
	logFile := fs.String("log-file", "", "rotate operational logs to this file instead of stderr")
	fs.Parse(args)

	log := newLogger(*logFile)
	defer log.Sync()

	paths := fs.Args()
	if *outDir == "" || len(paths) != 1 {
		usage()
		os.Exit(2)
	}

	in, err := os.Open(paths[0])
	if err != nil {
		log.Fatalw("cannot open input container", "path", paths[0], "error", err)
	}
	defer in.Close()

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalw("cannot create output directory", "path", *outDir, "error", err)
	}

	err = rvc.Decode(in, func(index int, img image.Image) error {
		return savePNG(filepath.Join(*outDir, fmt.Sprintf("%04d.png", index)), img)
	})
	if err != nil {
		log.Fatalw("decode failed", "error", err)
	}
	log.Infow("decode complete", "output", *outDir)
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
