package pipeline

import (
	"context"
	"os"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ajitpratap0/flatindex/pkg/config"
	"github.com/ajitpratap0/flatindex/pkg/errors"
	"github.com/ajitpratap0/flatindex/pkg/logger"
	"github.com/ajitpratap0/flatindex/pkg/profile"
)

// RunFiles selects the profile for inputPath from cfg and indexes the file
// into outputPath, which is created or truncated. The profile is selected
// before any file is touched, so configuration errors leave no output
// behind. Close errors are reported even when the run itself succeeded.
func RunFiles(ctx context.Context, cfg *config.Config, inputPath, outputPath string, opts Options) (summary Summary, err error) {
	p, err := profile.SelectForPath(cfg, inputPath)
	if err != nil {
		return Summary{Input: inputPath}, err
	}

	ctx = context.WithValue(ctx, logger.ProfileKey, p.Pattern)
	log := logger.FromContext(ctx, logger.OrNop(opts.Logger))
	log.Info("profile selected", zap.Int("profile", p.Index))

	ix, err := NewIndexer(p, opts)
	if err != nil {
		return Summary{Input: inputPath, Profile: p.Index}, err
	}

	in, err := os.Open(inputPath)
	if err != nil {
		return Summary{Input: inputPath, Profile: p.Index}, errors.Wrap(err, errors.ErrorTypeIO, "failed to open input").
			WithDetail("path", inputPath)
	}
	defer func() {
		if cerr := in.Close(); cerr != nil {
			err = multierr.Append(err, errors.Wrap(cerr, errors.ErrorTypeIO, "failed to close input").
				WithDetail("path", inputPath))
		}
	}()

	out, err := os.Create(outputPath)
	if err != nil {
		return Summary{Input: inputPath, Profile: p.Index}, errors.Wrap(err, errors.ErrorTypeIO, "failed to create output").
			WithDetail("path", outputPath)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil {
			err = multierr.Append(err, errors.Wrap(cerr, errors.ErrorTypeIO, "failed to close output").
				WithDetail("path", outputPath))
		}
	}()

	return ix.Run(ctx, in, out, inputPath)
}
