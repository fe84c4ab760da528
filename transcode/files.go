package transcode

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/meow-io/go-bencode/config"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ReadFile loads a document, refusing files larger than the configured limit.
func ReadFile(c *config.Config, path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if c.MaxFileSize > 0 && info.Size() > c.MaxFileSize {
		return nil, fmt.Errorf("%s is %d bytes, over the limit of %d", path, info.Size(), c.MaxFileSize)
	}
	return os.ReadFile(path)
}

// ValidateFiles validates every path, at most c.Workers at a time, each with its own Reader. All failures are
// returned together; multierr.Errors splits them.
func ValidateFiles(ctx context.Context, c *config.Config, log *zap.SugaredLogger, paths []string) error {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.Workers)

	var mu sync.Mutex
	var errs error
	for _, p := range paths {
		path := p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := validateFile(c, path)
			if err != nil {
				log.Debugf("%s failed validation: %v", path, err)
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", path, err))
				mu.Unlock()
				return nil
			}
			log.Debugf("%s is valid", path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return multierr.Append(errs, err)
	}
	return errs
}

func validateFile(c *config.Config, path string) error {
	data, err := ReadFile(c, path)
	if err != nil {
		return err
	}
	return Validate(data, c.SkipDuplicateKeys)
}
