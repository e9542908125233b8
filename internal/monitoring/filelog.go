package monitoring

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

// SetupFileLogging tees the standard logger to a per-job log file under dir,
// in addition to stdout. Each pipeline instance gets a unique filename so a
// central collection step can gather logs without collisions. The returned
// close function flushes and detaches the file.
func SetupFileLogging(dir, jobID string, unixTime int64) (func() error, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%d.log", jobID, unixTime))
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	log.SetOutput(io.MultiWriter(os.Stdout, f))
	log.SetFlags(log.LstdFlags | log.LUTC)

	return func() error {
		log.SetOutput(os.Stdout)
		return f.Close()
	}, nil
}
