package spectrogram

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	homedir "github.com/mitchellh/go-homedir"
)

const DefaultExportName = "pianolizer.png"

// Exporter saves raster snapshots as PNG files.
type Exporter struct {
	Dir  string
	Name string

	now func() time.Time
}

func NewExporter(dir string) *Exporter {
	return &Exporter{Dir: dir, Name: DefaultExportName, now: time.Now}
}

// Export writes img and returns the path written. An existing file is
// never overwritten; a timestamp is added to the name instead.
func (e *Exporter) Export(img image.Image) (string, error) {
	dir, err := homedir.Expand(e.Dir)
	if err != nil {
		return "", fault.Wrap(err, fmsg.With("expand export dir"), ftag.With(ftag.InvalidArgument))
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fault.Wrap(err,
			fmsg.WithDesc("create export dir", "Could not create "+dir),
			ftag.With(ftag.Internal))
	}

	path := filepath.Join(dir, e.name())
	if exists(path) {
		stamp := e.stamped()
		path = filepath.Join(dir, stamp)
		ext := filepath.Ext(stamp)
		for n := 2; exists(path); n++ {
			path = filepath.Join(dir, fmt.Sprintf("%s-%d%s", strings.TrimSuffix(stamp, ext), n, ext))
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		return "", fault.Wrap(err,
			fmsg.WithDesc("create export file", "Could not write "+path),
			ftag.With(ftag.Internal))
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(path)
		return "", fault.Wrap(err, fmsg.With("encode png"), ftag.With(ftag.Internal))
	}
	if err := f.Close(); err != nil {
		return "", fault.Wrap(err, fmsg.With("close export file"), ftag.With(ftag.Internal))
	}
	return path, nil
}

func (e *Exporter) name() string {
	if e.Name == "" {
		return DefaultExportName
	}
	return e.Name
}

func (e *Exporter) stamped() string {
	now := time.Now
	if e.now != nil {
		now = e.now
	}
	name := e.name()
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + "-" + now().Format("20060102-150405.000") + ext
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
