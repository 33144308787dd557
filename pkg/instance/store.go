package instance

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/flamecast/pkg/anneal"
	fcerrors "github.com/matzehuels/flamecast/pkg/errors"
)

// Format is a persistence encoding.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// FormatOf picks the encoding from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON, nil
	case ".yaml", ".yml":
		return YAML, nil
	}
	return "", fcerrors.New(fcerrors.ErrCodeInvalidFormat, "unsupported file extension %q (want .json, .yaml or .yml)", filepath.Ext(path))
}

// Load reads an instance.
func Load(fs afero.Fs, path string) (*Instance, error) {
	var inst Instance
	if err := read(fs, path, &inst); err != nil {
		return nil, err
	}
	return &inst, nil
}

// Save writes an instance.
func Save(fs afero.Fs, path string, inst *Instance) error { return write(fs, path, inst) }

// LoadLog reads an annealing log.
func LoadLog(fs afero.Fs, path string) (*anneal.Logger, error) {
	var l anneal.Logger
	if err := read(fs, path, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// SaveLog writes an annealing log.
func SaveLog(fs afero.Fs, path string, l *anneal.Logger) error { return write(fs, path, l) }

// Encode serialises v in the given format.
func Encode(format Format, v any) ([]byte, error) {
	switch format {
	case JSON:
		return json.MarshalIndent(v, "", "  ")
	case YAML:
		return yaml.Marshal(v)
	}
	return nil, fcerrors.New(fcerrors.ErrCodeInvalidFormat, "unknown format %q", format)
}

// Decode parses data in the given format into v.
func Decode(format Format, data []byte, v any) error {
	var err error
	switch format {
	case JSON:
		err = json.Unmarshal(data, v)
	case YAML:
		err = yaml.Unmarshal(data, v)
	default:
		return fcerrors.New(fcerrors.ErrCodeInvalidFormat, "unknown format %q", format)
	}
	if err != nil {
		return fcerrors.Wrap(fcerrors.ErrCodeInvalidFormat, err, "decode %s", format)
	}
	return nil
}

func read(fs afero.Fs, path string, v any) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	data, err := afero.ReadFile(fs, path)
	if os.IsNotExist(err) {
		return fcerrors.Wrap(fcerrors.ErrCodeFileNotFound, err, "%s", path)
	} else if err != nil {
		return fcerrors.Wrap(fcerrors.ErrCodeInternal, err, "read %s", path)
	}
	return Decode(format, data, v)
}

// write encodes into a sibling temporary file and renames it into place, so
// readers never observe a partial file.
func write(fs afero.Fs, path string, v any) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	data, err := Encode(format, v)
	if err != nil {
		return fcerrors.Wrap(fcerrors.ErrCodeInternal, err, "encode %s", path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fcerrors.Wrap(fcerrors.ErrCodeInternal, err, "create %s", dir)
		}
	}
	tmp := path + ".next"
	if err := afero.WriteFile(fs, tmp, data, 0o644); err != nil {
		return fcerrors.Wrap(fcerrors.ErrCodeInternal, err, "write %s", tmp)
	}
	if err := fs.Rename(tmp, path); err != nil {
		return fcerrors.Wrap(fcerrors.ErrCodeInternal, err, "rename %s", tmp)
	}
	return nil
}
