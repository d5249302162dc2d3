package main

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/oddvibe/pkg/errors"
	"github.com/ezoic/oddvibe/pkg/log"
)

const (
	extNPY  = ".npy"
	extCSV  = ".csv"
	extJSON = ".json"
)

// readFeatures loads an n × d matrix from a .npy or .csv file.
func readFeatures(path string) (*mat.Dense, error) {
	switch ext(path) {
	case extNPY:
		m := &mat.Dense{}
		if err := readNpy(path, m); err != nil {
			return nil, err
		}
		return m, nil
	case extCSV:
		rows, err := readCSV(path)
		if err != nil {
			return nil, err
		}
		d := len(rows[0])
		flat := make([]float64, 0, len(rows)*d)
		for i, row := range rows {
			if len(row) != d {
				return nil, errors.Newf("%s: row %d has %d columns, expected %d", path, i, len(row), d)
			}
			flat = append(flat, row...)
		}
		return mat.NewDense(len(rows), d, flat), nil
	default:
		return nil, errors.Newf("unsupported feature file: %s", path)
	}
}

// readTarget loads a vector from a .npy file or from the first column of a
// .csv file.
func readTarget(path string) (*mat.VecDense, error) {
	switch ext(path) {
	case extNPY:
		var y []float64
		if err := readNpy(path, &y); err != nil {
			return nil, err
		}
		if len(y) == 0 {
			return nil, errors.Newf("%s: empty target", path)
		}
		return mat.NewVecDense(len(y), y), nil
	case extCSV:
		rows, err := readCSV(path)
		if err != nil {
			return nil, err
		}
		y := make([]float64, len(rows))
		for i, row := range rows {
			y[i] = row[0]
		}
		return mat.NewVecDense(len(y), y), nil
	default:
		return nil, errors.Newf("unsupported target file: %s", path)
	}
}

// writeWeights saves one weight per row as .npy, .csv (one value per line)
// or .json.
func writeWeights(path string, weights []float64) (err error) {
	var write func(io.Writer) error
	switch ext(path) {
	case extNPY:
		write = func(w io.Writer) error { return npyio.Write(w, weights) }
	case extCSV:
		write = func(w io.Writer) error {
			cw := csv.NewWriter(w)
			for _, v := range weights {
				if err := cw.Write([]string{strconv.FormatFloat(v, 'g', -1, 64)}); err != nil {
					return err
				}
			}
			cw.Flush()
			return cw.Error()
		}
	case extJSON:
		write = func(w io.Writer) error { return encode(w, formatJSON, weights) }
	default:
		return errors.Newf("unsupported weights file: %s", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create file: %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "failed to close file: %s", path)
		}
	}()

	if err := write(f); err != nil {
		return errors.Wrapf(err, "failed to write weights: %s", path)
	}
	log.GetLoggerWithName("cli").Debug("Weights written", log.PathKey, path, log.SamplesKey, len(weights))
	return nil
}

func readNpy(path string, ptr any) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "failed to open file: %s", path)
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "failed to read npy header: %s", path)
	}
	if err := r.Read(ptr); err != nil {
		return errors.Wrapf(err, "failed to read npy data: %s", path)
	}
	return nil
}

// readCSV parses a numeric CSV file. A first row that does not parse as
// numbers is taken as a header and skipped.
func readCSV(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open file: %s", path)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse csv: %s", path)
	}

	rows := make([][]float64, 0, len(records))
	for i, rec := range records {
		row, err := parseRecord(rec)
		if err != nil {
			if i == 0 {
				continue
			}
			return nil, errors.Wrapf(err, "%s: line %d", path, i+1)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, errors.Newf("%s: no numeric rows", path)
	}
	return rows, nil
}

func parseRecord(rec []string) ([]float64, error) {
	row := make([]float64, len(rec))
	for j, s := range rec {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, err
		}
		row[j] = v
	}
	return row, nil
}

func ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
