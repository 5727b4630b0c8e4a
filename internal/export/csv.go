package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
)

var ErrMalformedCSV = errors.New("export: malformed response csv")

var csvHeader = []string{"time", "reference", "output", "control"}

// Traces are the aligned columns of a response csv. Control is nil when the
// file carries no control column values.
type Traces struct {
	Times     []float64
	Reference []float64
	Output    []float64
	Control   []float64
}

// WriteCSV writes time,reference,output,control rows. The control column is
// left empty when control has no samples.
func WriteCSV(w io.Writer, times, ref, out, control []float64) error {
	if len(ref) != len(times) || len(out) != len(times) {
		return fmt.Errorf("%w: %d times, %d reference, %d output", ErrMalformedCSV, len(times), len(ref), len(out))
	}
	if len(control) > 0 && len(control) != len(times) {
		return fmt.Errorf("%w: %d control samples for %d times", ErrMalformedCSV, len(control), len(times))
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	row := make([]string, 4)
	for i := range times {
		row[0] = format(times[i])
		row[1] = format(ref[i])
		row[2] = format(out[i])
		row[3] = ""
		if len(control) > 0 {
			row[3] = format(control[i])
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func ReadCSV(r io.Reader) (*Traces, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
	}
	for i, name := range csvHeader {
		if header[i] != name {
			return nil, fmt.Errorf("%w: column %d is %q, want %q", ErrMalformedCSV, i, header[i], name)
		}
	}

	tr := &Traces{}
	var control []float64
	hasControl := true
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
		}
		var vals [3]float64
		for j := range vals {
			v, err := strconv.ParseFloat(rec[j], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedCSV, line, err)
			}
			vals[j] = v
		}
		tr.Times = append(tr.Times, vals[0])
		tr.Reference = append(tr.Reference, vals[1])
		tr.Output = append(tr.Output, vals[2])

		if rec[3] == "" {
			hasControl = false
			continue
		}
		u, err := strconv.ParseFloat(rec[3], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedCSV, line, err)
		}
		control = append(control, u)
	}
	if hasControl && len(control) == len(tr.Times) {
		tr.Control = control
	}
	return tr, nil
}
