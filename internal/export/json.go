package export

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/pidsim/internal/experiment"
)

func WriteJSON(w io.Writer, res *experiment.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func SaveJSON(path string, res *experiment.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteJSON(f, res); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func ReadJSON(r io.Reader) (*experiment.Result, error) {
	var res experiment.Result
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return nil, err
	}
	return &res, nil
}
