package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// MarshalFile marshals a data structure to pretty-printed JSON and
// writes it to a file.
func MarshalFile(path string, o any) (outErr error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	defer func() {
		err := f.Close()
		if err != nil {
			outErr = errors.Join(outErr, fmt.Errorf(
				"failed to close file: %w", err))
		}
	}()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")

	err = enc.Encode(o)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return nil
}

// UnmarshalFile reads a JSON file into the given value.
func UnmarshalFile(path string, o any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	err = json.Unmarshal(data, o)
	if err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	return nil
}

// Close a resource and joins the error to the outError if the close
// fails. Will ignore os.ErrClosed so it's safe to use together with
// "manual" closing of files.
func Close(name string, c io.Closer, outErr *error) {
	err := c.Close()
	if err != nil && !errors.Is(err, os.ErrClosed) {
		*outErr = errors.Join(*outErr, fmt.Errorf("close %s: %w", name, err))
	}
}
