package generator

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/crypto/blake2b"
)

const stampPrefix = "// digest: "

// Stamp prepends a digest line to body.
func Stamp(body []byte) []byte {
	sum := blake2b.Sum256(body)
	var b bytes.Buffer
	b.WriteString(stampPrefix)
	b.WriteString(hex.EncodeToString(sum[:]))
	b.WriteByte('\n')
	b.Write(body)
	return b.Bytes()
}

// StampOf returns the digest line of an existing file, or "".
func StampOf(path string) (string, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer f.Close()
	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil || !bytes.HasPrefix([]byte(line), []byte(stampPrefix)) {
		return "", nil
	}
	return line, nil
}

// WriteIfChanged writes a stamped document unless path already carries the
// same digest. It reports whether the file was written.
func WriteIfChanged(path string, doc []byte) (bool, error) {
	first, _, _ := bytes.Cut(doc, []byte("\n"))
	old, err := StampOf(path)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if old == string(first)+"\n" {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}
