// Package terminal registers launcher profiles in the Windows Terminal
// settings document and handles interactive console input.
package terminal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"
)

// ErrProfileSchemaInvalid is returned when the settings document has no
// profiles.list array.
var ErrProfileSchemaInvalid = errors.New("terminal settings: profiles.list is not an array")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// profileEntry is the part of a profile the registrar reads. Every other
// field stays in the document untouched.
type profileEntry struct {
	GUID string `json:"guid"`
}

// newProfile is the shape of an inserted profile.
type newProfile struct {
	GUID        string `json:"guid"`
	Hidden      bool   `json:"hidden"`
	Name        string `json:"name"`
	CommandLine string `json:"commandline"`
}

// Registrar upserts profiles into one settings file.
type Registrar struct {
	path string
}

// NewRegistrar creates a Registrar for the settings file at path.
func NewRegistrar(path string) *Registrar {
	return &Registrar{path: path}
}

// Path returns the settings file path.
func (r *Registrar) Path() string {
	return r.path
}

// EnsureProfile adds a profile with the given id unless one already exists.
// An existing profile is never modified.
func (r *Registrar) EnsureProfile(id, name, commandLine string) error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("read terminal settings: %w", err)
	}

	// Editors such as Notepad may prefix the file with a UTF-8 byte order mark.
	data = bytes.TrimPrefix(data, utf8BOM)

	doc, err := hujson.Parse(data)
	if err != nil {
		return fmt.Errorf("parse terminal settings: %w", err)
	}

	list, err := profileList(doc)
	if err != nil {
		return err
	}

	guid := FormatGUID(id)
	for _, p := range list {
		if strings.EqualFold(p.GUID, guid) {
			return nil
		}
	}

	entry, err := json.Marshal(newProfile{GUID: guid, Name: name, CommandLine: commandLine})
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	patch := fmt.Sprintf(`[{"op":"add","path":"/profiles/list/0","value":%s}]`, entry)
	if err := doc.Patch([]byte(patch)); err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	doc.Format()

	return writeFile(r.path, doc.Pack())
}

// FormatGUID returns id in the braced form Windows Terminal uses.
func FormatGUID(id string) string {
	id = strings.TrimSuffix(strings.TrimPrefix(id, "{"), "}")
	return "{" + id + "}"
}

// profileList decodes the profiles.list entries of a standardized copy of doc.
func profileList(doc hujson.Value) ([]profileEntry, error) {
	std := doc.Clone()
	std.Standardize()

	var top map[string]json.RawMessage
	if err := json.Unmarshal(std.Pack(), &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileSchemaInvalid, err)
	}

	var profiles map[string]json.RawMessage
	if err := json.Unmarshal(top["profiles"], &profiles); err != nil || profiles == nil {
		return nil, ErrProfileSchemaInvalid
	}

	raw, ok := profiles["list"]
	if !ok {
		return nil, ErrProfileSchemaInvalid
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil || list == nil {
		return nil, ErrProfileSchemaInvalid
	}

	entries := make([]profileEntry, 0, len(list))
	for _, item := range list {
		var p profileEntry
		// Entries that are not objects cannot match and are left alone.
		_ = json.Unmarshal(item, &p)
		entries = append(entries, p)
	}
	return entries, nil
}

// writeFile replaces path with data, keeping the existing file mode.
func writeFile(path string, data []byte) error {
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".settings-*.json")
	if err != nil {
		return fmt.Errorf("write terminal settings: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write terminal settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write terminal settings: %w", err)
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		return fmt.Errorf("write terminal settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write terminal settings: %w", err)
	}
	return nil
}
