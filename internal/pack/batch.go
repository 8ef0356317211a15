package pack

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// BatchFile is an nrfutil batch descriptor, the JSON file west's nrfutil
// runner generates to drive a sequence of device programming operations.
type BatchFile struct {
	// Content is the raw JSON.
	Content string
	// Name the batch file is packed under, <domain>_<original file name>.
	Name string
	// ExtMemConfigName is the file name of the associated external memory
	// configuration, when the dry-run invocation referenced one.
	ExtMemConfigName string
}

type batchDocument struct {
	Operations []struct {
		Operation struct {
			Firmware *struct {
				File string `json:"file"`
			} `json:"firmware"`
		} `json:"operation"`
	} `json:"operations"`
	NrfutilDeviceVersion string `json:"nrfutil_device_version"`
}

// BatchFileFromPath reads a batch descriptor from disk. The packed name is
// derived from the path: the generated file sits two levels below its domain
// directory, so the domain name is the third path element from the end.
func BatchFileFromPath(path, extMemConfigName string) (BatchFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return BatchFile{}, fmt.Errorf("reading batch file: %w", err)
	}

	segments := strings.Split(filepath.ToSlash(path), "/")
	if len(segments) < 3 {
		return BatchFile{}, fmt.Errorf("batch file path %q is too short to derive a domain name", path)
	}
	name := segments[len(segments)-3] + "_" + segments[len(segments)-1]

	return BatchFile{
		Content:          string(data),
		Name:             name,
		ExtMemConfigName: extMemConfigName,
	}, nil
}

// FwFiles extracts the firmware file paths referenced by the batch
// operations, in operation order.
func (b BatchFile) FwFiles() ([]string, error) {
	var doc batchDocument
	if err := json.Unmarshal([]byte(b.Content), &doc); err != nil {
		return nil, fmt.Errorf("parsing batch file %s: %w", b.Name, err)
	}

	var files []string
	for _, op := range doc.Operations {
		if op.Operation.Firmware != nil {
			files = append(files, op.Operation.Firmware.File)
		}
	}
	return files, nil
}

// DeviceVersion extracts the required nrfutil device command version, or ""
// when the batch file does not carry one.
func (b BatchFile) DeviceVersion() (string, error) {
	var doc batchDocument
	if err := json.Unmarshal([]byte(b.Content), &doc); err != nil {
		return "", fmt.Errorf("parsing batch file %s: %w", b.Name, err)
	}
	return doc.NrfutilDeviceVersion, nil
}

// UpdateMatchingFwFile returns a copy with every firmware file reference
// containing oldPath as a substring replaced by newPath. The references in
// generated batch files are absolute while ours are build-dir relative, so a
// substring match is the right test.
//
// The rewrite goes through generic JSON values so fields this tool does not
// know about survive untouched.
func (b BatchFile) UpdateMatchingFwFile(oldPath, newPath string) (BatchFile, error) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(b.Content), &doc); err != nil {
		return BatchFile{}, fmt.Errorf("parsing batch file %s: %w", b.Name, err)
	}

	operations, _ := doc["operations"].([]any)
	for _, rawOp := range operations {
		op, ok := rawOp.(map[string]any)
		if !ok {
			continue
		}
		inner, ok := op["operation"].(map[string]any)
		if !ok {
			continue
		}
		fw, ok := inner["firmware"].(map[string]any)
		if !ok {
			continue
		}
		file, _ := fw["file"].(string)
		if file != "" && strings.Contains(file, oldPath) {
			fw["file"] = newPath
		}
	}

	content, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return BatchFile{}, fmt.Errorf("re-encoding batch file %s: %w", b.Name, err)
	}

	return BatchFile{
		Content:          string(content),
		Name:             b.Name,
		ExtMemConfigName: b.ExtMemConfigName,
	}, nil
}
