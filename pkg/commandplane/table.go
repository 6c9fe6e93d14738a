package commandplane

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/uofuseismo/umps-go/internal/umpserrors"
	"github.com/uofuseismo/umps-go/pkg/message"
)

// tableFileName is the module table's well-known name under whatever
// directory a deployment points its modules at.
const tableFileName = "umps-module-table.csv"

// tableMu serializes table file reads/writes across every Service in this
// process; it does not protect against another process racing the same
// file, which the table format (rewrite-whole-file) does not guard against
// either.
var tableMu sync.Mutex

// tableRecord is one row of the module table: a registered module
// instance's identity plus the IPC path a command Service bound for it.
type tableRecord struct {
	details message.ModuleDetails
	ipcPath string
}

// TablePath returns the well-known module table file path under dir.
func TablePath(dir string) string {
	return filepath.Join(dir, tableFileName)
}

// WriteTableRow adds (or replaces, keyed by name+instance) details/ipcPath
// as a row in the table file at path, creating the file if it does not yet
// exist. Called by Service.Start so the module is discoverable the moment
// it starts answering requests.
func WriteTableRow(path string, details message.ModuleDetails, ipcPath string) error {
	tableMu.Lock()
	defer tableMu.Unlock()

	records, err := readTable(path)
	if err != nil {
		return err
	}
	records = removeRecord(records, details.Name, details.Instance)
	records = append(records, tableRecord{details: details, ipcPath: ipcPath})
	return writeTable(path, records)
}

// RemoveTableRow deletes moduleName/instance's row from the table file at
// path. Called when Service.Start returns so a stopped module stops appearing as
// discoverable. Removing a row from a table file that doesn't exist, or
// that has no matching row, is not an error.
func RemoveTableRow(path, moduleName string, instance uint16) error {
	tableMu.Lock()
	defer tableMu.Unlock()

	records, err := readTable(path)
	if err != nil {
		return err
	}
	records = removeRecord(records, moduleName, instance)
	return writeTable(path, records)
}

// ReadTable returns every module currently listed in the table file at
// path, in the order they were written.
func ReadTable(path string) ([]message.ModuleDetails, error) {
	tableMu.Lock()
	defer tableMu.Unlock()

	records, err := readTable(path)
	if err != nil {
		return nil, err
	}
	out := make([]message.ModuleDetails, 0, len(records))
	for _, r := range records {
		out = append(out, r.details)
	}
	return out, nil
}

// IPCPath looks up moduleName/instance's registered IPC path in the table
// file at path.
func IPCPath(path, moduleName string, instance uint16) (string, bool, error) {
	tableMu.Lock()
	defer tableMu.Unlock()

	records, err := readTable(path)
	if err != nil {
		return "", false, err
	}
	for _, r := range records {
		if r.details.Name == moduleName && r.details.Instance == instance {
			return r.ipcPath, true, nil
		}
	}
	return "", false, nil
}

func removeRecord(records []tableRecord, moduleName string, instance uint16) []tableRecord {
	out := records[:0]
	for _, r := range records {
		if r.details.Name == moduleName && r.details.Instance == instance {
			continue
		}
		out = append(out, r)
	}
	return out
}

// readTable parses the CSV table file at path. A missing file is an empty
// table, not an error, since Service.Start may be the first writer.
func readTable(path string) ([]tableRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, umpserrors.Wrap(umpserrors.KindTransport, "opening module table", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 7
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, umpserrors.Wrap(umpserrors.KindTransport, "reading module table", err)
	}

	records := make([]tableRecord, 0, len(rows))
	for _, row := range rows {
		instance, _ := strconv.ParseUint(row[2], 10, 16)
		pid, _ := strconv.ParseInt(row[3], 10, 64)
		ppid, _ := strconv.ParseInt(row[4], 10, 64)
		records = append(records, tableRecord{
			details: message.ModuleDetails{
				Name: row[0], Executable: row[1], Instance: uint16(instance),
				PID: pid, PPID: ppid, Machine: row[5],
			},
			ipcPath: row[6],
		})
	}
	return records, nil
}

// writeTable rewrites the table file at path from scratch with records. An
// empty records slice still leaves an empty table file behind, so a reader
// mid-scan never sees a missing file where one existed a moment ago.
func writeTable(path string, records []tableRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return umpserrors.Wrap(umpserrors.KindTransport, "creating module table directory", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return umpserrors.Wrap(umpserrors.KindTransport, "creating module table", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	for _, r := range records {
		row := []string{
			r.details.Name,
			r.details.Executable,
			strconv.FormatUint(uint64(r.details.Instance), 10),
			strconv.FormatInt(r.details.PID, 10),
			strconv.FormatInt(r.details.PPID, 10),
			r.details.Machine,
			r.ipcPath,
		}
		if err := writer.Write(row); err != nil {
			return umpserrors.Wrap(umpserrors.KindTransport, "writing module table row", err)
		}
	}
	writer.Flush()
	return writer.Error()
}
