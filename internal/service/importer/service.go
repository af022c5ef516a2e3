// Package importer reads customer xlsx workbooks into raw rows for the
// normalizer. Sheet roles are resolved by name aliases, the way the files
// come out of the usual payroll exports.
package importer

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pilotage-rh/analytics-backend-go/internal/normalize"
	"github.com/xuri/excelize/v2"
)

// Workbook is the raw output of one xlsx file: one slice of header-keyed rows
// per recognized sheet role. Missing sheets are not fatal; they produce empty
// slices and a warning, and the aggregators degrade to zero metrics.
type Workbook struct {
	Employees     []map[string]any
	Remunerations []map[string]any
	Absences      []map[string]any
	Warnings      []string
}

var sheetAliases = map[string][]string{
	"employees":     {"effectifs", "employes", "salaries", "personnel", "employees"},
	"remunerations": {"remunerations", "paie", "salaires", "masse salariale", "payroll"},
	"absences":      {"absences", "absence", "arrets"},
}

type Service struct {
	// baseDir anchors relative workbook paths. Absolute paths pass through.
	baseDir string
}

func NewService(baseDir string) *Service {
	return &Service{baseDir: baseDir}
}

// Read opens the workbook at path and extracts the three record sheets.
func (s *Service) Read(path string) (Workbook, error) {
	if !filepath.IsAbs(path) && s.baseDir != "" {
		path = filepath.Join(s.baseDir, path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return Workbook{}, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	var wb Workbook
	resolved := map[string]string{}
	for _, sheet := range f.GetSheetList() {
		if role := sheetRole(sheet); role != "" && resolved[role] == "" {
			resolved[role] = sheet
		}
	}

	for role, sheet := range resolved {
		rows, err := readSheet(f, sheet)
		if err != nil {
			return Workbook{}, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
		}
		switch role {
		case "employees":
			wb.Employees = rows
		case "remunerations":
			wb.Remunerations = rows
		case "absences":
			wb.Absences = rows
		}
	}

	for role := range sheetAliases {
		if resolved[role] == "" {
			wb.Warnings = append(wb.Warnings, fmt.Sprintf("feuille %q absente du classeur", role))
		}
	}

	return wb, nil
}

func sheetRole(name string) string {
	folded := normalize.Fold(name)
	for role, aliases := range sheetAliases {
		for _, a := range aliases {
			if strings.Contains(folded, a) {
				return role
			}
		}
	}
	return ""
}

// readSheet turns a sheet into header-keyed rows. The first non-empty row is
// the header; short rows are tolerated, fully empty rows skipped.
func readSheet(f *excelize.File, sheet string) ([]map[string]any, error) {
	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var headers []string
	var start int
	for i, row := range raw {
		if !emptyRow(row) {
			headers = row
			start = i + 1
			break
		}
	}
	if headers == nil {
		return nil, nil
	}

	var rows []map[string]any
	for _, row := range raw[start:] {
		if emptyRow(row) {
			continue
		}
		m := make(map[string]any, len(headers))
		for i, h := range headers {
			if strings.TrimSpace(h) == "" {
				continue
			}
			if i < len(row) {
				m[h] = row[i]
			}
		}
		rows = append(rows, m)
	}
	return rows, nil
}

func emptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
