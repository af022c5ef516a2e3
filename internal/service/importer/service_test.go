package importer

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestSheetRole(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Effectifs 2024":    "employees",
		"Salariés":          "employees",
		"Paie Mars":         "remunerations",
		"MASSE SALARIALE":   "remunerations",
		"Absences":          "absences",
		"Arrêts de travail": "absences",
		"Paramètres":        "",
	}

	for name, want := range cases {
		assert.Equal(t, want, sheetRole(name), "sheet %q", name)
	}
}

func writeTestWorkbook(t *testing.T, dir string) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", "Effectifs"))

	require.NoError(t, f.SetSheetRow("Effectifs", "A1", &[]any{"Matricule", "Période", "Type contrat"}))
	require.NoError(t, f.SetSheetRow("Effectifs", "A2", &[]any{"EMP001", "2024-03-01", "CDI"}))
	// fully empty row, must be skipped
	require.NoError(t, f.SetSheetRow("Effectifs", "A3", &[]any{"", "", ""}))
	require.NoError(t, f.SetSheetRow("Effectifs", "A4", &[]any{"EMP002", "2024-03-01", "CDD"}))

	_, err := f.NewSheet("Paie")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Paie", "A1", &[]any{"Matricule", "Salaire de base"}))
	require.NoError(t, f.SetSheetRow("Paie", "A2", &[]any{"EMP001", 2500}))

	path := filepath.Join(dir, "export.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestRead(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeTestWorkbook(t, dir)

	svc := NewService("")
	wb, err := svc.Read(path)
	require.NoError(t, err)

	require.Len(t, wb.Employees, 2)
	assert.Equal(t, "EMP001", wb.Employees[0]["Matricule"])
	assert.Equal(t, "CDD", wb.Employees[1]["Type contrat"])

	require.Len(t, wb.Remunerations, 1)
	assert.Equal(t, "EMP001", wb.Remunerations[0]["Matricule"])

	assert.Empty(t, wb.Absences)
	// the missing absences sheet is a warning, not an error
	require.Len(t, wb.Warnings, 1)
	assert.Contains(t, wb.Warnings[0], "absences")
}

func TestReadRelativePath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTestWorkbook(t, dir)

	svc := NewService(dir)
	wb, err := svc.Read("export.xlsx")
	require.NoError(t, err)
	assert.Len(t, wb.Employees, 2)
}

func TestReadMissingFile(t *testing.T) {
	t.Parallel()

	svc := NewService(t.TempDir())
	_, err := svc.Read("nope.xlsx")
	assert.Error(t, err)
}
